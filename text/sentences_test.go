package text

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func newTestSplitter(t *testing.T) *Splitter {
	t.Helper()
	s := NewSplitter(language.English, zap.NewNop())
	if s == nil {
		t.Fatal("English sentence tokenizer model failed to load")
	}
	return s
}

func TestSplitterSplit(t *testing.T) {
	s := newTestSplitter(t)

	in := "First sentence. Second one follows! And a third?"
	got := s.Split(in)

	if len(got) != 3 {
		t.Fatalf("Split() returned %d sentences, want 3: %q", len(got), got)
	}
	if joined := strings.Join(got, ""); joined != in {
		t.Errorf("concatenated sentences = %q, want original %q", joined, in)
	}
	if !strings.HasPrefix(got[1], "Second") {
		t.Errorf("second sentence = %q, trailing spaces were not moved", got[1])
	}
}

func TestSplitterSplitNil(t *testing.T) {
	var s *Splitter
	got := s.Split("whole text untouched")
	if len(got) != 1 || got[0] != "whole text untouched" {
		t.Errorf("nil splitter Split() = %q, want single passthrough element", got)
	}
}

func TestTruncate(t *testing.T) {
	s := newTestSplitter(t)

	t.Run("short text unchanged", func(t *testing.T) {
		in := "Short note."
		if got := s.Truncate(in, 100); got != in {
			t.Errorf("Truncate() = %q, want unchanged %q", got, in)
		}
	})

	t.Run("zero cap unchanged", func(t *testing.T) {
		in := "Anything at all."
		if got := s.Truncate(in, 0); got != in {
			t.Errorf("Truncate() = %q, want unchanged %q", got, in)
		}
	})

	t.Run("cuts at sentence boundary", func(t *testing.T) {
		in := "This is the first sentence of the note. This second sentence will not fit into the allowance at all."
		got := s.Truncate(in, 50)
		want := "This is the first sentence of the note." + Ellipsis
		if got != want {
			t.Errorf("Truncate() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to word boundary", func(t *testing.T) {
		in := "one single enormous sentence that keeps going and going without any terminal punctuation whatsoever until well past the cap"
		got := s.Truncate(in, 40)
		if !strings.HasSuffix(got, Ellipsis) {
			t.Fatalf("Truncate() = %q, want ellipsis suffix", got)
		}
		body := strings.TrimSuffix(got, Ellipsis)
		if utf8.RuneCountInString(body) > 40 {
			t.Errorf("Truncate() body %d runes, want <= 40", utf8.RuneCountInString(body))
		}
		if strings.HasSuffix(body, " ") {
			t.Errorf("Truncate() = %q, trailing space before ellipsis", got)
		}
		// cut must land between words, not inside one
		if !strings.Contains(in, body+" ") {
			t.Errorf("Truncate() body %q does not end on a word boundary", body)
		}
	})

	t.Run("nil splitter still truncates", func(t *testing.T) {
		var s *Splitter
		in := strings.Repeat("word ", 30)
		got := s.Truncate(in, 40)
		if !strings.HasSuffix(got, Ellipsis) {
			t.Errorf("Truncate() = %q, want ellipsis suffix", got)
		}
		if utf8.RuneCountInString(got) > 41 {
			t.Errorf("Truncate() too long: %d runes", utf8.RuneCountInString(got))
		}
	})
}
