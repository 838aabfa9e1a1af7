package text

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Splitter segments text into sentences. Nil splitter is valid and degrades
// to whole-string passthrough.
type Splitter struct {
	*sentences.DefaultSentenceTokenizer
}

var (
	englishOnce sync.Once
	englishTok  *sentences.DefaultSentenceTokenizer
)

// NewSplitter returns a sentence splitter for the given language. Only the
// English punkt model ships with the program; other languages fall back to it
// since sentence boundaries are used solely to pick truncation points and a
// mismatched model costs at worst a slightly odd cut.
func NewSplitter(lang language.Tag, log *zap.Logger) *Splitter {
	englishOnce.Do(func() {
		tok, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			log.Warn("Unable to load sentence tokenizer model, turning off sentence splitting", zap.Error(err))
			return
		}
		englishTok = tok
	})
	if englishTok == nil {
		return nil
	}
	if base, _ := lang.Base(); base.String() != "en" {
		log.Debug("No sentence tokenizer model for document language, using English", zap.Stringer("language", lang))
	}
	return &Splitter{englishTok}
}

// Split returns slice of sentences. Concatenating the result reproduces the
// input exactly.
func (s *Splitter) Split(in string) []string {

	var result []string
	if s == nil {
		return append(result, in)
	}

	for _, sentence := range s.Tokenize(in) {
		result = append(result, sentence.Text)
	}

	// Tokenizer attributes sentence trailing spaces to the next sentence.
	// Move them back so every element ends where its sentence visually ends.

	for i := range len(result) - 1 {
		for idx, sym := range result[i+1] {
			if !unicode.IsSpace(sym) {
				result[i] = result[i] + result[i+1][0:idx]
				result[i+1] = result[i+1][idx:]
				break
			}
		}
	}
	return result
}

// Ellipsis is appended whenever Truncate cuts text.
const Ellipsis = "…"

// minCutFill is the smallest acceptable fill of the truncation allowance:
// boundaries that land earlier than this are ignored in favor of a longer
// cut.
const minCutFill = 0.6

// Truncate cuts in to at most maxRunes runes and appends an ellipsis. The cut
// point prefers the end of the last complete sentence when it lands past
// minCutFill of the allowance, then the last word boundary, then a hard rune
// cut. Text within the limit is returned unchanged.
func (s *Splitter) Truncate(in string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(in) <= maxRunes {
		return in
	}
	minFill := int(float64(maxRunes) * minCutFill)

	if s != nil {
		var (
			b     strings.Builder
			count int
		)
		for _, sentence := range s.Split(in) {
			n := utf8.RuneCountInString(sentence)
			if count+n > maxRunes {
				break
			}
			b.WriteString(sentence)
			count += n
		}
		if count >= minFill {
			return strings.TrimRight(b.String(), " ") + Ellipsis
		}
	}

	runes := []rune(in)
	cut := runes[:maxRunes]
	if idx := lastSpace(cut); idx >= minFill {
		cut = cut[:idx]
	}
	return strings.TrimRight(string(cut), " ") + Ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
