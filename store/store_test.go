package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"epr/common"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("unable to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDirectories(t *testing.T) {
	name := filepath.Join(t.TempDir(), "nested", "deeper", "state.db")
	s, err := Open(name, zap.NewNop())
	if err != nil {
		t.Fatalf("unable to open store: %v", err)
	}
	if err := s.SetLocation("/books/a.epub", "sec/1@0.5"); err != nil {
		t.Fatalf("unable to save position: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unable to close store: %v", err)
	}

	// state survives reopening the same file
	s, err = Open(name, zap.NewNop())
	if err != nil {
		t.Fatalf("unable to reopen store: %v", err)
	}
	defer s.Close()
	loc, err := s.Location("/books/a.epub")
	if err != nil {
		t.Fatalf("unable to read position: %v", err)
	}
	if loc != "sec/1@0.5" {
		t.Errorf("expected stored position after reopen, got %q", loc)
	}
}

func TestLocationRoundTrip(t *testing.T) {
	s := newStore(t)

	loc, err := s.Location("/books/a.epub")
	if err != nil {
		t.Fatalf("unable to read position: %v", err)
	}
	if loc != "" {
		t.Errorf("expected empty position for unknown key, got %q", loc)
	}

	if err := s.SetLocation("/books/a.epub", "sec/0@0"); err != nil {
		t.Fatalf("unable to save position: %v", err)
	}
	if err := s.SetLocation("/books/a.epub", "sec/0@0"); err != nil {
		t.Fatalf("unable to repeat position: %v", err)
	}
	if err := s.SetLocation("/books/a.epub", "sec/2@0.25"); err != nil {
		t.Fatalf("unable to update position: %v", err)
	}

	loc, err = s.Location("/books/a.epub")
	if err != nil {
		t.Fatalf("unable to read position: %v", err)
	}
	if loc != "sec/2@0.25" {
		t.Errorf("expected updated position, got %q", loc)
	}

	if err := s.SetLocation("", "sec/0@0"); err == nil {
		t.Errorf("expected error for empty key")
	}
}

func TestForget(t *testing.T) {
	s := newStore(t)

	if err := s.SetLocation("/books/a.epub", "sec/0@0"); err != nil {
		t.Fatalf("unable to save position: %v", err)
	}
	moved, err := s.Forget("/books/a.epub")
	if err != nil {
		t.Fatalf("unable to remove position: %v", err)
	}
	if !moved {
		t.Errorf("expected removal of existing entry")
	}
	moved, err = s.Forget("/books/a.epub")
	if err != nil {
		t.Fatalf("unable to repeat removal: %v", err)
	}
	if moved {
		t.Errorf("expected second removal to be a no-op")
	}
	loc, err := s.Location("/books/a.epub")
	if err != nil || loc != "" {
		t.Errorf("expected empty position after removal, got %q, %v", loc, err)
	}
}

func TestRename(t *testing.T) {
	s := newStore(t)

	if err := s.SetLocation("/books/old.epub", "sec/3@0"); err != nil {
		t.Fatalf("unable to save position: %v", err)
	}
	if err := s.SetLocation("/books/taken.epub", "sec/9@0"); err != nil {
		t.Fatalf("unable to save position: %v", err)
	}

	moved, err := s.Rename("/books/old.epub", "/books/new.epub")
	if err != nil {
		t.Fatalf("unable to rename position: %v", err)
	}
	if !moved {
		t.Errorf("expected rename to move an entry")
	}
	if loc, _ := s.Location("/books/old.epub"); loc != "" {
		t.Errorf("expected old key removed, got %q", loc)
	}
	if loc, _ := s.Location("/books/new.epub"); loc != "sec/3@0" {
		t.Errorf("expected position under new key, got %q", loc)
	}

	// renaming onto an existing key replaces it
	moved, err = s.Rename("/books/new.epub", "/books/taken.epub")
	if err != nil || !moved {
		t.Fatalf("unable to rename onto existing key: %v, %v", moved, err)
	}
	if loc, _ := s.Location("/books/taken.epub"); loc != "sec/3@0" {
		t.Errorf("expected replacement under taken key, got %q", loc)
	}

	moved, err = s.Rename("/books/ghost.epub", "/books/elsewhere.epub")
	if err != nil {
		t.Fatalf("unable to rename missing entry: %v", err)
	}
	if moved {
		t.Errorf("expected rename of missing entry to be a no-op")
	}

	if moved, err := s.Rename("/books/same.epub", "/books/same.epub"); err != nil || moved {
		t.Errorf("expected self rename to be a no-op, got %v, %v", moved, err)
	}
	if _, err := s.Rename("/books/taken.epub", ""); err == nil {
		t.Errorf("expected error for empty target key")
	}
}

func TestListNaturalOrder(t *testing.T) {
	s := newStore(t)

	for _, path := range []string{"/books/vol10.epub", "/books/vol2.epub", "/books/vol1.epub"} {
		if err := s.SetLocation(path, "sec/0@0"); err != nil {
			t.Fatalf("unable to save position: %v", err)
		}
	}
	entries, err := s.List()
	if err != nil {
		t.Fatalf("unable to list positions: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"/books/vol1.epub", "/books/vol2.epub", "/books/vol10.epub"}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, e.Path)
		}
		if e.Updated.IsZero() {
			t.Errorf("expected update time for %q", e.Path)
		}
	}
}

func TestSettings(t *testing.T) {
	s := newStore(t)

	v, err := s.Setting("never-set")
	if err != nil || v != "" {
		t.Errorf("expected empty value for unset key, got %q, %v", v, err)
	}
	if err := s.SetSetting("font-scale", "1.25"); err != nil {
		t.Fatalf("unable to save setting: %v", err)
	}
	if v, _ := s.Setting("font-scale"); v != "1.25" {
		t.Errorf("expected stored setting, got %q", v)
	}
	if err := s.SetSetting("", "x"); err == nil {
		t.Errorf("expected error for empty key")
	}

	if v, err := s.Reopen(true); err != nil || !v {
		t.Errorf("expected default reopen flag, got %v, %v", v, err)
	}
	if err := s.SetReopen(false); err != nil {
		t.Fatalf("unable to save reopen flag: %v", err)
	}
	if v, _ := s.Reopen(true); v {
		t.Errorf("expected stored reopen flag to win over default")
	}

	if m, _ := s.DisplayMode(common.DisplayModeAutoSpread); m != common.DisplayModeAutoSpread {
		t.Errorf("expected default display mode, got %v", m)
	}
	if err := s.SetDisplayMode(common.DisplayModeSinglePage); err != nil {
		t.Fatalf("unable to save display mode: %v", err)
	}
	if m, _ := s.DisplayMode(common.DisplayModeAutoSpread); m != common.DisplayModeSinglePage {
		t.Errorf("expected stored display mode, got %v", m)
	}

	// malformed stored values fall back to the default
	if err := s.SetSetting(SettingTheme, "neon"); err != nil {
		t.Fatalf("unable to save setting: %v", err)
	}
	if th, _ := s.Theme(common.ThemeSepia); th != common.ThemeSepia {
		t.Errorf("expected default theme for malformed value, got %v", th)
	}
	if err := s.SetTheme(common.ThemeDark); err != nil {
		t.Fatalf("unable to save theme: %v", err)
	}
	if th, _ := s.Theme(common.ThemeAuto); th != common.ThemeDark {
		t.Errorf("expected stored theme, got %v", th)
	}
}

func TestClosedStore(t *testing.T) {
	s := newStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("unable to close store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if _, err := s.Location("/books/a.epub"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.SetLocation("/books/a.epub", "sec/0@0"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.List(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Setting("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestKeyFor(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "book.epub")
	if got := KeyFor(abs, "ignored"); got != abs {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
	if got := KeyFor("books/relative.epub", ""); !filepath.IsAbs(got) {
		t.Errorf("expected relative path resolved, got %q", got)
	}
	if got := KeyFor("", "My Book, Annotated!"); got != "mem:my-book-annotated" {
		t.Errorf("unexpected slug key: %q", got)
	}
	if got := KeyFor("", ""); got != "mem:untitled" {
		t.Errorf("unexpected fallback key: %q", got)
	}
	if got := KeyFor("", "??!"); !strings.HasPrefix(got, "mem:") {
		t.Errorf("unexpected degenerate key: %q", got)
	}
}

func TestNopStore(t *testing.T) {
	var n Nop
	if err := n.SetLocation("/books/a.epub", "sec/0@0"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if loc, err := n.Location("/books/a.epub"); err != nil || loc != "" {
		t.Errorf("expected empty position, got %q, %v", loc, err)
	}
}
