// Package store persists reading positions and reader settings in a
// single SQLite database. Location entries are keyed by document identity
// (file path or a title slug for pathless documents) and hold the last
// opaque location pointer the engine reported.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"epr/common"
)

var ErrClosed = errors.New("state store is closed")

// Settings keys. Raw access goes through Setting/SetSetting, the reader
// uses the typed accessors below.
const (
	SettingReopen      = "reopen-last-position"
	SettingDisplayMode = "display-mode"
	SettingTheme       = "theme"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	path TEXT PRIMARY KEY,
	location TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Entry is one persisted reading position.
type Entry struct {
	Path     string
	Location string
	Updated  time.Time
}

// Store keeps reading state in SQLite. Safe for concurrent use, all
// operations serialize on one connection.
type Store struct {
	log *zap.Logger

	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens or creates the state database at name, creating parent
// directories as needed.
func Open(name string, log *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(name); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("unable to create state directory: %w", err)
		}
	}
	conn, err := sqlite.OpenConn(name, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("unable to open state database: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare state database: %w", err)
	}
	return &Store{log: log.Named("store"), conn: conn}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("unable to close state database: %w", err)
	}
	return nil
}

// Location returns the stored pointer for a document key, empty when none
// is stored.
func (s *Store) Location(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return "", ErrClosed
	}
	var loc string
	err := sqlitex.Execute(s.conn, `SELECT location FROM locations WHERE path = ?`,
		&sqlitex.ExecOptions{
			Args: []any{path},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				loc = stmt.ColumnText(0)
				return nil
			},
		})
	if err != nil {
		return "", fmt.Errorf("unable to read position for %s: %w", path, err)
	}
	return loc, nil
}

// SetLocation stores the pointer for a document key. Storing the value
// already present is a no-op, relocation events repeat positions a lot.
func (s *Store) SetLocation(path, location string) error {
	if path == "" {
		return fmt.Errorf("unable to save position: empty document key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}

	var current string
	var found bool
	err := sqlitex.Execute(s.conn, `SELECT location FROM locations WHERE path = ?`,
		&sqlitex.ExecOptions{
			Args: []any{path},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				current, found = stmt.ColumnText(0), true
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("unable to read position for %s: %w", path, err)
	}
	if found && current == location {
		return nil
	}

	err = sqlitex.Execute(s.conn,
		`INSERT INTO locations (path, location, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET location = excluded.location, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{path, location, time.Now().UTC().Format(time.RFC3339)}})
	if err != nil {
		return fmt.Errorf("unable to save position for %s: %w", path, err)
	}
	return nil
}

// Forget removes the stored position for a document key and reports
// whether an entry existed.
func (s *Store) Forget(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return false, ErrClosed
	}
	err := sqlitex.Execute(s.conn, `DELETE FROM locations WHERE path = ?`,
		&sqlitex.ExecOptions{Args: []any{path}})
	if err != nil {
		return false, fmt.Errorf("unable to remove position for %s: %w", path, err)
	}
	return s.conn.Changes() > 0, nil
}

// Rename moves a stored position to a new document key, replacing any
// entry already stored under it. Reports whether an entry moved.
func (s *Store) Rename(oldPath, newPath string) (moved bool, err error) {
	if oldPath == newPath {
		return false, nil
	}
	if newPath == "" {
		return false, fmt.Errorf("unable to rename position: empty document key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return false, ErrClosed
	}

	defer sqlitex.Save(s.conn)(&err)
	err = sqlitex.Execute(s.conn, `DELETE FROM locations WHERE path = ?`,
		&sqlitex.ExecOptions{Args: []any{newPath}})
	if err != nil {
		return false, fmt.Errorf("unable to rename position for %s: %w", oldPath, err)
	}
	err = sqlitex.Execute(s.conn, `UPDATE locations SET path = ? WHERE path = ?`,
		&sqlitex.ExecOptions{Args: []any{newPath, oldPath}})
	if err != nil {
		return false, fmt.Errorf("unable to rename position for %s: %w", oldPath, err)
	}
	return s.conn.Changes() > 0, nil
}

// List returns all stored positions in natural path order.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrClosed
	}
	var entries []Entry
	err := sqlitex.Execute(s.conn, `SELECT path, location, updated_at FROM locations`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				e := Entry{Path: stmt.ColumnText(0), Location: stmt.ColumnText(1)}
				// malformed timestamps keep the entry, only the time is lost
				e.Updated, _ = time.Parse(time.RFC3339, stmt.ColumnText(2))
				entries = append(entries, e)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to list positions: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return natural.Less(entries[i].Path, entries[j].Path) })
	return entries, nil
}

// Setting returns the raw value for a settings key, empty when unset.
func (s *Store) Setting(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingLocked(key)
}

func (s *Store) settingLocked(key string) (string, error) {
	if s.conn == nil {
		return "", ErrClosed
	}
	var value string
	err := sqlitex.Execute(s.conn, `SELECT value FROM settings WHERE key = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				value = stmt.ColumnText(0)
				return nil
			},
		})
	if err != nil {
		return "", fmt.Errorf("unable to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a raw settings value.
func (s *Store) SetSetting(key, value string) error {
	if key == "" {
		return fmt.Errorf("unable to save setting: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSettingLocked(key, value)
}

func (s *Store) setSettingLocked(key, value string) error {
	if s.conn == nil {
		return ErrClosed
	}
	err := sqlitex.Execute(s.conn,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		&sqlitex.ExecOptions{Args: []any{key, value}})
	if err != nil {
		return fmt.Errorf("unable to save setting %s: %w", key, err)
	}
	return nil
}

// Reopen returns the reopen-at-last-position flag, def when unset or
// unreadable.
func (s *Store) Reopen(def bool) (bool, error) {
	raw, err := s.Setting(SettingReopen)
	if err != nil {
		return def, err
	}
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.log.Warn("ignoring malformed setting", zap.String("key", SettingReopen), zap.String("value", raw))
		return def, nil
	}
	return v, nil
}

func (s *Store) SetReopen(v bool) error {
	return s.SetSetting(SettingReopen, strconv.FormatBool(v))
}

// DisplayMode returns the stored default display mode, def when unset or
// unreadable.
func (s *Store) DisplayMode(def common.DisplayMode) (common.DisplayMode, error) {
	raw, err := s.Setting(SettingDisplayMode)
	if err != nil {
		return def, err
	}
	if raw == "" {
		return def, nil
	}
	mode, err := common.ParseDisplayMode(raw)
	if err != nil {
		s.log.Warn("ignoring malformed setting", zap.String("key", SettingDisplayMode), zap.String("value", raw))
		return def, nil
	}
	return mode, nil
}

func (s *Store) SetDisplayMode(mode common.DisplayMode) error {
	return s.SetSetting(SettingDisplayMode, mode.String())
}

// Theme returns the stored default theme, def when unset or unreadable.
func (s *Store) Theme(def common.Theme) (common.Theme, error) {
	raw, err := s.Setting(SettingTheme)
	if err != nil {
		return def, err
	}
	if raw == "" {
		return def, nil
	}
	theme, err := common.ParseTheme(raw)
	if err != nil {
		s.log.Warn("ignoring malformed setting", zap.String("key", SettingTheme), zap.String("value", raw))
		return def, nil
	}
	return theme, nil
}

func (s *Store) SetTheme(theme common.Theme) error {
	return s.SetSetting(SettingTheme, theme.String())
}

// KeyFor derives the store key for a document: the absolute file path
// when the document came from disk, a title slug otherwise.
func KeyFor(path, title string) string {
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	if s := slug.Make(title); s != "" {
		return "mem:" + s
	}
	return "mem:untitled"
}

// Nop is the no-op position store for sessions that should not persist
// anything.
type Nop struct{}

func (Nop) Location(string) (string, error)  { return "", nil }
func (Nop) SetLocation(string, string) error { return nil }
