// Package store keeps an ordered list of named records backed by a
// single JSON file. Mutations are in-memory only; callers flush them
// with Save.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Record is one named entry in a store.
type Record interface {
	// RecordName is the case-insensitive lookup key.
	RecordName() string
	// Detail is the secondary field shown next to the name in
	// selection lists.
	Detail() string
}

// PathProvider resolves the absolute path of the backing file.
type PathProvider interface {
	Path() (string, error)
}

// FixedPath is a PathProvider that always returns itself.
type FixedPath string

// Path returns p, or an error wrapping os.ErrInvalid if p is empty.
func (p FixedPath) Path() (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty settings path: %w", os.ErrInvalid)
	}
	return string(p), nil
}

// Opener shows a file to the user, typically in an editor.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// PickItem is the display projection of a record.
type PickItem struct {
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// ParseError reports a backing file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

// Error names the file and the decoder failure.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

// Store owns the ordered record sequence and its backing file.
// It is not safe for concurrent use.
type Store[R Record] struct {
	path       string
	items      []R
	fromLegacy func(legacyEntry) R
	log        *zap.Logger
}

func newStore[R Record](
	pp PathProvider, fromLegacy func(legacyEntry) R, log *zap.Logger,
) (*Store[R], error) {
	if pp == nil {
		return nil, fmt.Errorf("path provider is nil: %w", os.ErrInvalid)
	}
	path, err := pp.Path()
	if err != nil {
		return nil, fmt.Errorf("resolving settings path: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store[R]{
		path:       path,
		items:      []R{},
		fromLegacy: fromLegacy,
		log:        log.With(zap.String("path", path)),
	}, nil
}

// Path returns the resolved backing file path.
func (s *Store[R]) Path() string {
	return s.path
}

// Add appends r. Names are not checked for uniqueness.
func (s *Store[R]) Add(r R) {
	s.items = append(s.items, r)
}

// Remove deletes the first record whose name matches name
// case-insensitively and returns it.
func (s *Store[R]) Remove(name string) (R, bool) {
	i := s.index(name)
	if i < 0 {
		var zero R
		return zero, false
	}
	r := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return r, true
}

// Exists reports whether any record matches name case-insensitively.
func (s *Store[R]) Exists(name string) bool {
	return s.index(name) >= 0
}

// Get returns the first record matching name.
func (s *Store[R]) Get(name string) (R, bool) {
	i := s.index(name)
	if i < 0 {
		var zero R
		return zero, false
	}
	return s.items[i], true
}

// Len returns the number of records.
func (s *Store[R]) Len() int {
	return len(s.items)
}

// Records returns a copy of the sequence in insertion order.
func (s *Store[R]) Records() []R {
	out := make([]R, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[R]) index(name string) int {
	for i, r := range s.items {
		if strings.EqualFold(r.RecordName(), name) {
			return i
		}
	}
	return -1
}

// Load replaces the sequence with the file contents.
//
// A missing file is first-run state: the sequence is emptied and the
// file is created. A file that fails to decode yields a *ParseError and
// leaves the sequence as it was. Legacy documents are migrated and
// written back.
func (s *Store[R]) Load() error {
	return s.read(false)
}

// Reload re-reads the file like Load but reports nothing: migrations
// are silent and errors come back unwrapped for the caller to treat as
// fatal.
func (s *Store[R]) Reload() error {
	err := s.read(true)
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func (s *Store[R]) read(quiet bool) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.items = []R{}
		return s.Save()
	}
	if err != nil {
		return fmt.Errorf("reading settings file: %w", err)
	}

	items, migrated, err := decode(data, s.fromLegacy)
	if err != nil {
		if !quiet {
			s.log.Warn("settings file is not valid", zap.Error(err))
		}
		return &ParseError{Path: s.path, Err: err}
	}
	s.items = items

	if migrated {
		if !quiet {
			s.log.Info("migrating legacy settings format",
				zap.Int("records", len(items)))
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving migrated settings: %w", err)
		}
	}
	return nil
}

// Save rewrites the whole backing file as tab-indented JSON. The
// content is written to a temp file and renamed into place.
func (s *Store[R]) Save() error {
	items := s.items
	if items == nil {
		items = []R{}
	}
	data, err := json.MarshalIndent(items, "", "\t")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.log.Debug("settings saved", zap.Int("records", len(items)))
	return nil
}

// Map projects every record to a PickItem, in order.
func (s *Store[R]) Map() []PickItem {
	out := make([]PickItem, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, PickItem{
			Label:       r.RecordName(),
			Description: r.Detail(),
		})
	}
	return out
}

// Open asks o to show the backing file.
func (s *Store[R]) Open(ctx context.Context, o Opener) error {
	if o == nil {
		return fmt.Errorf("opener is nil: %w", os.ErrInvalid)
	}
	return o.Open(ctx, s.path)
}

// exists reports whether the backing file is present.
func (s *Store[R]) exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
