package table

import (
	"log/slog"
	"sync"
)

// DefaultPreviewRows is the number of rows shown in a dataset preview.
const DefaultPreviewRows = 5

// Store holds the current table for one session.
type Store struct {
	mu     sync.RWMutex
	opts   Options
	logger *slog.Logger
	table  *Table
}

// NewStore creates an empty store.
func NewStore(opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{opts: opts, logger: logger}
}

// Load reads path and replaces the current table. On failure the previous
// table, if any, is kept.
func (s *Store) Load(path string) (*Table, error) {
	t, err := LoadFile(path, s.opts)
	if err != nil {
		s.logger.Warn("dataset load failed", "path", path, "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.table = t
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		"path", path,
		"rows", t.NumRows(),
		"columns", t.NumColumns())
	return t, nil
}

// Set replaces the current table with an already built one.
func (s *Store) Set(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

// Current returns the loaded table.
func (s *Store) Current() (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, &NotLoadedError{}
	}
	return s.table, nil
}

// Schema returns the column names and types of the loaded table.
func (s *Store) Schema() ([]ColumnInfo, error) {
	t, err := s.Current()
	if err != nil {
		return nil, err
	}
	return t.Schema(), nil
}

// Preview returns the column names and up to n leading rows.
func (s *Store) Preview(n int) ([]string, [][]any, error) {
	t, err := s.Current()
	if err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		n = DefaultPreviewRows
	}
	return t.ColumnNames(), t.Head(n), nil
}

// Loaded reports whether a table is present.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table != nil
}

// Clear discards the current table.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
}
