// Package memory is an in-process TableReader, used for demos and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"rewards/internal/core"
	"rewards/internal/source"
)

type Store struct {
	mu    sync.Mutex
	table core.Table
	err   error
}

var _ source.TableReader = (*Store)(nil)

func New(tbl core.Table) *Store {
	return &Store{table: slices.Clone(tbl)}
}

// Set replaces the stored table and clears any failure.
func (s *Store) Set(tbl core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = slices.Clone(tbl)
	s.err = nil
}

// Fail makes every following ReadTable return err.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ReadTable returns a copy so callers never share the backing array.
func (s *Store) ReadTable(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.table), nil
}

func (s *Store) Name() string {
	return "memory"
}
