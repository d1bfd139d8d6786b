package fakes

import (
	"context"
	"sync"

	"commentharvest/internal/core/domain"
)

// Store is an in-memory ports.CheckpointStore that copies on load and save.
type Store struct {
	SaveErr error

	mu    sync.Mutex
	state *domain.CheckpointState
	saves int
}

// Seed installs an initial persisted state.
func (s *Store) Seed(state *domain.CheckpointState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = clone(state)
}

func (s *Store) Load(ctx context.Context) (*domain.CheckpointState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return domain.NewCheckpointState(), nil
	}
	return clone(s.state), nil
}

func (s *Store) Save(ctx context.Context, state *domain.CheckpointState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.saves++
	s.state = clone(state)
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Persisted returns a copy of the last saved state.
func (s *Store) Persisted() *domain.CheckpointState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return domain.NewCheckpointState()
	}
	return clone(s.state)
}

func clone(in *domain.CheckpointState) *domain.CheckpointState {
	out := *in
	out.Processed = make(map[string]domain.CheckpointEntry, len(in.Processed))
	for k, v := range in.Processed {
		out.Processed[k] = v
	}
	out.Written = nil
	for k, v := range in.Written {
		if out.Written == nil {
			out.Written = make(map[string][]string, len(in.Written))
		}
		out.Written[k] = append([]string(nil), v...)
	}
	return &out
}

// Sink collects rows in memory.
type Sink struct {
	WriteErr error

	mu     sync.Mutex
	rows   []domain.OutputRow
	writes int
	closed bool
}

func (s *Sink) Write(ctx context.Context, rows []domain.OutputRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.writes++
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Rows returns everything written so far.
func (s *Sink) Rows() []domain.OutputRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutputRow(nil), s.rows...)
}

// Writes counts Write calls.
func (s *Sink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Closed reports whether Close was called.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
