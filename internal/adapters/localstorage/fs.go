// Package localstorage persists checkpoint state and output rows on the
// local filesystem.
package localstorage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"commentharvest/internal/core/domain"
)

// CheckpointStore keeps CheckpointState as a JSON document.
type CheckpointStore struct {
	Path string
}

// NewCheckpointStore creates a store backed by path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{Path: path}
}

// Load reads the checkpoint. A missing file yields an empty state.
func (s *CheckpointStore) Load(ctx context.Context) (*domain.CheckpointState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewCheckpointState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", s.Path, err)
	}

	state := domain.NewCheckpointState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", s.Path, err)
	}
	if state.Processed == nil {
		state.Processed = make(map[string]domain.CheckpointEntry)
	}
	return state, nil
}

// Save replaces the checkpoint atomically.
func (s *CheckpointStore) Save(ctx context.Context, state *domain.CheckpointState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := writeAtomic(s.Path, data); err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", s.Path, err)
	}
	return nil
}

// Reset deletes the checkpoint file. A missing file is not an error.
func (s *CheckpointStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint %s: %w", s.Path, err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the destination directory and
// renames it over dest.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Chmod(tmpPath, 0644)
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
