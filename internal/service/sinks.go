package service

import (
	"context"
	"errors"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
)

// NamedSink labels a sink so the checkpoint can remember which
// destinations already hold a page's rows.
type NamedSink struct {
	Name string
	ports.RecordSink
}

// MultiSink writes every batch of rows to each sink in order.
type MultiSink []NamedSink

// Write stops at the first failing sink.
func (m MultiSink) Write(ctx context.Context, rows []domain.OutputRow) error {
	for _, s := range m {
		if err := s.Write(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// targets splits sink into its named destinations.
func targets(sink ports.RecordSink) []NamedSink {
	if m, ok := sink.(MultiSink); ok {
		return m
	}
	return []NamedSink{{Name: "output", RecordSink: sink}}
}
