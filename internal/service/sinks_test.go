package service

import (
	"context"
	"errors"
	"testing"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/fakes"
)

func TestMultiSinkWritesEverySink(t *testing.T) {
	a, b := &fakes.Sink{}, &fakes.Sink{}
	rows := []domain.OutputRow{{RunID: "r"}, {RunID: "r"}}

	m := MultiSink{{Name: "a", RecordSink: a}, {Name: "b", RecordSink: b}}
	if err := m.Write(context.Background(), rows); err != nil {
		t.Fatal(err)
	}
	if len(a.Rows()) != 2 || len(b.Rows()) != 2 {
		t.Errorf("rows = %d, %d", len(a.Rows()), len(b.Rows()))
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.Closed() || !b.Closed() {
		t.Error("not every sink was closed")
	}
}

func TestMultiSinkStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakes.Sink{WriteErr: boom}, &fakes.Sink{}
	err := MultiSink{{Name: "a", RecordSink: a}, {Name: "b", RecordSink: b}}.Write(context.Background(), []domain.OutputRow{{}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if b.Writes() != 0 {
		t.Error("second sink written after first failed")
	}
}
