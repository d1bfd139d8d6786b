package localstorage

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"commentharvest/internal/core/domain"
)

func outputRow(pos int, text string) domain.OutputRow {
	return domain.OutputRow{
		Item: domain.WorkItem{
			ID: "abc", URL: "https://www.youtube.com/watch?v=abc", Position: 4,
			No: "4", Date: "2024-01-02", Channel: "chan", Title: "a, \"quoted\" title",
			Comments: "1,204", Likes: "300", Views: "10K",
		},
		Record: domain.CommentRecord{
			Text: text, Author: "@someone", Upvotes: 1200, Replies: 3,
			Timestamp: "2 weeks ago", Pinned: pos == 1, HasDislike: true, Position: pos,
		},
		RunID:     "run-1",
		ScrapedAt: time.Date(2026, 10, 18, 8, 5, 0, 0, time.UTC),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte(utf8BOM)) {
		t.Fatal("output does not start with a BOM")
	}
	if n := bytes.Count(data, []byte(utf8BOM)); n != 1 {
		t.Fatalf("output holds %d BOMs, want 1", n)
	}
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return records
}

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "comments.csv")
	sink, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	rows := []domain.OutputRow{outputRow(1, "first\nline two"), outputRow(2, "second")}
	if err := sink.Write(context.Background(), rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(Columns, ",") {
		t.Errorf("header = %v", records[0])
	}
	want := []string{
		"4", "4", "2024-01-02", "chan", "a, \"quoted\" title", "https://www.youtube.com/watch?v=abc",
		"1,204", "300", "10K", "1", "first\nline two", "@someone",
		"1200", "0", "3", "2 weeks ago", "true", "false", "true",
		"2026-10-18 08:05:00", "run-1",
	}
	if strings.Join(records[1], "|") != strings.Join(want, "|") {
		t.Errorf("row = %q\nwant  %q", records[1], want)
	}
}

func TestCSVSinkAppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.csv")
	for i, text := range []string{"run one", "run two"} {
		sink, err := NewCSVSink(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := sink.Write(context.Background(), []domain.OutputRow{outputRow(i+1, text)}); err != nil {
			t.Fatal(err)
		}
		if err := sink.Close(); err != nil {
			t.Fatal(err)
		}
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	if records[1][10] != "run one" || records[2][10] != "run two" {
		t.Errorf("comment_text column = %q, %q", records[1][10], records[2][10])
	}
}

func TestCSVSinkCancelledContext(t *testing.T) {
	sink, err := NewCSVSink(filepath.Join(t.TempDir(), "comments.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Write(ctx, []domain.OutputRow{outputRow(1, "x")}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRecordCarriesInputPosition(t *testing.T) {
	row := outputRow(1, "x")
	row.Item.No = ""
	row.Item.Position = 42

	rec := Record(row)
	if len(rec) != len(Columns) {
		t.Fatalf("record has %d fields, header has %d", len(rec), len(Columns))
	}
	for i, col := range Columns {
		if col == "video_position" && rec[i] != "42" {
			t.Errorf("video_position = %q, want 42", rec[i])
		}
	}
}
