package localstorage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"commentharvest/internal/core/domain"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// Columns is the output header, in order.
var Columns = []string{
	"video_no", "video_position", "video_date", "channel_name", "video_title", "video_url",
	"total_comments", "total_likes", "total_views",
	"comment_position", "comment_text", "author_name",
	"upvotes", "downvotes", "reply_count", "timestamp",
	"is_pinned", "is_hearted", "has_dislike_button",
	"scraped_at", "run_id",
}

// CSVSink appends output rows to one cumulative CSV file.
type CSVSink struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *csv.Writer
}

// NewCSVSink opens path for appending. The BOM and header are written
// only when the file is new or empty.
func NewCSVSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat output file %s: %w", path, err)
	}

	s := &CSVSink{path: path, file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if _, err := f.WriteString(utf8BOM); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write output header: %w", err)
		}
		if err := s.w.Write(Columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write output header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write output header: %w", err)
		}
	}
	return s, nil
}

// Path returns the output file location.
func (s *CSVSink) Path() string {
	return s.path
}

// Write appends rows and flushes them to disk.
func (s *CSVSink) Write(ctx context.Context, rows []domain.OutputRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		if err := s.w.Write(Record(row)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return s.file.Sync()
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Record renders one row in Columns order.
func Record(row domain.OutputRow) []string {
	it, r := row.Item, row.Record
	return []string{
		it.No,
		strconv.Itoa(it.Position),
		it.Date,
		it.Channel,
		it.Title,
		it.URL,
		it.Comments,
		it.Likes,
		it.Views,
		strconv.Itoa(r.Position),
		r.Text,
		r.Author,
		strconv.FormatInt(r.Upvotes, 10),
		strconv.FormatInt(r.Downvotes, 10),
		strconv.FormatInt(r.Replies, 10),
		r.Timestamp,
		strconv.FormatBool(r.Pinned),
		strconv.FormatBool(r.Hearted),
		strconv.FormatBool(r.HasDislike),
		row.ScrapedAt.Format(time.DateTime),
		row.RunID,
	}
}
