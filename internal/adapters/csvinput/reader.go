// Package csvinput reads the work list from a CSV export of video metadata.
package csvinput

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"commentharvest/internal/adapters/youtube"
	"commentharvest/internal/core/domain"
	"commentharvest/internal/normalize"
)

type column int

const (
	colNo column = iota
	colDate
	colChannel
	colTitle
	colURL
	colComments
	colLikes
	colViews
)

// aliases maps lower-cased header names to columns. The Korean names are
// those produced by the upstream video-list export.
var aliases = map[string]column{
	"no":           colNo,
	"no.":          colNo,
	"날짜":           colDate,
	"date":         colDate,
	"채널명":          colChannel,
	"channel":      colChannel,
	"제목":           colTitle,
	"title":        colTitle,
	"url":          colURL,
	"댓글 수":         colComments,
	"comments":     colComments,
	"좋아요 수":        colLikes,
	"likes":        colLikes,
	"조회수":          colViews,
	"views":        colViews,
	"video_url":    colURL,
	"video_title":  colTitle,
	"channel_name": colChannel,
}

// Source reads WorkItems from a CSV file and applies Filter.
type Source struct {
	path     string
	filter   Filter
	logger   *slog.Logger
	filtered int
}

// NewSource creates a Source for path.
func NewSource(path string, filter Filter, logger *slog.Logger) *Source {
	return &Source{path: path, filter: filter, logger: logger}
}

// Filtered returns how many rows the last Items call dropped by threshold.
func (s *Source) Filtered() int {
	return s.filtered
}

// Items reads the file and returns the items that pass the filter, in input order.
func (s *Source) Items(ctx context.Context) ([]domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open work list %s: %w", s.path, err)
	}
	defer f.Close()

	items, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read work list %s: %w", s.path, err)
	}
	s.logger.Info("loaded work list", slog.String("path", s.path), slog.Int("items", len(items)))

	kept, removed := s.filter.Apply(items)
	s.filtered = len(items) - len(kept)
	if s.filtered == 0 {
		s.logger.Info("no items filtered out")
	}
	for _, r := range removed {
		s.logger.Info("filter applied", slog.String("rule", r.Rule), slog.Int64("threshold", r.Threshold), slog.Int("removed", r.Removed))
	}
	if s.filtered > 0 {
		s.logger.Info("work list filtered", slog.Int("removed", s.filtered), slog.Int("remaining", len(kept)))
	}
	return kept, nil
}

// Parse reads WorkItems from r. Rows without a URL are skipped; their
// position is still counted.
func Parse(r io.Reader) ([]domain.WorkItem, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\ufeff" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	index := make(map[column]int)
	for i, name := range header {
		if c, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	if _, ok := index[colURL]; !ok {
		return nil, errors.New("no URL column in header")
	}

	var items []domain.WorkItem
	for pos := 1; ; pos++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		url := get(colURL)
		if url == "" {
			continue
		}
		items = append(items, domain.WorkItem{
			ID:       youtube.VideoID(url),
			URL:      url,
			Position: pos,
			No:       get(colNo),
			Date:     get(colDate),
			Channel:  get(colChannel),
			Title:    get(colTitle),
			Comments: get(colComments),
			Likes:    get(colLikes),
			Views:    get(colViews),
		})
	}
	return items, nil
}

// DeclaredCount parses a declared count such as "1,204" or "3 500".
// Unparseable or empty values are 0.
func DeclaredCount(s string) int64 {
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}
	v, ok := normalize.ParseDecimal(s)
	if !ok || v >= math.MaxInt64 {
		return 0
	}
	return int64(v)
}
