// Package youtube adapts the video site's watch page to the extraction port.
package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
)

// Options tunes scrolling on the watch page.
type Options struct {
	ScrollDelta      int // px past the last comment for a gentle scroll
	FinalScrollDelta int // px for the aggressive scroll
	ApproachScrolls  int
	ApproachStep     int // px per approach scroll
	ApproachPause    time.Duration
}

// DefaultOptions mirrors what works on the live site.
func DefaultOptions() Options {
	return Options{
		ScrollDelta:      800,
		FinalScrollDelta: 3000,
		ApproachScrolls:  5,
		ApproachStep:     500,
		ApproachPause:    time.Second,
	}
}

// Extractor implements ports.Extractor for watch pages.
type Extractor struct {
	sel   Selectors
	opts  Options
	pause func(ctx context.Context, d time.Duration) error
}

// NewExtractor creates an Extractor. pause is used between approach scrolls.
func NewExtractor(sel Selectors, opts Options, pause func(ctx context.Context, d time.Duration) error) *Extractor {
	return &Extractor{sel: sel, opts: opts, pause: pause}
}

func (e *Extractor) CommentRegion() string {
	return e.sel.Thread
}

// Approach scrolls down in small steps so the lazily mounted comment
// section gets rendered, then centers it.
func (e *Extractor) Approach(ctx context.Context, page ports.Page) error {
	for i := 0; i < e.opts.ApproachScrolls; i++ {
		if err := page.Eval(ctx, fmt.Sprintf("window.scrollBy(0, %d)", e.opts.ApproachStep), nil); err != nil {
			return err
		}
		if err := e.pause(ctx, e.opts.ApproachPause); err != nil {
			return err
		}
	}
	return page.Eval(ctx, centerScript(e.sel.Section), nil)
}

func (e *Extractor) Scroll(ctx context.Context, page ports.Page, mode ports.ScrollMode) error {
	script := gentleScript(e.sel.Thread, e.opts.ScrollDelta)
	if mode == ports.ScrollAggressive {
		script = aggressiveScript(e.sel.Thread, e.sel.Continuation, e.opts.FinalScrollDelta)
	}
	return page.Eval(ctx, script, nil)
}

func (e *Extractor) Extract(ctx context.Context, page ports.Page) (domain.Snapshot, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return e.Parse(html)
}

// Parse reads comments and the drift signal out of a serialized DOM.
func (e *Extractor) Parse(html string) (domain.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Snapshot{}, domain.NewExtractionFault("parsing page HTML", err)
	}

	var snap domain.Snapshot
	doc.Find(e.sel.Thread).Each(func(_ int, thread *goquery.Selection) {
		snap.Comments = append(snap.Comments, e.comment(thread))
	})
	snap.Drifted = e.drifted(doc)
	return snap, nil
}

func (e *Extractor) comment(thread *goquery.Selection) domain.RawComment {
	// Replies render inside the thread with the same ids; only the first
	// #comment is the top-level one.
	main := thread.Find(e.sel.Comment).First()
	if main.Length() == 0 {
		main = thread
	}
	return domain.RawComment{
		Text:       text(main, e.sel.Text),
		Author:     text(main, e.sel.Author),
		Votes:      text(main, e.sel.Votes),
		Replies:    text(thread, e.sel.Replies),
		Timestamp:  text(main, e.sel.Published),
		Pinned:     main.Find(e.sel.Pinned).Length() > 0,
		Hearted:    main.Find(e.sel.Hearted).Length() > 0,
		HasDislike: main.Find(e.sel.Dislike).Length() > 0,
	}
}

// drifted reports related content below the last comment thread, within
// the column holding the comments, while no continuation is pending.
func (e *Extractor) drifted(doc *goquery.Document) bool {
	if doc.Find(e.sel.Continuation).Length() > 0 {
		return false
	}
	scope := doc.Find(e.sel.Scope).First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	relatedAfter := false
	scope.Find(e.sel.Thread + ", " + e.sel.Related).Each(func(_ int, s *goquery.Selection) {
		relatedAfter = !s.Is(e.sel.Thread)
	})
	return relatedAfter
}

func text(s *goquery.Selection, selector string) string {
	return strings.Join(strings.Fields(s.Find(selector).First().Text()), " ")
}
