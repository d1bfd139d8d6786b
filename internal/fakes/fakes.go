// Package fakes provides scripted stand-ins for the browser ports.
package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
)

// Step scripts one Extract call on a Page.
type Step struct {
	New   int   // comments revealed since the previous step
	Drift bool  // drift signal on this read
	Err   error // returned instead of a snapshot
}

// Page is a scripted ports.Page. Extract calls made through Extractor
// consume Steps in order; once exhausted the page stops growing.
type Page struct {
	URL       string
	TitleText string
	TitleErr  error
	WaitErr   error
	ScrollErr error
	Steps     []Step
	// Recycle limits each snapshot to the last N comments, like a virtual list.
	Recycle int

	mu       sync.Mutex
	revealed int
	extracts int
	scrolls  []ports.ScrollMode
	closed   int
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return p.WaitErr
}

func (p *Page) Title(ctx context.Context) (string, error) {
	return p.TitleText, p.TitleErr
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return "<html></html>", nil
}

func (p *Page) Eval(ctx context.Context, script string, out any) error {
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Extracts is the number of Extract calls served.
func (p *Page) Extracts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extracts
}

// Scrolls returns the scroll modes requested so far.
func (p *Page) Scrolls() []ports.ScrollMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.ScrollMode(nil), p.scrolls...)
}

// Closed is the number of Close calls.
func (p *Page) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) next() (domain.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var step Step
	if p.extracts < len(p.Steps) {
		step = p.Steps[p.extracts]
	}
	p.extracts++
	if step.Err != nil {
		return domain.Snapshot{}, step.Err
	}
	p.revealed += step.New

	first := 0
	if p.Recycle > 0 && p.revealed > p.Recycle {
		first = p.revealed - p.Recycle
	}
	comments := make([]domain.RawComment, 0, p.revealed-first)
	for i := first; i < p.revealed; i++ {
		comments = append(comments, Comment(i))
	}
	return domain.Snapshot{Comments: comments, Drifted: step.Drift}, nil
}

// Comment builds the i-th distinct raw comment.
func Comment(i int) domain.RawComment {
	return domain.RawComment{
		Author:    fmt.Sprintf("@user%d", i),
		Text:      fmt.Sprintf("comment %d", i),
		Timestamp: "1 day ago",
		Votes:     "2",
		Replies:   fmt.Sprintf("%d replies", i%2),
	}
}

// Extractor serves snapshots from the scripted Page it is handed.
type Extractor struct {
	Region string
}

func (e *Extractor) CommentRegion() string {
	if e.Region == "" {
		return "#comments"
	}
	return e.Region
}

func (e *Extractor) Approach(ctx context.Context, page ports.Page) error {
	return nil
}

func (e *Extractor) Scroll(ctx context.Context, page ports.Page, mode ports.ScrollMode) error {
	p := page.(*Page)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls = append(p.scrolls, mode)
	return p.ScrollErr
}

func (e *Extractor) Extract(ctx context.Context, page ports.Page) (domain.Snapshot, error) {
	return page.(*Page).next()
}

// Browser hands out pre-built Pages by URL.
type Browser struct {
	Pages   map[string]*Page
	OpenErr map[string]error

	mu     sync.Mutex
	opened []string
}

func (b *Browser) Open(ctx context.Context, pageURL string) (ports.Page, error) {
	b.mu.Lock()
	b.opened = append(b.opened, pageURL)
	b.mu.Unlock()

	if err := b.OpenErr[pageURL]; err != nil {
		return nil, err
	}
	p, ok := b.Pages[pageURL]
	if !ok {
		return nil, domain.NewPageUnavailable("no such page", nil)
	}
	return p, nil
}

// Opened lists the URLs opened, in order.
func (b *Browser) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

// NoWait skips pauses in tests.
func NoWait(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
