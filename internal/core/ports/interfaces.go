package ports

import (
	"context"
	"time"

	"commentharvest/internal/core/domain"
)

// Browser opens page handles on a shared rendering engine.
type Browser interface {
	// Open creates a new page and navigates it to pageURL.
	// The caller owns the returned Page and must Close it.
	Open(ctx context.Context, pageURL string) (Page, error)
}

// Page is one open, renderable instance of a target page.
type Page interface {
	// WaitFor blocks until selector matches or timeout elapses.
	// It returns domain.ErrWaitTimeout when the element never appeared.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Title returns the document title.
	Title(ctx context.Context) (string, error)

	// HTML returns the serialized current DOM.
	HTML(ctx context.Context) (string, error)

	// Eval runs a script in the page and decodes its result into out (which may be nil).
	Eval(ctx context.Context, script string, out any) error

	// Close releases the page. Safe to call more than once.
	Close() error
}

// ScrollMode selects how far a scroll action reaches.
type ScrollMode int

const (
	// ScrollGentle advances toward the bottom of the known comment region.
	ScrollGentle ScrollMode = iota
	// ScrollAggressive uses a larger delta and triggers pending loaders.
	ScrollAggressive
)

func (m ScrollMode) String() string {
	if m == ScrollAggressive {
		return "aggressive"
	}
	return "gentle"
}

// Extractor isolates the site-specific markup: where comments live,
// how to reach them and what marks the end of the comment region.
type Extractor interface {
	// CommentRegion is the selector that marks the comment region as rendered.
	CommentRegion() string

	// Approach nudges the viewport toward the comment region so the site renders it.
	Approach(ctx context.Context, page Page) error

	// Scroll performs one scroll action.
	Scroll(ctx context.Context, page Page, mode ScrollMode) error

	// Extract reads the current DOM. It neither scrolls nor waits.
	Extract(ctx context.Context, page Page) (domain.Snapshot, error)
}

// CheckpointStore persists resume state.
type CheckpointStore interface {
	Load(ctx context.Context) (*domain.CheckpointState, error)
	Save(ctx context.Context, state *domain.CheckpointState) error
	Reset(ctx context.Context) error
}

// RecordSink receives output rows for one page at a time.
type RecordSink interface {
	Write(ctx context.Context, rows []domain.OutputRow) error
	Close() error
}

// WorkSource yields the ordered work list.
type WorkSource interface {
	Items(ctx context.Context) ([]domain.WorkItem, error)
}
