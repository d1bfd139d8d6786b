// Package scroll drives a page through scroll-and-wait cycles until its
// comment region is exhausted or the viewport drifts into unrelated content.
package scroll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
	"commentharvest/internal/normalize"
)

// State is a position in the completion state machine.
type State string

const (
	StateLoading          State = "LOADING"
	StatePlateauSuspected State = "PLATEAU_SUSPECTED"
	StateFinalAttempt     State = "FINAL_ATTEMPT"
	StateDone             State = "DONE"
	StateDrifted          State = "DRIFTED"
)

// Terminal reports whether no further cycles run from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateDrifted
}

// Config tunes the engine. Values are validated by the config package.
type Config struct {
	MaxAttempts       int           // A_max; no gentle cycle starts once this many cycles have run
	PlateauTolerance  int           // P, no-growth cycles before the final attempt
	Wait              time.Duration // D, pause after a gentle scroll
	FinalWait         time.Duration // pause after the aggressive scroll
	SlowLoadThreshold int           // record count after which waits grow; 0 disables
	SlowLoadExtraWait time.Duration
}

// WaitFunc pauses for d or until ctx ends.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Result is what a completed run collected.
type Result struct {
	Records []domain.CommentRecord
	State   State
	Cycles  int // scroll actions performed, final attempts included
}

// Engine runs the completion state machine against one page at a time.
type Engine struct {
	cfg       Config
	extractor ports.Extractor
	wait      WaitFunc
	logger    *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWait replaces the pause between scroll and extraction.
func WithWait(w WaitFunc) Option {
	return func(e *Engine) { e.wait = w }
}

// NewEngine creates an Engine.
func NewEngine(cfg Config, extractor ports.Extractor, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		extractor: extractor,
		wait:      Sleep,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of e that logs through logger.
func (e *Engine) With(logger *slog.Logger) *Engine {
	c := *e
	c.logger = logger
	return &c
}

// run carries the mutable state of one page.
type run struct {
	page     ports.Page
	norm     *normalize.Normalizer
	records  []domain.CommentRecord
	state    State
	noGrowth int
	cycles   int
}

func (r *run) result() Result {
	return Result{Records: r.records, State: r.state, Cycles: r.cycles}
}

// Run scrolls page until a terminal state is reached. Records collected
// before an error are returned alongside it.
func (e *Engine) Run(ctx context.Context, page ports.Page) (Result, error) {
	r := &run{page: page, norm: normalize.New(), state: StateLoading}

	snap, err := e.observe(ctx, r)
	if err != nil {
		return r.result(), err
	}
	r.records = append(r.records, r.norm.Normalize(snap.Comments)...)
	e.logger.Debug("initial comment read", slog.Int("records", len(r.records)))
	if snap.Drifted {
		r.state = StateDrifted
	}

	for !r.state.Terminal() {
		if err := e.step(ctx, r); err != nil {
			return r.result(), err
		}
	}

	e.logger.Info("scroll completed",
		slog.String("state", string(r.state)),
		slog.Int("cycles", r.cycles),
		slog.Int("records", len(r.records)),
	)
	return r.result(), nil
}

func (e *Engine) step(ctx context.Context, r *run) error {
	switch r.state {
	case StateLoading:
		if r.cycles >= e.cfg.MaxAttempts {
			e.logger.Info("scroll attempts exhausted", slog.Int("max_attempts", e.cfg.MaxAttempts))
			r.state = StateDone
			return nil
		}
		added, drifted, err := e.cycle(ctx, r, ports.ScrollGentle, e.gentleWait(len(r.records)))
		if err != nil {
			return err
		}
		switch {
		case drifted:
			r.state = StateDrifted
		case added > 0:
			r.noGrowth = 0
		default:
			r.noGrowth++
			if r.noGrowth >= e.cfg.PlateauTolerance {
				r.state = StatePlateauSuspected
			}
		}

	case StatePlateauSuspected:
		e.logger.Debug("plateau suspected", slog.Int("no_growth", r.noGrowth))
		r.state = StateFinalAttempt

	case StateFinalAttempt:
		added, drifted, err := e.cycle(ctx, r, ports.ScrollAggressive, e.cfg.FinalWait)
		if err != nil {
			return err
		}
		switch {
		case drifted:
			r.state = StateDrifted
		case added > 0:
			e.logger.Debug("final attempt found more comments", slog.Int("added", added))
			r.noGrowth = 0
			r.state = StateLoading
		default:
			r.state = StateDone
		}
	}
	return nil
}

// cycle performs scroll, wait, extract and normalize. Transient faults
// count as a cycle without growth.
func (e *Engine) cycle(ctx context.Context, r *run, mode ports.ScrollMode, wait time.Duration) (int, bool, error) {
	r.cycles++

	if err := e.extractor.Scroll(ctx, r.page, mode); err != nil {
		if fatal(ctx, err) {
			return 0, false, err
		}
		e.logger.Debug("scroll failed", slog.String("mode", mode.String()), slog.Any("error", err))
	}

	if err := e.wait(ctx, wait); err != nil {
		return 0, false, err
	}

	snap, err := e.observe(ctx, r)
	if err != nil {
		return 0, false, err
	}
	fresh := r.norm.Normalize(snap.Comments)
	r.records = append(r.records, fresh...)

	e.logger.Debug("scroll cycle",
		slog.Int("cycle", r.cycles),
		slog.String("mode", mode.String()),
		slog.Int("added", len(fresh)),
		slog.Int("records", len(r.records)),
		slog.Bool("drifted", snap.Drifted),
	)
	return len(fresh), snap.Drifted, nil
}

// observe extracts the current DOM, folding transient faults into an empty snapshot.
func (e *Engine) observe(ctx context.Context, r *run) (domain.Snapshot, error) {
	snap, err := e.extractor.Extract(ctx, r.page)
	if err == nil {
		return snap, nil
	}
	if fatal(ctx, err) {
		return domain.Snapshot{}, err
	}
	e.logger.Debug("extraction fault ignored", slog.Any("error", err))
	return domain.Snapshot{}, nil
}

func (e *Engine) gentleWait(records int) time.Duration {
	if e.cfg.SlowLoadThreshold > 0 && records > e.cfg.SlowLoadThreshold {
		return e.cfg.Wait + e.cfg.SlowLoadExtraWait
	}
	return e.cfg.Wait
}

// fatal reports whether err leaves the page unusable.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return true
	}
	return domain.IsKind(err, domain.FaultHandle)
}
