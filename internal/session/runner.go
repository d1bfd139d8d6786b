// Package session owns the lifecycle of a single page: open, wait for the
// comment region, scroll to completion, close.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
	"commentharvest/internal/scroll"
)

// ReasonUnavailable is recorded when neither comments nor a title appeared.
const ReasonUnavailable = "page unavailable"

// Config holds the per-page timing knobs.
type Config struct {
	FirstContentTimeout time.Duration
	PageLoadWait        time.Duration
}

// Runner processes one WorkItem at a time and never panics or returns an
// error: every outcome is folded into the PageResult.
type Runner struct {
	browser   ports.Browser
	extractor ports.Extractor
	engine    *scroll.Engine
	cfg       Config
	wait      scroll.WaitFunc
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithWait replaces the page-load pause.
func WithWait(w scroll.WaitFunc) Option {
	return func(r *Runner) { r.wait = w }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner.
func NewRunner(browser ports.Browser, extractor ports.Extractor, engine *scroll.Engine, cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		browser:   browser,
		extractor: extractor,
		engine:    engine,
		cfg:       cfg,
		wait:      scroll.Sleep,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run harvests item. The page handle is closed on every path.
func (r *Runner) Run(ctx context.Context, item domain.WorkItem) (res domain.PageResult) {
	log := r.logger.With(slog.String("page_id", item.ID))
	res = domain.PageResult{Item: item, StartedAt: r.now()}

	defer func() {
		res.FinishedAt = r.now()
		attrs := []any{
			slog.String("status", string(res.Status)),
			slog.Int("records", len(res.Records)),
			slog.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
		}
		if res.Status == domain.StatusFailed {
			log.Warn("page failed", append(attrs, slog.String("reason", res.Reason))...)
			return
		}
		log.Info("page finished", append(attrs, slog.String("stop_state", res.StopState))...)
	}()
	defer func() {
		if p := recover(); p != nil {
			res.Status = domain.StatusFailed
			res.Reason = fmt.Sprintf("panic: %v", p)
		}
	}()

	log.Info("opening page", slog.String("url", item.URL))
	page, err := r.browser.Open(ctx, item.URL)
	if err != nil {
		return failed(res, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("closing page", slog.Any("error", err))
		}
	}()

	if r.cfg.PageLoadWait > 0 {
		if err := r.wait(ctx, r.cfg.PageLoadWait); err != nil {
			return failed(res, err)
		}
	}

	if err := r.extractor.Approach(ctx, page); err != nil {
		if ctx.Err() != nil || domain.IsKind(err, domain.FaultHandle) {
			return failed(res, err)
		}
		log.Debug("approaching comment region", slog.Any("error", err))
	}

	err = page.WaitFor(ctx, r.extractor.CommentRegion(), r.cfg.FirstContentTimeout)
	switch {
	case errors.Is(err, domain.ErrWaitTimeout):
		return r.classifyMissingRegion(ctx, page, res)
	case err != nil:
		return failed(res, err)
	}

	out, err := r.engine.With(log).Run(ctx, page)
	res.Records = out.Records
	res.StopState = string(out.State)
	if err != nil {
		return failed(res, err)
	}
	res.Status = domain.StatusSuccess
	return res
}

// classifyMissingRegion separates a loaded page without comments from a
// page that never loaded at all.
func (r *Runner) classifyMissingRegion(ctx context.Context, page ports.Page, res domain.PageResult) domain.PageResult {
	title, err := page.Title(ctx)
	if err == nil && strings.TrimSpace(title) != "" {
		res.Status = domain.StatusEmpty
		return res
	}
	return failed(res, domain.NewPageUnavailable(ReasonUnavailable, err))
}

func failed(res domain.PageResult, err error) domain.PageResult {
	res.Status = domain.StatusFailed
	res.Reason = err.Error()
	var f *domain.Fault
	if errors.As(err, &f) && f.Kind == domain.FaultPageUnavailable {
		res.Reason = f.Message
		if f.Cause != nil {
			res.Reason += ": " + f.Cause.Error()
		}
	}
	return res
}
