package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
	"commentharvest/internal/scroll"
)

// PageRunner harvests a single work item.
type PageRunner interface {
	Run(ctx context.Context, item domain.WorkItem) domain.PageResult
}

// Orchestrator walks the work list sequentially, checkpointing after every page.
type Orchestrator struct {
	runner    PageRunner
	store     ports.CheckpointStore
	sink      ports.RecordSink
	logger    *slog.Logger
	pageDelay time.Duration
	wait      scroll.WaitFunc
	now       func() time.Time
	runID     string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPageDelay sets the politeness pause between pages.
func WithPageDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.pageDelay = d }
}

// WithWait replaces the pause implementation.
func WithWait(w scroll.WaitFunc) Option {
	return func(o *Orchestrator) { o.wait = w }
}

// WithClock replaces time.Now for scraped_at stamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRunID pins the run identifier.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	runner PageRunner,
	store ports.CheckpointStore,
	sink ports.RecordSink,
	logger *slog.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		runner: runner,
		store:  store,
		sink:   sink,
		logger: logger,
		wait:   scroll.Sleep,
		now:    time.Now,
		runID:  uuid.New().String(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunID identifies this batch run in logs, rows and the checkpoint.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// RunAll processes items in order, skipping those already checkpointed.
// Per-page failures never stop the batch; only checkpoint or sink
// failures do. Cancelling ctx stops before the next page.
func (o *Orchestrator) RunAll(ctx context.Context, items []domain.WorkItem) (domain.Summary, error) {
	log := o.logger.With(slog.String("run_id", o.runID))
	agg := newAggregator(o.runID)

	state, err := o.store.Load(ctx)
	if err != nil {
		return agg.summary(), fmt.Errorf("failed to load checkpoint: %w", err)
	}
	log.Info("batch starting",
		slog.Int("items", len(items)),
		slog.Int("already_processed", len(state.Processed)),
	)

	for i, item := range items {
		if ctx.Err() != nil {
			agg.interrupted = true
			break
		}
		if state.Done(item.ID) {
			agg.skipped++
			log.Debug("skipping checkpointed page", slog.String("page_id", item.ID))
			continue
		}

		log.Info("processing page",
			slog.String("page_id", item.ID),
			slog.Int("position", item.Position),
			slog.Int("index", i+1),
			slog.Int("total", len(items)),
		)
		res := o.runner.Run(ctx, item)
		if ctx.Err() != nil && res.Status == domain.StatusFailed {
			log.Warn("interrupted, page left unprocessed", slog.String("page_id", item.ID))
			agg.interrupted = true
			break
		}

		// A finished page is persisted even if an interrupt arrives now.
		persist := context.WithoutCancel(ctx)
		if err := o.emit(persist, state, res); err != nil {
			return agg.summary(), err
		}
		agg.add(res)

		state.Record(item.ID, domain.CheckpointEntry{
			Status:      res.Status,
			Reason:      res.Reason,
			Records:     len(res.Records),
			CompletedAt: res.FinishedAt,
		})
		state.LastRunID = o.runID
		if err := o.store.Save(persist, state); err != nil {
			return agg.summary(), fmt.Errorf("failed to save checkpoint after %s: %w", item.ID, err)
		}
		log.Info("page checkpointed",
			slog.String("page_id", item.ID),
			slog.String("status", string(res.Status)),
			slog.Int("records", len(res.Records)),
			slog.Int("total_records", state.TotalRecords),
		)

		if i < len(items)-1 && o.pageDelay > 0 {
			if err := o.wait(ctx, o.pageDelay); err != nil {
				agg.interrupted = true
				break
			}
		}
	}

	summary := agg.summary()
	log.Info("batch finished",
		slog.Int("successful", summary.Successful),
		slog.Int("empty", summary.Empty),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("records", summary.TotalRecords),
		slog.Bool("interrupted", summary.Interrupted),
	)
	return summary, nil
}

// emit writes a page's records tagged with its metadata to every sink
// that does not already hold them. When a sink fails, the sinks written so
// far are recorded in the checkpoint so a rerun does not duplicate them.
func (o *Orchestrator) emit(ctx context.Context, state *domain.CheckpointState, res domain.PageResult) error {
	if len(res.Records) == 0 {
		return nil
	}
	id := res.Item.ID
	scrapedAt := o.now().UTC()
	rows := make([]domain.OutputRow, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, domain.OutputRow{
			Item:      res.Item,
			Record:    rec,
			RunID:     o.runID,
			ScrapedAt: scrapedAt,
		})
	}

	for _, t := range targets(o.sink) {
		if state.Wrote(id, t.Name) {
			o.logger.Info("rows already written by an earlier run",
				slog.String("page_id", id),
				slog.String("sink", t.Name),
			)
			continue
		}
		if err := t.Write(ctx, rows); err != nil {
			err = fmt.Errorf("failed to write %d rows for %s to %s: %w", len(rows), id, t.Name, err)
			if len(state.Written[id]) > 0 {
				if saveErr := o.store.Save(ctx, state); saveErr != nil {
					err = errors.Join(err, fmt.Errorf("failed to save partial write of %s: %w", id, saveErr))
				}
			}
			return err
		}
		state.MarkWritten(id, t.Name)
	}
	return nil
}
