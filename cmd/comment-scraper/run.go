package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"commentharvest/internal/adapters/chromebrowser"
	"commentharvest/internal/adapters/csvinput"
	"commentharvest/internal/adapters/localstorage"
	"commentharvest/internal/adapters/postgres"
	"commentharvest/internal/adapters/youtube"
	"commentharvest/internal/config"
	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
	"commentharvest/internal/logging"
	"commentharvest/internal/scroll"
	"commentharvest/internal/service"
	"commentharvest/internal/session"
)

type runOptions struct {
	fresh            bool
	headless         bool
	chromePath       string
	outputDir        string
	databaseURL      string
	maxAttempts      int
	plateauTolerance int
	pageDelay        time.Duration
}

func newRunCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <videos.csv>",
		Short: "Scrape comments for every video in the CSV file",
		Example: `  comment-scraper run ./data/merged_youtube_data.csv
  comment-scraper run --headless=false --max-attempts 200 videos.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBatch(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], o.fresh)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.fresh, "fresh", false, "delete the checkpoint before running")
	f.BoolVar(&o.headless, "headless", true, "run Chrome without a window")
	f.StringVar(&o.chromePath, "chrome-path", "", "Chrome or Chromium executable")
	f.StringVarP(&o.outputDir, "output-dir", "o", "", "directory for the output CSV")
	f.StringVar(&o.databaseURL, "database-url", "", "also write comments to this PostgreSQL database")
	f.IntVar(&o.maxAttempts, "max-attempts", 0, "maximum scroll cycles per video")
	f.IntVar(&o.plateauTolerance, "plateau-tolerance", 0, "scrolls without new comments before the final attempt")
	f.DurationVar(&o.pageDelay, "page-delay", 0, "pause between videos")
	return cmd
}

// apply overrides cfg with the flags the user actually set.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("headless") {
		cfg.Browser.Headless = o.headless
	}
	if f.Changed("chrome-path") {
		cfg.Browser.ChromePath = o.chromePath
	}
	if f.Changed("output-dir") {
		cfg.Output.Dir = o.outputDir
	}
	if f.Changed("database-url") {
		cfg.Output.DatabaseURL = o.databaseURL
	}
	if f.Changed("max-attempts") {
		cfg.Scroll.MaxAttempts = o.maxAttempts
	}
	if f.Changed("plateau-tolerance") {
		cfg.Scroll.PlateauTolerance = o.plateauTolerance
	}
	if f.Changed("page-delay") {
		cfg.Batch.PageDelay = config.Duration(o.pageDelay)
	}
}

func runBatch(ctx context.Context, out io.Writer, cfg *config.Config, input string, fresh bool) error {
	logger, logCloser, err := logging.New(os.Stderr, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return domain.NewConfigurationError(err)
	}
	defer logCloser.Close()
	if err := cfg.EnvFileError(); err != nil {
		logger.Debug("no .env file loaded", slog.Any("error", err))
	}

	store := localstorage.NewCheckpointStore(cfg.Batch.CheckpointPath)
	if fresh {
		if err := store.Reset(ctx); err != nil {
			return err
		}
		logger.Info("checkpoint reset", slog.String("path", cfg.Batch.CheckpointPath))
	}

	source := csvinput.NewSource(input, cfg.InputFilter(), logger)
	items, err := source.Items(ctx)
	if err != nil {
		return err
	}

	sink, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("failed to close output", slog.Any("error", err))
		}
	}()

	browser, err := chromebrowser.New(ctx, cfg.BrowserOptions(), logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	extractor := youtube.NewExtractor(youtube.DefaultSelectors(), cfg.ExtractorOptions(), scroll.Sleep)
	engine := scroll.NewEngine(cfg.ScrollConfig(), extractor, logger)
	runner := session.NewRunner(browser, extractor, engine, cfg.SessionConfig(), logger)
	orchestrator := service.NewOrchestrator(runner, store, sink, logger,
		service.WithPageDelay(cfg.Batch.PageDelay.Std()),
	)

	summary, err := orchestrator.RunAll(ctx, items)
	summary.Filtered = source.Filtered()
	printSummary(out, summary, cfg.OutputPath())
	return err
}

func openSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.RecordSink, error) {
	csvSink, err := localstorage.NewCSVSink(cfg.OutputPath())
	if err != nil {
		return nil, err
	}
	if cfg.Output.DatabaseURL == "" {
		return csvSink, nil
	}
	pg, err := postgres.New(ctx, cfg.Output.DatabaseURL)
	if err != nil {
		csvSink.Close()
		return nil, err
	}
	logger.Info("writing comments to postgres as well")
	return service.MultiSink{
		{Name: "csv", RecordSink: csvSink},
		{Name: "postgres", RecordSink: pg},
	}, nil
}

func printSummary(w io.Writer, s domain.Summary, outputPath string) {
	fmt.Fprintln(w, "\n=== Scraping Summary ===")
	fmt.Fprintf(w, "Run ID:              %s\n", s.RunID)
	fmt.Fprintf(w, "Total comments:      %d\n", s.TotalRecords)
	fmt.Fprintf(w, "Successful videos:   %d\n", s.Successful)
	fmt.Fprintf(w, "Empty videos:        %d\n", s.Empty)
	fmt.Fprintf(w, "Failed videos:       %d\n", s.Failed)
	fmt.Fprintf(w, "Skipped (resumed):   %d\n", s.Skipped)
	fmt.Fprintf(w, "Filtered out:        %d\n", s.Filtered)
	fmt.Fprintf(w, "Unique authors:      %d\n", s.UniqueAuthors)
	fmt.Fprintf(w, "Total upvotes:       %d\n", s.TotalUpvotes)
	fmt.Fprintf(w, "Comments w/ replies: %d\n", s.CommentsWithReplies)
	fmt.Fprintf(w, "Videos w/ replies:   %d\n", s.PagesWithReplies)
	fmt.Fprintf(w, "Avg comments/video:  %.1f\n", s.AverageComments())
	fmt.Fprintf(w, "Output:              %s\n", outputPath)
	if s.Interrupted {
		fmt.Fprintln(w, "Run interrupted; rerun the same command to resume.")
	}
}
