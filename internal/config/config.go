// Package config loads settings from a TOML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"commentharvest/internal/adapters/chromebrowser"
	"commentharvest/internal/adapters/csvinput"
	"commentharvest/internal/adapters/youtube"
	"commentharvest/internal/core/domain"
	"commentharvest/internal/scroll"
	"commentharvest/internal/session"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "comment-scraper.toml"

// Duration is a time.Duration written as "2s" or "750ms" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Browser struct {
		Headless      bool   `toml:"headless"`
		ChromePath    string `toml:"chrome_path"`
		DisableImages bool   `toml:"disable_images"`
		UserAgent     string `toml:"user_agent"`
	} `toml:"browser"`

	Scroll struct {
		MaxAttempts       int      `toml:"max_attempts"`
		PlateauTolerance  int      `toml:"plateau_tolerance"`
		Wait              Duration `toml:"wait"`
		ScrollDelta       int      `toml:"scroll_delta"`
		FinalScrollDelta  int      `toml:"final_scroll_delta"`
		FinalWait         Duration `toml:"final_wait"`
		SlowLoadThreshold int      `toml:"slow_load_threshold"`
		SlowLoadExtraWait Duration `toml:"slow_load_extra_wait"`
	} `toml:"scroll"`

	Session struct {
		FirstContentTimeout Duration `toml:"first_content_timeout"`
		PageLoadWait        Duration `toml:"page_load_wait"`
		ApproachScrolls     int      `toml:"approach_scrolls"`
	} `toml:"session"`

	Batch struct {
		PageDelay      Duration `toml:"page_delay"`
		CheckpointPath string   `toml:"checkpoint_path"`
	} `toml:"batch"`

	Output struct {
		Dir         string `toml:"dir"`
		File        string `toml:"file"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"output"`

	Filter struct {
		MinComments int64 `toml:"min_comments"`
		MinLikes    int64 `toml:"min_likes"`
		MinViews    int64 `toml:"min_views"`
		MaxComments int64 `toml:"max_comments"`
		MaxLikes    int64 `toml:"max_likes"`
		MaxViews    int64 `toml:"max_views"`
	} `toml:"filter"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
	} `toml:"log"`

	envErr error
}

// EnvFileError is the error from loading .env, nil when it was read.
func (c *Config) EnvFileError() error {
	return c.envErr
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{}
	cfg.Browser.Headless = true
	cfg.Browser.DisableImages = true

	cfg.Scroll.MaxAttempts = 1000
	cfg.Scroll.PlateauTolerance = 1
	cfg.Scroll.Wait = Duration(2 * time.Second)
	cfg.Scroll.ScrollDelta = 800
	cfg.Scroll.FinalScrollDelta = 3000
	cfg.Scroll.FinalWait = Duration(4 * time.Second)
	cfg.Scroll.SlowLoadThreshold = 100
	cfg.Scroll.SlowLoadExtraWait = Duration(time.Second)

	cfg.Session.FirstContentTimeout = Duration(10 * time.Second)
	cfg.Session.PageLoadWait = Duration(3 * time.Second)
	cfg.Session.ApproachScrolls = 5

	cfg.Batch.PageDelay = Duration(2 * time.Second)
	cfg.Batch.CheckpointPath = filepath.Join("comments_data", "progress.json")

	cfg.Output.Dir = "comments_data"
	cfg.Output.File = "youtube_comments.csv"

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load layers defaults, the TOML file at path, .env and the environment.
// A missing file is not an error unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	// A missing .env is fine; variables may be set directly.
	cfg.envErr = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, domain.NewConfigurationError(fmt.Errorf("parse %s: %w", path, err))
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, domain.NewConfigurationError(err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SCRAPER_HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCRAPER_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	if v, ok := lookup("SCRAPER_CHROME_PATH"); ok && v != "" {
		c.Browser.ChromePath = v
	}
	if v, ok := lookup("SCRAPER_OUTPUT_DIR"); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup("SCRAPER_DATABASE_URL"); ok && v != "" {
		c.Output.DatabaseURL = v
	}
	if v, ok := lookup("SCRAPER_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Scroll.MaxAttempts > 0, "scroll.max_attempts must be > 0, got %d", c.Scroll.MaxAttempts)
	check(c.Scroll.PlateauTolerance > 0, "scroll.plateau_tolerance must be > 0, got %d", c.Scroll.PlateauTolerance)
	check(c.Scroll.Wait > 0, "scroll.wait must be > 0, got %s", c.Scroll.Wait.Std())
	check(c.Scroll.FinalWait > 0, "scroll.final_wait must be > 0, got %s", c.Scroll.FinalWait.Std())
	check(c.Scroll.ScrollDelta > 0, "scroll.scroll_delta must be > 0, got %d", c.Scroll.ScrollDelta)
	check(c.Scroll.FinalScrollDelta > 0, "scroll.final_scroll_delta must be > 0, got %d", c.Scroll.FinalScrollDelta)
	check(c.Scroll.SlowLoadThreshold >= 0, "scroll.slow_load_threshold must be >= 0, got %d", c.Scroll.SlowLoadThreshold)
	check(c.Scroll.SlowLoadExtraWait >= 0, "scroll.slow_load_extra_wait must be >= 0, got %s", c.Scroll.SlowLoadExtraWait.Std())

	check(c.Session.FirstContentTimeout > 0, "session.first_content_timeout must be > 0, got %s", c.Session.FirstContentTimeout.Std())
	check(c.Session.PageLoadWait >= 0, "session.page_load_wait must be >= 0, got %s", c.Session.PageLoadWait.Std())
	check(c.Session.ApproachScrolls >= 0, "session.approach_scrolls must be >= 0, got %d", c.Session.ApproachScrolls)

	check(c.Batch.PageDelay >= 0, "batch.page_delay must be >= 0, got %s", c.Batch.PageDelay.Std())
	check(c.Batch.CheckpointPath != "", "batch.checkpoint_path must be set")
	check(c.Output.File != "", "output.file must be set")

	f := c.Filter
	for _, v := range []struct {
		name     string
		min, max int64
	}{
		{"comments", f.MinComments, f.MaxComments},
		{"likes", f.MinLikes, f.MaxLikes},
		{"views", f.MinViews, f.MaxViews},
	} {
		check(v.min >= 0, "filter.min_%s must be >= 0, got %d", v.name, v.min)
		check(v.max >= 0, "filter.max_%s must be >= 0, got %d", v.name, v.max)
		check(v.max == 0 || v.max >= v.min, "filter.max_%s (%d) is below filter.min_%s (%d)", v.name, v.max, v.name, v.min)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return domain.NewConfigurationError(errors.Join(errs...))
	}
	return nil
}

// OutputPath is where the cumulative CSV lives.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Output.File) {
		return c.Output.File
	}
	return filepath.Join(c.Output.Dir, c.Output.File)
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) ScrollConfig() scroll.Config {
	return scroll.Config{
		MaxAttempts:       c.Scroll.MaxAttempts,
		PlateauTolerance:  c.Scroll.PlateauTolerance,
		Wait:              c.Scroll.Wait.Std(),
		FinalWait:         c.Scroll.FinalWait.Std(),
		SlowLoadThreshold: c.Scroll.SlowLoadThreshold,
		SlowLoadExtraWait: c.Scroll.SlowLoadExtraWait.Std(),
	}
}

func (c *Config) SessionConfig() session.Config {
	return session.Config{
		FirstContentTimeout: c.Session.FirstContentTimeout.Std(),
		PageLoadWait:        c.Session.PageLoadWait.Std(),
	}
}

func (c *Config) ExtractorOptions() youtube.Options {
	opts := youtube.DefaultOptions()
	opts.ScrollDelta = c.Scroll.ScrollDelta
	opts.FinalScrollDelta = c.Scroll.FinalScrollDelta
	opts.ApproachScrolls = c.Session.ApproachScrolls
	return opts
}

func (c *Config) BrowserOptions() chromebrowser.Options {
	return chromebrowser.Options{
		Headless:      c.Browser.Headless,
		ExecPath:      c.Browser.ChromePath,
		DisableImages: c.Browser.DisableImages,
		UserAgent:     c.Browser.UserAgent,
		NavTimeout:    chromebrowser.DefaultNavTimeout,
		OpTimeout:     chromebrowser.DefaultOpTimeout,
	}
}

func (c *Config) InputFilter() csvinput.Filter {
	f := c.Filter
	return csvinput.Filter{
		MinComments: f.MinComments,
		MinLikes:    f.MinLikes,
		MinViews:    f.MinViews,
		MaxComments: f.MaxComments,
		MaxLikes:    f.MaxLikes,
		MaxViews:    f.MaxViews,
	}
}
