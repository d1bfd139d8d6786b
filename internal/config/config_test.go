package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"commentharvest/internal/core/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SCRAPER_HEADLESS", "SCRAPER_CHROME_PATH", "SCRAPER_OUTPUT_DIR", "SCRAPER_DATABASE_URL", "SCRAPER_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scroll.MaxAttempts != 1000 || cfg.Scroll.Wait.Std() != 2*time.Second || !cfg.Browser.Headless {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingRequiredFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml"), true); err == nil {
		t.Fatal("expected error for missing required file")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scraper.toml")
	data := `
[scroll]
max_attempts = 50
wait = "750ms"

[filter]
min_views = 500

[output]
dir = "from-file"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCRAPER_HEADLESS", "false")
	t.Setenv("SCRAPER_OUTPUT_DIR", "from-env")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scroll.MaxAttempts != 50 {
		t.Errorf("max_attempts = %d", cfg.Scroll.MaxAttempts)
	}
	if cfg.Scroll.Wait.Std() != 750*time.Millisecond {
		t.Errorf("wait = %s", cfg.Scroll.Wait.Std())
	}
	if cfg.Scroll.FinalWait.Std() != 4*time.Second {
		t.Errorf("final_wait lost its default: %s", cfg.Scroll.FinalWait.Std())
	}
	if cfg.Filter.MinViews != 500 {
		t.Errorf("min_views = %d", cfg.Filter.MinViews)
	}
	if cfg.Browser.Headless {
		t.Error("SCRAPER_HEADLESS=false not applied")
	}
	if cfg.Output.Dir != "from-env" {
		t.Errorf("output.dir = %q, want env override", cfg.Output.Dir)
	}
}

func TestLoadBadDuration(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scraper.toml")
	if err := os.WriteFile(path, []byte("[scroll]\nwait = \"soon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, true)
	if !domain.IsKind(err, domain.FaultConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestLoadBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCRAPER_HEADLESS", "sometimes")
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"), false)
	if !domain.IsKind(err, domain.FaultConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "zero max attempts",
			mutate: func(c *Config) { c.Scroll.MaxAttempts = 0 },
			want:   []string{"scroll.max_attempts"},
		},
		{
			name:   "zero tolerance and wait",
			mutate: func(c *Config) {
				c.Scroll.PlateauTolerance = 0
				c.Scroll.Wait = 0
			},
			want:   []string{"scroll.plateau_tolerance", "scroll.wait"},
		},
		{
			name:   "negative page delay",
			mutate: func(c *Config) { c.Batch.PageDelay = Duration(-time.Second) },
			want:   []string{"batch.page_delay"},
		},
		{
			name:   "max below min",
			mutate: func(c *Config) {
				c.Filter.MinLikes = 10
				c.Filter.MaxLikes = 5
			},
			want:   []string{"filter.max_likes (5) is below filter.min_likes (10)"},
		},
		{
			name:   "negative min",
			mutate: func(c *Config) { c.Filter.MinComments = -1 },
			want:   []string{"filter.min_comments"},
		},
		{
			name:   "unknown log level and format",
			mutate: func(c *Config) {
				c.Log.Level = "loud"
				c.Log.Format = "xml"
			},
			want:   []string{"log.level", "log.format"},
		},
		{
			name:   "zero first content timeout",
			mutate: func(c *Config) { c.Session.FirstContentTimeout = 0 },
			want:   []string{"session.first_content_timeout"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !domain.IsKind(err, domain.FaultConfiguration) {
				t.Fatalf("err = %v, want configuration error", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestMaxFilterZeroMeansNoLimit(t *testing.T) {
	cfg := Default()
	cfg.Filter.MinViews = 500
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Scroll.Wait = Duration(1500 * time.Millisecond)
	data, err := cfg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "1.5s") {
		t.Errorf("encoded config lacks duration string:\n%s", data)
	}

	path := filepath.Join(t.TempDir(), "out.toml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	clearEnv(t)
	back, err := Load(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if back.Scroll.Wait != cfg.Scroll.Wait || back.Batch.CheckpointPath != cfg.Batch.CheckpointPath {
		t.Errorf("round trip changed values: %+v", back)
	}
}

func TestConverters(t *testing.T) {
	cfg := Default()
	cfg.Scroll.ScrollDelta = 900
	cfg.Session.ApproachScrolls = 2

	sc := cfg.ScrollConfig()
	if sc.MaxAttempts != 1000 || sc.FinalWait != 4*time.Second || sc.SlowLoadThreshold != 100 {
		t.Errorf("ScrollConfig = %+v", sc)
	}
	opts := cfg.ExtractorOptions()
	if opts.ScrollDelta != 900 || opts.ApproachScrolls != 2 || opts.FinalScrollDelta != 3000 {
		t.Errorf("ExtractorOptions = %+v", opts)
	}
	if got := cfg.OutputPath(); got != filepath.Join("comments_data", "youtube_comments.csv") {
		t.Errorf("OutputPath = %q", got)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SCRAPER_CHROME_PATH")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SCRAPER_CHROME_PATH=/opt/chrome\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load(DefaultPath, false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EnvFileError() != nil {
		t.Errorf("EnvFileError = %v", cfg.EnvFileError())
	}
	if cfg.Browser.ChromePath != "/opt/chrome" {
		t.Errorf("chrome_path = %q, want value from .env", cfg.Browser.ChromePath)
	}
}

func TestLoadReportsMissingDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	cfg, err := Load(DefaultPath, false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EnvFileError() == nil {
		t.Error("missing .env not reported")
	}
}
