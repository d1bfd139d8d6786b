// Package chromebrowser implements the browser ports on top of chromedp.
package chromebrowser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"commentharvest/internal/core/domain"
	"commentharvest/internal/core/ports"
)

// Options controls how Chrome is launched.
type Options struct {
	Headless      bool
	ExecPath      string
	DisableImages bool
	UserAgent     string
	NavTimeout    time.Duration // bounds Navigate; 0 means DefaultNavTimeout
	OpTimeout     time.Duration // bounds Title, HTML and Eval; 0 means DefaultOpTimeout
}

const (
	DefaultNavTimeout = 30 * time.Second
	DefaultOpTimeout  = 30 * time.Second
)

// Browser owns one Chrome process; each Open creates a new tab in it.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *slog.Logger
}

// AllocatorOptions builds the Chrome flags for opts.
func AllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.DisableImages {
		flags = append(flags, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	if opts.ExecPath != "" {
		flags = append(flags, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}
	return flags
}

// New starts Chrome. The parent context bounds the browser's lifetime.
func New(parent context.Context, opts Options, logger *slog.Logger) (*Browser, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = DefaultNavTimeout
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = DefaultOpTimeout
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, AllocatorOptions(opts)...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "chromedp"))
	}))

	b := &Browser{
		ctx: ctx,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
		opts:   opts,
		logger: logger,
	}

	// An empty Run launches the process so startup failures surface here.
	if err := chromedp.Run(ctx); err != nil {
		b.cancel()
		return nil, domain.NewHandleFault("starting chrome", err)
	}
	logger.Info("browser started", slog.Bool("headless", opts.Headless))
	return b, nil
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	b.cancel()
	return nil
}

// Open opens a tab and navigates it to pageURL.
func (b *Browser) Open(ctx context.Context, pageURL string) (ports.Page, error) {
	if b.ctx.Err() != nil {
		return nil, domain.NewHandleFault("browser is closed", b.ctx.Err())
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	p := &Page{ctx: tabCtx, cancel: cancel, opTimeout: b.opts.OpTimeout}

	// The first Run attaches the tab and its event loop lives as long as
	// the context passed here, so it must be the tab context itself.
	if err := chromedp.Run(tabCtx); err != nil {
		p.Close()
		return nil, domain.NewHandleFault("opening tab", err)
	}

	navCtx, stop := p.bound(ctx, b.opts.NavTimeout)
	defer stop()
	if err := chromedp.Run(navCtx, chromedp.Navigate(pageURL)); err != nil {
		p.Close()
		if b.ctx.Err() != nil {
			return nil, domain.NewHandleFault("browser exited during navigation", err)
		}
		return nil, domain.NewPageUnavailable("navigation failed", err)
	}
	return p, nil
}

// Page is one Chrome tab.
type Page struct {
	ctx       context.Context
	cancel    context.CancelFunc
	opTimeout time.Duration
	once      sync.Once
}

// bound derives a context that ends with the tab, with the caller's ctx
// or after timeout, whichever comes first.
func (p *Page) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(p.ctx)
	stop := context.AfterFunc(ctx, cancel)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		c, cancelTimeout = context.WithTimeout(c, timeout)
		return c, func() {
			cancelTimeout()
			stop()
			cancel()
		}
	}
	return c, func() {
		stop()
		cancel()
	}
}

// fault classifies a chromedp error from a Run under c. A dead or
// unresponsive tab is a handle fault; anything else is a transient
// extraction fault.
func (p *Page) fault(ctx, c context.Context, op string, err error) error {
	if p.ctx.Err() != nil {
		return domain.NewHandleFault(op, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if errors.Is(c.Err(), context.DeadlineExceeded) {
		return domain.NewHandleFault(op+": renderer did not answer", err)
	}
	if errors.Is(err, chromedp.ErrInvalidContext) {
		return domain.NewHandleFault(op, err)
	}
	return domain.NewExtractionFault(op, err)
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	c, stop := p.bound(ctx, timeout)
	defer stop()
	err := chromedp.Run(c, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(c.Err(), context.DeadlineExceeded) && p.ctx.Err() == nil && ctx.Err() == nil {
		return domain.ErrWaitTimeout
	}
	return p.fault(ctx, c, "waiting for "+selector, err)
}

func (p *Page) Title(ctx context.Context) (string, error) {
	c, stop := p.bound(ctx, p.opTimeout)
	defer stop()
	var title string
	if err := chromedp.Run(c, chromedp.Title(&title)); err != nil {
		return "", p.fault(ctx, c, "reading title", err)
	}
	return title, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	c, stop := p.bound(ctx, p.opTimeout)
	defer stop()
	var html string
	if err := chromedp.Run(c, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", p.fault(ctx, c, "reading DOM", err)
	}
	return html, nil
}

func (p *Page) Eval(ctx context.Context, script string, out any) error {
	c, stop := p.bound(ctx, p.opTimeout)
	defer stop()
	if err := chromedp.Run(c, chromedp.Evaluate(script, out)); err != nil {
		return p.fault(ctx, c, "evaluating script", err)
	}
	return nil
}

// Close closes the tab. Later calls are no-ops.
func (p *Page) Close() error {
	p.once.Do(p.cancel)
	return nil
}
