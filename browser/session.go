// Package browser provides headless Chrome rendering of script-driven pages
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrWaitTimeout is returned when no table appears within the wait timeout
var ErrWaitTimeout = errors.New("timed out waiting for table")

// Options configures the browser session
type Options struct {
	Headless     bool
	ExecPath     string
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	Logger       *log.Logger
}

// Session is one launched headless browser with a single tab
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *log.Logger
	closeOnce   sync.Once
}

// allocatorOptions returns the Chrome flags for restricted server environments
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	return allocOpts
}

// Open launches the browser. The caller must Close the session.
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debugf(format, args...)
	}))

	s := &Session{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      logger,
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventLoadEventFired:
			logger.Debug("Page load event fired")
		case *network.EventResponseReceived:
			if ev.Type == network.ResourceTypeDocument {
				logger.Debug("Document response", "url", ev.Response.URL, "status", ev.Response.Status)
			}
		}
	})

	// The first Run starts the browser process
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return s, nil
}

// Load navigates to url, waits settle unconditionally, then waits up to timeout
// for a table element and returns the serialized document.
func (s *Session) Load(ctx context.Context, url string, settle, timeout time.Duration) (string, error) {
	// Stop the tab when the caller's context ends
	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	s.logger.Info("Loading page", "url", url)
	if err := chromedp.Run(s.ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.Navigate(url),
	); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	s.logger.Info("Waiting for page to load", "delay", settle)
	if settle > 0 {
		if err := chromedp.Run(s.ctx, chromedp.Sleep(settle)); err != nil {
			return "", fmt.Errorf("interrupted while waiting for page: %w", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitReady("table", chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && s.ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
		}
		return "", fmt.Errorf("failed waiting for table: %w", err)
	}

	var htmlContent string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	s.logger.Info("Page loaded", "bytes", len(htmlContent))
	return htmlContent, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		// Graceful close first, then tear down the allocator
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("Browser close", "err", err)
		}
		s.cancel()
		s.allocCancel()
		s.logger.Debug("Browser session closed")
	})
}
