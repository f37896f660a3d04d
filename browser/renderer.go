package browser

import (
	"context"
	"time"
)

// Renderer renders pages in a fresh browser session per call
type Renderer struct {
	opts        Options
	settleDelay time.Duration
	waitTimeout time.Duration
}

// NewRenderer creates a Renderer. settle is the unconditional delay after
// navigation and timeout bounds the wait for a table.
func NewRenderer(opts Options, settle, timeout time.Duration) *Renderer {
	return &Renderer{
		opts:        opts,
		settleDelay: settle,
		waitTimeout: timeout,
	}
}

// Render returns the rendered HTML of url. The browser is closed on every path.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	session, err := Open(ctx, r.opts)
	if err != nil {
		return "", err
	}
	defer session.Close()

	return session.Load(ctx, url, r.settleDelay, r.waitTimeout)
}
