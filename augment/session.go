package augment

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/cadkeys/augment/internal/browser"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
)

// Page is the live-page boundary the Augmenter drives. Aliased for callers
// that wire their own implementation.
type Page = dom.Page

// Session bundles the Chrome connection and the attached viewer page.
type Session struct {
	mgr  *browser.Manager
	page *dom.RodPage
}

// OpenSession connects to Chrome per the configuration, finds or opens the
// viewer tab and wraps it. Call Attach once the viewer DOM is ready.
func OpenSession(ctx context.Context, cfg *Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		BrowserConfig: cfg.Browser,
		Logger:        logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	page, err := mgr.OpenViewer(ctx, cfg.Page.URL)
	if err != nil {
		mgr.Close()
		return nil, err
	}

	return &Session{mgr: mgr, page: dom.NewRodPage(page, logger)}, nil
}

// Page returns the wrapped viewer page.
func (s *Session) Page() Page { return s.page }

// Attach installs the key capture and UI shim into the page.
func (s *Session) Attach(ctx context.Context) error {
	return s.page.Attach(ctx)
}

// Close tears down the Chrome connection.
func (s *Session) Close() error {
	return s.mgr.Close()
}
