// Package browser manages the Chrome side: connect to a running instance or
// launch one, find or open the viewer tab, and grant clipboard access.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
)

// Config configures the browser manager.
type Config struct {
	config.BrowserConfig
	Logger *slog.Logger
}

// Manager owns the Chrome connection.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	closed  bool
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{cfg: cfg}
}

// Start connects to the configured remote Chrome, or launches a local one.
// The viewer needs WebGL so a local launch is headful by default; on hosts
// without a display, XvfbDisplay runs it under a virtual screen.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}

	log := m.cfg.Logger
	var wsURL string

	if m.cfg.Remote != "" {
		wsURL = m.cfg.Remote
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		if !m.cfg.Headless && m.cfg.XvfbDisplay != "" {
			if err := m.startXvfb(); err != nil {
				return nil, fmt.Errorf("browser: xvfb: %w", err)
			}
		}

		l := launcher.New().Headless(m.cfg.Headless)
		if !m.cfg.Headless && m.cfg.XvfbDisplay != "" {
			l = l.Env("DISPLAY", m.cfg.XvfbDisplay)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", m.cfg.Headless)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}

	m.browser = b
	return b, nil
}

// OpenViewer returns a page showing the viewer URL: an already-open tab when
// one matches (common when attaching to the user's running browser), else a
// fresh stealth tab navigated there. Clipboard permission is granted
// best-effort so copies work without a prompt.
func (m *Manager) OpenViewer(ctx context.Context, pageURL string) (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	m.grantClipboard(b, pageURL)

	if page := m.findExisting(b, pageURL); page != nil {
		m.cfg.Logger.Info("browser: reusing open tab", "url", pageURL)
		return page, nil
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return page, nil
}

// Close shuts down Chrome (when we launched it) and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true

	if m.browser != nil {
		// Only tear Chrome down when it is ours.
		if m.cfg.Remote == "" {
			m.browser.Close()
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	return nil
}

func (m *Manager) findExisting(b *rod.Browser, pageURL string) *rod.Page {
	pages, err := b.Pages()
	if err != nil {
		return nil
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if sameViewer(info.URL, pageURL) {
			return p
		}
	}
	return nil
}

// sameViewer compares URLs ignoring fragment and trailing slash, so a
// reloaded viewer with an anchor still matches.
func sameViewer(a, b string) bool {
	norm := func(s string) string {
		u, err := url.Parse(s)
		if err != nil {
			return s
		}
		u.Fragment = ""
		return strings.TrimSuffix(u.String(), "/")
	}
	return norm(a) == norm(b)
}

func (m *Manager) grantClipboard(b *rod.Browser, pageURL string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	origin := u.Scheme + "://" + u.Host
	err = proto.BrowserGrantPermissions{
		Origin: origin,
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeClipboardReadWrite,
			proto.BrowserPermissionTypeClipboardSanitizedWrite,
		},
	}.Call(b)
	if err != nil {
		m.cfg.Logger.Warn("browser: clipboard permission", "error", err)
	}
}
