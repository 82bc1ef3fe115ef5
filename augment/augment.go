// Package augment wires the keyboard augmentation onto a live viewer page
// and runs its event loop. All mutable state (unit engine, overlay, yank
// sequence) is owned by the single loop goroutine; the control surface
// funnels work into it as closures.
package augment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/keys"
	"github.com/hazyhaar/cadkeys/augment/internal/overlay"
	"github.com/hazyhaar/cadkeys/augment/internal/panel"
	"github.com/hazyhaar/cadkeys/augment/internal/toast"
	"github.com/hazyhaar/cadkeys/augment/internal/units"
	"github.com/hazyhaar/cadkeys/augment/internal/widget"
	"github.com/hazyhaar/cadkeys/augment/internal/yank"
)

// Recorder journals performed actions. journal.Store implements it.
type Recorder interface {
	Record(action, detail string)
}

// Options for creating an Augmenter.
type Options struct {
	Page    dom.Page
	Config  *config.Config
	Journal Recorder // optional
	Logger  *slog.Logger
	Clock   func() time.Time // optional, for tests
}

// Status is a snapshot of the augmentation state.
type Status struct {
	Unit         string `json:"unit"`
	Denominator  int    `json:"denominator"`
	ShowFeet     bool   `json:"show_feet"`
	TrackedCells int    `json:"tracked_cells"`
	YankActive   bool   `json:"yank_active"`
}

// Augmenter runs the augmentation against one page.
type Augmenter struct {
	page   dom.Page
	cfg    *config.Config
	logger *slog.Logger

	notify  toast.Notifier
	units   *units.Engine
	panels  *panel.Reader
	overlay *overlay.Sync
	yank    *yank.Engine
	router  *keys.Router
	record  func(action, detail string)

	cmdCh chan func()
}

// New wires the component graph. Run starts the loop.
func New(opts Options) *Augmenter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	record := func(string, string) {}
	if opts.Journal != nil {
		record = opts.Journal.Record
	}

	cfg := opts.Config
	a := &Augmenter{
		page:   opts.Page,
		cfg:    cfg,
		logger: opts.Logger,
		record: record,
		cmdCh:  make(chan func(), 16),
	}

	a.notify = toast.NewPageNotifier(opts.Page, opts.Logger)
	a.units = units.New(units.Config{
		Page:             opts.Page,
		CellSelector:     cfg.Selectors.MeasureCell,
		AngleRowSelector: cfg.Selectors.AngleRow,
		Widget:           widget.NewBar(opts.Page),
		Logger:           opts.Logger,
	})
	a.panels = panel.NewReader(opts.Page, cfg.Selectors)
	a.overlay = overlay.New(overlay.Config{
		Page:   opts.Page,
		Panels: a.panels,
		Values: a.units,
		Notify: a.notify,
		Logger: opts.Logger,
	})
	a.yank = yank.New(yank.Config{
		Page:    opts.Page,
		Panels:  a.panels,
		Values:  a.units,
		Notify:  a.notify,
		Timeout: cfg.Yank.Timeout,
		Clock:   opts.Clock,
		Logger:  opts.Logger,
	})
	a.router = keys.NewRouter(keys.Config{
		Page:      opts.Page,
		Bindings:  cfg.Bindings,
		Keys:      cfg.Keys,
		Selectors: cfg.Selectors,
		Units:     a.units,
		Yank:      a.yank,
		Notify:    a.notify,
		Logger:    opts.Logger,
		Record:    record,
	})

	return a
}

// WaitReady polls until the viewer toolbar exists, bounded by the configured
// attempt count. The viewer builds its DOM asynchronously after page load.
func (a *Augmenter) WaitReady(ctx context.Context) error {
	interval := a.cfg.Page.BootstrapInterval
	attempts := a.cfg.Page.BootstrapAttempts

	for i := 0; i < attempts; i++ {
		if _, err := a.page.Find(a.cfg.Selectors.Toolbar); err == nil {
			a.logger.Info("augment: viewer ready", "attempts", i+1)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("augment: viewer toolbar %q not found after %d attempts",
		a.cfg.Selectors.Toolbar, attempts)
}

// Run executes the event loop until ctx is cancelled. It owns all component
// state; nothing else may touch the engines while Run is active.
func (a *Augmenter) Run(ctx context.Context) error {
	// The unit bar shows the defaults before the first toggle.
	if err := widget.NewBar(a.page).Refresh(a.units.Settings()); err != nil {
		a.logger.Warn("augment: initial unit bar", "error", err)
	}

	unitTicker := time.NewTicker(a.cfg.Reconcile.UnitInterval)
	defer unitTicker.Stop()
	overlayTicker := time.NewTicker(a.cfg.Reconcile.OverlayInterval)
	defer overlayTicker.Stop()

	// The yank timer is armed only while a sequence is collecting.
	yankTimer := time.NewTimer(time.Hour)
	yankTimer.Stop()
	defer yankTimer.Stop()

	rearm := func() {
		yankTimer.Stop()
		if d, ok := a.yank.Deadline(); ok {
			yankTimer.Reset(time.Until(d))
		}
	}

	a.logger.Info("augment: loop started",
		"unit_interval", a.cfg.Reconcile.UnitInterval,
		"overlay_interval", a.cfg.Reconcile.OverlayInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-a.page.Events():
			if !ok {
				return fmt.Errorf("augment: page event stream closed")
			}
			if ev.Key != nil {
				a.router.Handle(*ev.Key)
			} else if ev.Copy != "" {
				a.overlay.HandleCopy(ev.Copy)
				a.record("overlay_copy", ev.Copy)
			}
			rearm()

		case <-unitTicker.C:
			if err := a.units.ReconcileTick(); err != nil {
				a.logger.Warn("augment: unit reconcile", "error", err)
			}

		case <-overlayTicker.C:
			if err := a.overlay.Tick(); err != nil {
				a.logger.Warn("augment: overlay reconcile", "error", err)
			}

		case <-yankTimer.C:
			a.yank.Expire()

		case fn := <-a.cmdCh:
			fn()
			rearm()
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (a *Augmenter) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case a.cmdCh <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status snapshots the augmentation state.
func (a *Augmenter) Status(ctx context.Context) (Status, error) {
	var st Status
	err := a.do(ctx, func() {
		s := a.units.Settings()
		st = Status{
			Unit:         string(s.Unit),
			Denominator:  s.Denominator,
			ShowFeet:     s.ShowFeet,
			TrackedCells: a.units.Tracked(),
			YankActive:   a.yank.Active(),
		}
	})
	return st, err
}

// SetUnit switches the display unit to "mm" or "inch".
func (a *Augmenter) SetUnit(ctx context.Context, unit string) error {
	var opErr error
	if err := a.do(ctx, func() {
		opErr = a.units.SwitchUnit(units.Unit(unit))
		if opErr == nil {
			a.record("unit", unit)
		}
	}); err != nil {
		return err
	}
	return opErr
}

// SetPrecision sets the fractional denominator: 8, 16 or 32.
func (a *Augmenter) SetPrecision(ctx context.Context, denom int) error {
	var opErr error
	if err := a.do(ctx, func() {
		opErr = a.units.SetPrecision(denom)
		if opErr == nil {
			a.record("precision", fmt.Sprintf("%d", denom))
		}
	}); err != nil {
		return err
	}
	return opErr
}

// ToggleFeet flips the feet display flag and returns the new state.
func (a *Augmenter) ToggleFeet(ctx context.Context) (bool, error) {
	var on bool
	var opErr error
	if err := a.do(ctx, func() {
		on, opErr = a.units.ToggleFeet()
		if opErr == nil {
			a.record("feet", fmt.Sprintf("%t", on))
		}
	}); err != nil {
		return false, err
	}
	return on, opErr
}

// Press performs the binding for a key combination ("f", "shift+f").
func (a *Augmenter) Press(ctx context.Context, combo string) error {
	shift := false
	key := strings.ToLower(strings.TrimSpace(combo))
	if rest, ok := strings.CutPrefix(key, "shift+"); ok {
		shift = true
		key = rest
	}

	var found bool
	if err := a.do(ctx, func() {
		found = a.router.Press(key, shift)
	}); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("augment: no binding for %q", combo)
	}
	return nil
}

// Yank feeds a complete yank sequence ("yy", "ybc") through the state
// machine as if typed.
func (a *Augmenter) Yank(ctx context.Context, seq string) error {
	seq = strings.ToLower(strings.TrimSpace(seq))
	if seq == "" || seq[0] != 'y' {
		return fmt.Errorf("augment: yank sequence must start with y")
	}

	var opErr error
	if err := a.do(ctx, func() {
		if a.yank.Active() {
			opErr = fmt.Errorf("augment: yank sequence already in progress")
			return
		}
		a.yank.Start()
		for _, r := range seq[1:] {
			if !a.yank.Active() {
				break
			}
			a.yank.HandleKey(string(r))
		}
		if a.yank.Active() {
			// Partial sequence from the API makes no sense, reset.
			a.yank.Expire()
			opErr = fmt.Errorf("augment: incomplete yank sequence %q", seq)
			return
		}
		a.record("yank", seq)
	}); err != nil {
		return err
	}
	return opErr
}
