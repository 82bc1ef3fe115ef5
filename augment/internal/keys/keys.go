// Package keys routes captured keyboard events to their handlers: an active
// yank sequence first, then the unit shortcuts, then the configured toolbar
// bindings.
package keys

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/toast"
	"github.com/hazyhaar/cadkeys/augment/internal/units"
	"github.com/hazyhaar/cadkeys/augment/internal/yank"
)

// viewTarget matches camera-view button selectors. View buttons are
// momentary, so they get a plain confirmation toast instead of ON/OFF.
var viewTarget = regexp.MustCompile(`(?i)(iso|front|rear|top|bottom|left|right)`)

type combo struct {
	shift bool
	key   string
}

// Config for creating a Router.
type Config struct {
	Page      dom.Page
	Bindings  []config.Binding
	Keys      config.KeysConfig
	Selectors config.Selectors
	Units     *units.Engine
	Yank      *yank.Engine
	Notify    toast.Notifier
	Logger    *slog.Logger
	// Record, when set, journals each performed action.
	Record func(action, detail string)
}

// Router dispatches key events.
type Router struct {
	page   dom.Page
	table  map[combo]config.Binding
	keys   config.KeysConfig
	sel    config.Selectors
	units  *units.Engine
	yank   *yank.Engine
	notify toast.Notifier
	logger *slog.Logger
	record func(action, detail string)
}

func NewRouter(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Record == nil {
		cfg.Record = func(string, string) {}
	}
	table := make(map[combo]config.Binding, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		table[combo{b.Shift, strings.ToLower(b.Key)}] = b
	}
	return &Router{
		page:   cfg.Page,
		table:  table,
		keys:   cfg.Keys,
		sel:    cfg.Selectors,
		units:  cfg.Units,
		yank:   cfg.Yank,
		notify: cfg.Notify,
		logger: cfg.Logger,
		record: cfg.Record,
	}
}

// Handle routes one key event. Events originating in editable elements and
// chorded events (ctrl/alt/meta) pass through to the host untouched.
func (r *Router) Handle(ev dom.KeyEvent) {
	if ev.Editable || ev.Ctrl || ev.Alt || ev.Meta {
		return
	}
	key := strings.ToLower(ev.Key)

	// An active sequence consumes every key until it resolves or expires.
	if r.yank.Active() {
		r.yank.HandleKey(key)
		r.record("yank_key", key)
		return
	}
	if key == "y" && !ev.Shift {
		r.yank.Start()
		r.record("yank_start", "")
		return
	}

	if key == strings.ToLower(r.keys.UnitToggle) {
		if ev.Shift {
			r.cyclePrecision()
		} else {
			r.toggleUnit()
		}
		return
	}
	if key == r.keys.FeetToggle && !ev.Shift {
		r.toggleFeet()
		return
	}

	if b, ok := r.table[combo{ev.Shift, key}]; ok {
		r.press(b)
	}
}

// Press performs the binding registered for a key combination, as if the
// key had been pressed on the page. Used by the control surface.
func (r *Router) Press(key string, shift bool) bool {
	b, ok := r.table[combo{shift, strings.ToLower(key)}]
	if !ok {
		return false
	}
	r.press(b)
	return true
}

func (r *Router) toggleUnit() {
	u, err := r.units.ToggleUnit()
	if err != nil {
		r.logger.Warn("keys: toggle unit", "error", err)
		return
	}
	r.notify.Notify(fmt.Sprintf("Units: %s", u), false)
	r.record("unit", string(u))
}

func (r *Router) cyclePrecision() {
	denom, err := r.units.CyclePrecision()
	if err != nil {
		r.logger.Warn("keys: cycle precision", "error", err)
		return
	}
	r.notify.Notify(fmt.Sprintf("Precision: 1/%d\"", denom), false)
	r.record("precision", fmt.Sprintf("%d", denom))
}

func (r *Router) toggleFeet() {
	on, err := r.units.ToggleFeet()
	if err != nil {
		r.logger.Warn("keys: toggle feet", "error", err)
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	r.notify.Notify(fmt.Sprintf("Feet display: %s", state), false)
	r.record("feet", state)
}

func (r *Router) press(b config.Binding) {
	btn, err := r.page.Find(b.Target)
	if err != nil {
		r.notify.Notify(fmt.Sprintf("%s not ready", b.Label), true)
		return
	}
	if err := btn.Click(); err != nil {
		r.logger.Warn("keys: click", "target", b.Target, "error", err)
		r.notify.Notify(fmt.Sprintf("%s not ready", b.Label), true)
		return
	}
	r.record("press", b.Target)

	if viewTarget.MatchString(b.Target) {
		r.notify.Notify(b.Label, false)
		return
	}

	// Toggle buttons carry an active marker class on their frame.
	on, err := btn.InAncestor(r.sel.ButtonFrame + "." + r.sel.ActiveClass)
	if err != nil {
		r.notify.Notify(b.Label, false)
		return
	}
	state := "OFF"
	if on {
		state = "ON"
	}
	r.notify.Notify(fmt.Sprintf("%s: %s", b.Label, state), false)
}
