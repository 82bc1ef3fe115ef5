// Package yank implements the modal multi-key copy sequences: a short-lived
// state machine entered on y, offering single-key copy commands, a
// bounding-box submenu, and a which-key hint panel while collecting.
package yank

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/panel"
	"github.com/hazyhaar/cadkeys/augment/internal/toast"
)

// State of the sequence machine.
type State int

const (
	Idle State = iota
	Collecting
	BBSubmenu
)

// DefaultTimeout resets an idle sequence and hides the hint.
const DefaultTimeout = 2 * time.Second

// Config for creating an Engine.
type Config struct {
	Page    dom.Page
	Panels  *panel.Reader
	Values  panel.ValueSource
	Notify  toast.Notifier
	Timeout time.Duration
	// Clock is injectable for tests. Default: time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Engine is the yank sequence state machine.
type Engine struct {
	page    dom.Page
	panels  *panel.Reader
	values  panel.ValueSource
	notify  toast.Notifier
	timeout time.Duration
	clock   func() time.Time
	logger  *slog.Logger

	state   State
	lastKey time.Time
}

func New(cfg Config) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		page:    cfg.Page,
		panels:  cfg.Panels,
		values:  cfg.Values,
		notify:  cfg.Notify,
		timeout: cfg.Timeout,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
}

// State returns the current machine state, expiring a stale sequence first.
func (e *Engine) State() State {
	e.expireIfStale()
	return e.state
}

// Active reports whether a sequence is in progress. A sequence that idled
// past the timeout is silently reset here, so a late keystroke is handled
// as a fresh, independent action by the router.
func (e *Engine) Active() bool {
	e.expireIfStale()
	return e.state != Idle
}

// Start begins a new sequence (the initiating y was just pressed) and shows
// the main which-key menu.
func (e *Engine) Start() {
	e.state = Collecting
	e.lastKey = e.clock()
	e.showHint()
}

// HandleKey consumes the next key of an active sequence.
func (e *Engine) HandleKey(k string) {
	e.lastKey = e.clock()

	switch e.state {
	case Collecting:
		if k == bbKey {
			e.state = BBSubmenu
			e.showHint()
			return
		}
		for _, en := range mainMenu {
			if en.key == k {
				e.exec(en.cmd)
				e.reset()
				return
			}
		}
		e.invalid()

	case BBSubmenu:
		for _, en := range bbMenu {
			if en.key == k {
				e.exec(en.cmd)
				e.reset()
				return
			}
		}
		e.invalid()
	}
}

// Expire silently resets a timed-out sequence and hides the hint. The
// owner's loop calls it when the deadline timer fires.
func (e *Engine) Expire() {
	if e.state != Idle {
		e.reset()
	}
}

// Deadline returns when the current sequence times out.
func (e *Engine) Deadline() (time.Time, bool) {
	if e.state == Idle {
		return time.Time{}, false
	}
	return e.lastKey.Add(e.timeout), true
}

func (e *Engine) expireIfStale() {
	if e.state != Idle && e.clock().Sub(e.lastKey) > e.timeout {
		e.reset()
	}
}

func (e *Engine) reset() {
	e.state = Idle
	if err := e.page.HideHint(); err != nil {
		e.logger.Warn("yank: hide hint", "error", err)
	}
}

func (e *Engine) invalid() {
	e.notify.Notify("Invalid yank sequence", true)
	e.reset()
}

// exec runs one command against the currently visible panels.
func (e *Engine) exec(cmd Command) {
	switch cmd {
	case CmdPrimary:
		e.copyPrimary()
	case CmdAxisX:
		e.copyAxis(cmd)
	case CmdAxisY:
		e.copyAxis(cmd)
	case CmdAxisZ:
		e.copyAxis(cmd)
	case CmdArea:
		e.copyRow(panel.Properties, panel.LabelArea)
	case CmdAngle:
		e.copyRow(panel.Properties, panel.LabelAngle)
	case CmdPoint1:
		e.copyRow(panel.Distance, panel.LabelPoint1)
	case CmdPoint2:
		e.copyRow(panel.Distance, panel.LabelPoint2)
	case CmdDelta:
		e.copyRow(panel.Distance, panel.LabelDelta)
	case CmdDistanceAngle:
		e.copyRow(panel.Distance, panel.LabelAngle)
	case CmdBBMin:
		e.copyRow(panel.Properties, panel.LabelBBMin)
	case CmdBBCenter:
		e.copyRow(panel.Properties, panel.LabelBBCenter)
	case CmdBBMax:
		e.copyRow(panel.Properties, panel.LabelBBMax)
	case CmdBBSize:
		e.copyRow(panel.Properties, panel.LabelBBSize)
	}
}

// primaryRow resolves the most relevant row: the distance row when the
// distance panel is visible, else the vertex row of the properties panel,
// falling back to its center row.
func (e *Engine) primaryRow() (*panel.Row, bool) {
	if d, ok := e.panels.Distance(); ok {
		if row, found := d.Row(panel.LabelDistance); found {
			return row, true
		}
	}
	if p, ok := e.panels.Properties(); ok {
		if row, found := p.Row(panel.LabelVertex); found {
			return row, true
		}
		if row, found := p.Row(panel.LabelCenter); found {
			return row, true
		}
	}
	return nil, false
}

func (e *Engine) anyPanelVisible() bool {
	return len(e.panels.VisibleViews()) > 0
}

func (e *Engine) copyPrimary() {
	if !e.anyPanelVisible() {
		e.notify.Notify("No panel visible", true)
		return
	}
	row, ok := e.primaryRow()
	if !ok {
		e.notify.Notify("No value available", true)
		return
	}
	text, err := panel.FormatRowMM(row, e.values)
	if err != nil {
		e.notify.Notify("No value available", true)
		return
	}
	e.copy(row.Label, text)
}

func (e *Engine) copyAxis(cmd Command) {
	if !e.anyPanelVisible() {
		e.notify.Notify("No panel visible", true)
		return
	}
	row, ok := e.primaryRow()
	if !ok || !row.Coordinate() {
		e.notify.Notify("No coordinates available", true)
		return
	}

	var axis dom.Node
	var name string
	switch cmd {
	case CmdAxisX:
		axis, name = row.X, "x"
	case CmdAxisY:
		axis, name = row.Y, "y"
	case CmdAxisZ:
		axis, name = row.Z, "z"
	}

	text, err := panel.FormatAxisMM(axis, e.values)
	if err != nil {
		e.notify.Notify("No coordinates available", true)
		return
	}
	e.copy(fmt.Sprintf("%s.%s", row.Label, name), text)
}

func (e *Engine) copyRow(kind panel.Kind, label string) {
	view, ok := e.view(kind)
	if !ok {
		e.notify.Notify(fmt.Sprintf("No %s panel visible", kind), true)
		return
	}
	row, found := view.Row(label)
	if !found {
		e.notify.Notify(fmt.Sprintf("No %s available", label), true)
		return
	}
	text, err := panel.FormatRowMM(row, e.values)
	if err != nil {
		e.notify.Notify(fmt.Sprintf("No %s available", label), true)
		return
	}
	e.copy(row.Label, text)
}

func (e *Engine) view(kind panel.Kind) (*panel.View, bool) {
	if kind == panel.Distance {
		return e.panels.Distance()
	}
	return e.panels.Properties()
}

func (e *Engine) copy(label, text string) {
	if err := e.page.WriteClipboard(text); err != nil {
		e.logger.Warn("yank: clipboard", "error", err)
		e.notify.Notify("Copy failed", true)
		return
	}
	e.notify.Notify(fmt.Sprintf("Copied %s: %s", label, text), false)
}
