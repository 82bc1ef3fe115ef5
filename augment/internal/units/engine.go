// Package units owns the display unit state and rewrites measurement cells
// in the viewer panels, preserving the canonical millimeter values so the
// originals can be restored and host overwrites detected.
package units

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hazyhaar/cadkeys/augment/internal/dom"
)

// Unit is the display unit.
type Unit string

const (
	UnitMM   Unit = "mm"
	UnitInch Unit = "inch"
)

// Settings is the session-scoped unit state. Denominator and ShowFeet keep
// their values while the unit is mm, so switching back to inches resumes
// the prior precision.
type Settings struct {
	Unit        Unit
	Denominator int
	ShowFeet    bool
}

// Widget reflects the current settings in the on-page unit bar. Every
// setter refreshes it before returning, so bar and state cannot diverge.
type Widget interface {
	Refresh(Settings) error
}

// Config for creating an Engine.
type Config struct {
	Page             dom.Page
	CellSelector     string
	AngleRowSelector string
	Widget           Widget
	Logger           *slog.Logger
}

// cellState is the engine-private side table entry for one measurement
// cell: the millimeter value captured on first sighting and the exact text
// we last wrote, used to detect host overwrites.
type cellState struct {
	original    float64
	lastWritten string
}

// Engine is the unit conversion engine.
type Engine struct {
	page     dom.Page
	cellSel  string
	angleSel string
	widget   Widget
	logger   *slog.Logger

	settings Settings
	cells    map[dom.NodeID]*cellState
	// skipped remembers cells whose text failed to parse, keyed to the
	// text we saw, so the reconciliation tick does not re-trigger a full
	// conversion pass for them every interval.
	skipped map[dom.NodeID]string
}

// New creates an Engine in millimeter mode at 1/16 precision.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		page:     cfg.Page,
		cellSel:  cfg.CellSelector,
		angleSel: cfg.AngleRowSelector,
		widget:   cfg.Widget,
		logger:   cfg.Logger,
		settings: Settings{Unit: UnitMM, Denominator: 16},
		cells:    make(map[dom.NodeID]*cellState),
		skipped:  make(map[dom.NodeID]string),
	}
}

// Settings returns the current unit state.
func (e *Engine) Settings() Settings { return e.settings }

// Tracked returns how many cells currently carry a cached original value.
func (e *Engine) Tracked() int { return len(e.cells) }

// SwitchUnit switches the display unit. No-op when already current.
func (e *Engine) SwitchUnit(u Unit) error {
	if u != UnitMM && u != UnitInch {
		return fmt.Errorf("units: unknown unit %q", u)
	}
	if u == e.settings.Unit {
		return nil
	}
	e.settings.Unit = u
	e.refreshWidget()

	if u == UnitInch {
		return e.ConvertAll()
	}
	return e.RestoreAll()
}

// ToggleUnit flips between mm and inch and returns the new unit.
func (e *Engine) ToggleUnit() (Unit, error) {
	next := UnitInch
	if e.settings.Unit == UnitInch {
		next = UnitMM
	}
	return next, e.SwitchUnit(next)
}

// SetPrecision sets the fractional denominator: 8, 16 or 32.
func (e *Engine) SetPrecision(denom int) error {
	switch denom {
	case 8, 16, 32:
	default:
		return fmt.Errorf("units: invalid denominator %d", denom)
	}
	e.settings.Denominator = denom
	e.refreshWidget()

	if e.settings.Unit == UnitInch {
		return e.ConvertAll()
	}
	return nil
}

// CyclePrecision advances 8 → 16 → 32 → 8 and returns the new denominator.
func (e *Engine) CyclePrecision() (int, error) {
	next := 8
	switch e.settings.Denominator {
	case 8:
		next = 16
	case 16:
		next = 32
	}
	return next, e.SetPrecision(next)
}

// ToggleFeet flips the feet display flag and returns the new value.
func (e *Engine) ToggleFeet() (bool, error) {
	e.settings.ShowFeet = !e.settings.ShowFeet
	e.refreshWidget()

	if e.settings.Unit == UnitInch {
		return e.settings.ShowFeet, e.ConvertAll()
	}
	return e.settings.ShowFeet, nil
}

// ConvertAll rewrites every measurement cell in the page to the current
// display unit. Cells on angle rows are never converted. A tracked cell
// whose live text diverged from what we last wrote was overwritten by the
// host: its cache entry is discarded and the new text re-captured.
func (e *Engine) ConvertAll() error {
	cells, err := e.page.FindAll(e.cellSel)
	if err != nil {
		return fmt.Errorf("units: scan cells: %w", err)
	}

	seen := make(map[dom.NodeID]bool, len(cells))
	for _, c := range cells {
		if ang, err := c.InAncestor(e.angleSel); err != nil || ang {
			continue
		}
		id := c.ID()
		seen[id] = true

		live, err := c.Text()
		if err != nil {
			continue
		}

		st, ok := e.cells[id]
		if ok && st.lastWritten != live {
			// Host overwrote the cell; the displayed text is fresh data.
			delete(e.cells, id)
			ok = false
		}
		if !ok {
			v, perr := parseNumber(live)
			if perr != nil {
				e.skipped[id] = live
				continue
			}
			delete(e.skipped, id)
			st = &cellState{original: v}
			e.cells[id] = st
		}

		want := e.render(st.original)
		if want != live {
			if werr := c.SetText(want); werr != nil {
				e.logger.Warn("units: write cell", "error", werr)
				delete(e.cells, id)
				continue
			}
		}
		st.lastWritten = want
	}

	e.sweep(seen)
	return nil
}

// RestoreAll writes the millimeter text back into every tracked cell and
// clears all tracking.
func (e *Engine) RestoreAll() error {
	cells, err := e.page.FindAll(e.cellSel)
	if err != nil {
		return fmt.Errorf("units: scan cells: %w", err)
	}

	for _, c := range cells {
		st, ok := e.cells[c.ID()]
		if !ok {
			continue
		}
		if werr := c.SetText(MM3(st.original)); werr != nil {
			e.logger.Warn("units: restore cell", "error", werr)
		}
		delete(e.cells, c.ID())
	}

	// Entries left over belong to cells no longer in the page.
	e.cells = make(map[dom.NodeID]*cellState)
	e.skipped = make(map[dom.NodeID]string)
	return nil
}

// ReconcileTick runs one background reconciliation pass. The host rewrites
// panel values asynchronously with no observable event, so while in inch
// mode we scan on an interval and reconvert when any cell is new or has
// text diverging from what we last wrote.
func (e *Engine) ReconcileTick() error {
	if e.settings.Unit != UnitInch {
		return nil
	}

	cells, err := e.page.FindAll(e.cellSel)
	if err != nil {
		return fmt.Errorf("units: reconcile scan: %w", err)
	}

	dirty := false
	for _, c := range cells {
		if ang, err := c.InAncestor(e.angleSel); err != nil || ang {
			continue
		}
		live, err := c.Text()
		if err != nil {
			continue
		}
		if st, ok := e.cells[c.ID()]; ok {
			if live != st.lastWritten {
				dirty = true
				break
			}
			continue
		}
		if prev, ok := e.skipped[c.ID()]; ok && prev == live {
			continue
		}
		dirty = true
		break
	}

	if dirty {
		return e.ConvertAll()
	}
	return nil
}

// ValueOf returns the canonical millimeter value for a cell: the cached
// original when the cell is tracked, otherwise the parsed live text.
func (e *Engine) ValueOf(n dom.Node) (float64, bool) {
	if st, ok := e.cells[n.ID()]; ok {
		return st.original, true
	}
	text, err := n.Text()
	if err != nil {
		return 0, false
	}
	v, err := parseNumber(text)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (e *Engine) render(mm float64) string {
	if e.settings.Unit == UnitInch {
		return MMToFractionalInches(mm, e.settings.Denominator, e.settings.ShowFeet)
	}
	return MM3(mm)
}

func (e *Engine) refreshWidget() {
	if e.widget == nil {
		return
	}
	if err := e.widget.Refresh(e.settings); err != nil {
		e.logger.Warn("units: widget refresh", "error", err)
	}
}

// sweep prunes side-table entries for cells no longer present in the page.
func (e *Engine) sweep(seen map[dom.NodeID]bool) {
	for id := range e.cells {
		if !seen[id] {
			delete(e.cells, id)
		}
	}
	for id := range e.skipped {
		if !seen[id] {
			delete(e.skipped, id)
		}
	}
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
