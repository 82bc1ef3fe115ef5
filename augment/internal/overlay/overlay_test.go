package overlay

import (
	"strings"
	"testing"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/dom/domtest"
	"github.com/hazyhaar/cadkeys/augment/internal/panel"
	"github.com/hazyhaar/cadkeys/augment/internal/toast"
)

type values map[dom.NodeID]float64

func (v values) ValueOf(n dom.Node) (float64, bool) {
	x, ok := v[n.ID()]
	return x, ok
}

func setup(t *testing.T) (*domtest.Page, *Sync, config.Selectors, values) {
	t.Helper()
	sel := config.Default().Selectors
	page := domtest.NewPage()
	vals := values{}
	s := New(Config{
		Page:   page,
		Panels: panel.NewReader(page, sel),
		Values: vals,
		Notify: toast.NewPageNotifier(page, nil),
	})
	return page, s, sel, vals
}

func addDistancePanel(page *domtest.Page, sel config.Selectors, vals values) *domtest.Node {
	cell := domtest.NewNode("5.000")
	vals[cell.ID()] = 5
	label := domtest.NewNode("Distance").WithRect(10, 20, 60, 14)
	row := domtest.NewNode("").
		WithChild(sel.RowLabel, label).
		WithChild(sel.MeasureCell, cell)
	p := domtest.NewNode("").WithChild(sel.Row, row)
	page.Put(sel.DistancePanel, p)
	return p
}

func TestTick_BuildsButtons(t *testing.T) {
	page, s, sel, vals := setup(t)
	addDistancePanel(page, sel, vals)

	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(page.Overlay) != 1 {
		t.Fatalf("buttons = %d, want 1", len(page.Overlay))
	}
	b := page.Overlay[0]
	if b.Title != "copy value" {
		t.Errorf("Title = %q, want %q", b.Title, "copy value")
	}
	// Button sits just right of the label.
	if b.X != 10+60+buttonGap || b.Y != 20 {
		t.Errorf("position = (%v, %v), want (%v, 20)", b.X, b.Y, 10+60+buttonGap)
	}
}

func TestTick_SkipsUnchangedStructure(t *testing.T) {
	page, s, sel, vals := setup(t)
	addDistancePanel(page, sel, vals)

	for i := 0; i < 3; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}
	if page.OverlaySets != 1 {
		t.Errorf("SetOverlay calls = %d, want 1", page.OverlaySets)
	}
}

func TestTick_RebuildsWhenPanelCloses(t *testing.T) {
	page, s, sel, vals := setup(t)
	addDistancePanel(page, sel, vals)

	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	page.Remove(sel.DistancePanel)
	if err := s.Tick(); err != nil {
		t.Fatalf("Tick after close: %v", err)
	}
	if len(page.Overlay) != 0 {
		t.Errorf("buttons = %d after panel closed, want 0", len(page.Overlay))
	}
	if page.OverlaySets != 2 {
		t.Errorf("SetOverlay calls = %d, want 2", page.OverlaySets)
	}
}

func TestTick_SkipsReferenceRows(t *testing.T) {
	page, s, sel, _ := setup(t)

	row := domtest.NewNode("").WithClass(sel.ReferenceClass).
		WithChild(sel.RowLabel, domtest.NewNode("Point 1").WithRect(0, 0, 40, 14))
	p := domtest.NewNode("").WithChild(sel.Row, row)
	page.Put(sel.DistancePanel, p)

	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(page.Overlay) != 0 {
		t.Errorf("buttons = %d for reference row, want 0", len(page.Overlay))
	}
}

func TestTick_CoordinateRowTitle(t *testing.T) {
	page, s, sel, vals := setup(t)

	x := domtest.NewNode("1.000")
	y := domtest.NewNode("2.000")
	z := domtest.NewNode("3.000")
	vals[x.ID()], vals[y.ID()], vals[z.ID()] = 1, 2, 3
	row := domtest.NewNode("").
		WithChild(sel.RowLabel, domtest.NewNode("Vertex").WithRect(0, 0, 50, 14)).
		WithChild(sel.CellX, x).WithChild(sel.CellY, y).WithChild(sel.CellZ, z)
	p := domtest.NewNode("").WithChild(sel.Row, row)
	page.Put(sel.PropertiesPanel, p)

	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(page.Overlay) != 1 || page.Overlay[0].Title != "copy coordinates" {
		t.Fatalf("overlay = %+v, want one copy-coordinates button", page.Overlay)
	}
}

func TestHandleCopy(t *testing.T) {
	page, s, sel, vals := setup(t)
	addDistancePanel(page, sel, vals)

	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	s.HandleCopy(page.Overlay[0].ID)

	if len(page.Clipboard) != 1 || page.Clipboard[0] != "5.000" {
		t.Fatalf("clipboard = %v, want [5.000]", page.Clipboard)
	}
	toast := page.LastToast()
	if !strings.Contains(toast.Msg, "Copied Distance") || !strings.Contains(toast.Msg, "5.000") {
		t.Errorf("toast = %q, want copied confirmation", toast.Msg)
	}
	if toast.Emphasis {
		t.Error("success toast should not be emphasised")
	}
}

func TestHandleCopy_UnknownID(t *testing.T) {
	page, s, _, _ := setup(t)
	s.HandleCopy("bogus")
	toast := page.LastToast()
	if toast.Msg != "Copy failed" || !toast.Emphasis {
		t.Errorf("toast = %+v, want emphasised copy failure", toast)
	}
}

func TestHandleCopy_ClipboardError(t *testing.T) {
	page, s, sel, vals := setup(t)
	addDistancePanel(page, sel, vals)
	page.ClipboardErr = dom.ErrNotFound

	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	s.HandleCopy(page.Overlay[0].ID)
	if got := page.LastToast().Msg; got != "Copy failed" {
		t.Errorf("toast = %q, want %q", got, "Copy failed")
	}
}
