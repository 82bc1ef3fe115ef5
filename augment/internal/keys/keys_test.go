package keys

import (
	"testing"
	"time"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/dom/domtest"
	"github.com/hazyhaar/cadkeys/augment/internal/panel"
	"github.com/hazyhaar/cadkeys/augment/internal/toast"
	"github.com/hazyhaar/cadkeys/augment/internal/units"
	"github.com/hazyhaar/cadkeys/augment/internal/yank"
)

type fixture struct {
	page   *domtest.Page
	cfg    *config.Config
	units  *units.Engine
	yank   *yank.Engine
	router *Router

	recorded []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	page := domtest.NewPage()
	notify := toast.NewPageNotifier(page, nil)

	f := &fixture{page: page, cfg: cfg}

	f.units = units.New(units.Config{
		Page:             page,
		CellSelector:     cfg.Selectors.MeasureCell,
		AngleRowSelector: cfg.Selectors.AngleRow,
	})
	f.yank = yank.New(yank.Config{
		Page:    page,
		Panels:  panel.NewReader(page, cfg.Selectors),
		Values:  f.units,
		Notify:  notify,
		Timeout: 2 * time.Second,
	})
	f.router = NewRouter(Config{
		Page:      page,
		Bindings:  cfg.Bindings,
		Keys:      cfg.Keys,
		Selectors: cfg.Selectors,
		Units:     f.units,
		Yank:      f.yank,
		Notify:    notify,
		Record: func(action, detail string) {
			f.recorded = append(f.recorded, action+":"+detail)
		},
	})
	return f
}

func key(k string) dom.KeyEvent      { return dom.KeyEvent{Key: k} }
func shiftKey(k string) dom.KeyEvent { return dom.KeyEvent{Key: k, Shift: true} }

func TestViewBinding(t *testing.T) {
	f := newFixture(t)
	btn := domtest.NewNode("")
	f.page.Put(".tcv_front", btn)

	f.router.Handle(key("f"))

	if btn.Clicks != 1 {
		t.Fatalf("clicks = %d, want 1", btn.Clicks)
	}
	toast := f.page.LastToast()
	if toast.Msg != "Front view" || toast.Emphasis {
		t.Errorf("toast = %+v, want plain 'Front view'", toast)
	}
}

func TestShiftedViewBinding(t *testing.T) {
	f := newFixture(t)
	front := domtest.NewNode("")
	rear := domtest.NewNode("")
	f.page.Put(".tcv_front", front)
	f.page.Put(".tcv_rear", rear)

	f.router.Handle(shiftKey("f"))

	if front.Clicks != 0 || rear.Clicks != 1 {
		t.Errorf("clicks front=%d rear=%d, want 0/1", front.Clicks, rear.Clicks)
	}
	if got := f.page.LastToast().Msg; got != "Rear view" {
		t.Errorf("toast = %q, want %q", got, "Rear view")
	}
}

func TestToggleBinding_ReportsState(t *testing.T) {
	f := newFixture(t)
	marker := f.cfg.Selectors.ButtonFrame + "." + f.cfg.Selectors.ActiveClass

	on := domtest.NewNode("").WithAncestor(marker)
	f.page.Put(".tcv_grid", on)
	f.router.Handle(key("g"))
	if got := f.page.LastToast().Msg; got != "Grid: ON" {
		t.Errorf("toast = %q, want %q", got, "Grid: ON")
	}

	f.page.Remove(".tcv_grid")
	off := domtest.NewNode("")
	f.page.Put(".tcv_grid", off)
	f.router.Handle(key("g"))
	if got := f.page.LastToast().Msg; got != "Grid: OFF" {
		t.Errorf("toast = %q, want %q", got, "Grid: OFF")
	}
}

func TestBinding_TargetMissing(t *testing.T) {
	f := newFixture(t)
	f.router.Handle(key("f"))

	toast := f.page.LastToast()
	if toast.Msg != "Front view not ready" || !toast.Emphasis {
		t.Errorf("toast = %+v, want emphasised not-ready", toast)
	}
}

func TestEditableAndChordedPassThrough(t *testing.T) {
	f := newFixture(t)
	btn := domtest.NewNode("")
	f.page.Put(".tcv_front", btn)

	f.router.Handle(dom.KeyEvent{Key: "f", Editable: true})
	f.router.Handle(dom.KeyEvent{Key: "f", Ctrl: true})
	f.router.Handle(dom.KeyEvent{Key: "f", Alt: true})
	f.router.Handle(dom.KeyEvent{Key: "f", Meta: true})

	if btn.Clicks != 0 {
		t.Errorf("clicks = %d, want 0 (events must pass through)", btn.Clicks)
	}
}

func TestUnitToggleKey(t *testing.T) {
	f := newFixture(t)
	f.router.Handle(key("u"))

	if got := f.units.Settings().Unit; got != units.UnitInch {
		t.Errorf("unit = %q, want inch", got)
	}
	if got := f.page.LastToast().Msg; got != "Units: inch" {
		t.Errorf("toast = %q, want %q", got, "Units: inch")
	}

	f.router.Handle(key("u"))
	if got := f.page.LastToast().Msg; got != "Units: mm" {
		t.Errorf("toast = %q, want %q", got, "Units: mm")
	}
}

func TestPrecisionCycleKey(t *testing.T) {
	f := newFixture(t)
	f.router.Handle(shiftKey("u"))

	if got := f.units.Settings().Denominator; got != 32 {
		t.Errorf("denominator = %d, want 32", got)
	}
	if got := f.page.LastToast().Msg; got != `Precision: 1/32"` {
		t.Errorf("toast = %q, want %q", got, `Precision: 1/32"`)
	}
}

func TestFeetToggleKey(t *testing.T) {
	f := newFixture(t)
	f.router.Handle(key("'"))

	if !f.units.Settings().ShowFeet {
		t.Error("ShowFeet = false after toggle")
	}
	if got := f.page.LastToast().Msg; got != "Feet display: on" {
		t.Errorf("toast = %q, want %q", got, "Feet display: on")
	}
}

func TestYankTakesPriority(t *testing.T) {
	f := newFixture(t)
	// x is bound to the axes toggle, but inside a yank sequence it must go
	// to the sequence machine instead.
	axes := domtest.NewNode("")
	f.page.Put(".tcv_axes", axes)

	f.router.Handle(key("y"))
	if !f.yank.Active() {
		t.Fatal("yank not active after y")
	}
	f.router.Handle(key("x"))

	if axes.Clicks != 0 {
		t.Errorf("axes clicked %d times during yank sequence", axes.Clicks)
	}
	if f.yank.Active() {
		t.Error("yank still active after consuming x")
	}
}

func TestPress(t *testing.T) {
	f := newFixture(t)
	btn := domtest.NewNode("")
	f.page.Put(".tcv_top", btn)

	if !f.router.Press("t", false) {
		t.Fatal("Press(t) = false")
	}
	if btn.Clicks != 1 {
		t.Errorf("clicks = %d, want 1", btn.Clicks)
	}
	if f.router.Press("ö", false) {
		t.Error("Press accepted unbound key")
	}
}

func TestRecording(t *testing.T) {
	f := newFixture(t)
	btn := domtest.NewNode("")
	f.page.Put(".tcv_front", btn)

	f.router.Handle(key("f"))
	f.router.Handle(key("u"))

	want := []string{"press:.tcv_front", "unit:inch"}
	if len(f.recorded) != len(want) {
		t.Fatalf("recorded = %v, want %v", f.recorded, want)
	}
	for i := range want {
		if f.recorded[i] != want[i] {
			t.Errorf("recorded[%d] = %q, want %q", i, f.recorded[i], want[i])
		}
	}
}
