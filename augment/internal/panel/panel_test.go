package panel

import (
	"errors"
	"testing"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/dom/domtest"
)

func testSelectors() config.Selectors {
	cfg := config.Default()
	return cfg.Selectors
}

// vertexPanel builds a properties panel with a Vertex coordinate row.
func vertexPanel(sel config.Selectors) (*domtest.Node, *domtest.Node) {
	row := domtest.NewNode("").
		WithChild(sel.RowLabel, domtest.NewNode(" Vertex ")).
		WithChild(sel.CellX, domtest.NewNode("1.000")).
		WithChild(sel.CellY, domtest.NewNode("2.000")).
		WithChild(sel.CellZ, domtest.NewNode("3.000"))
	p := domtest.NewNode("").
		WithChild(sel.Subheader, domtest.NewNode("Vertex selected")).
		WithChild(sel.Row, row)
	return p, row
}

func TestReader_Properties(t *testing.T) {
	sel := testSelectors()
	page := domtest.NewPage()
	p, _ := vertexPanel(sel)
	page.Put(sel.PropertiesPanel, p)

	r := NewReader(page, sel)
	view, ok := r.Properties()
	if !ok {
		t.Fatal("Properties() not visible")
	}
	if view.Kind != Properties {
		t.Errorf("Kind = %q, want properties", view.Kind)
	}
	if view.Subject != SubjectVertex {
		t.Errorf("Subject = %v, want vertex", view.Subject)
	}

	row, found := view.Row("vertex") // case-insensitive
	if !found {
		t.Fatal("Row(vertex) not found")
	}
	if !row.Coordinate() {
		t.Error("Coordinate() = false, want true")
	}
}

func TestReader_HiddenPanel(t *testing.T) {
	sel := testSelectors()
	page := domtest.NewPage()
	p, _ := vertexPanel(sel)
	p.Hide()
	page.Put(sel.PropertiesPanel, p)

	r := NewReader(page, sel)
	if _, ok := r.Properties(); ok {
		t.Error("hidden panel reported visible")
	}
}

func TestReader_VisibleViewsOrder(t *testing.T) {
	sel := testSelectors()
	page := domtest.NewPage()
	props, _ := vertexPanel(sel)
	page.Put(sel.PropertiesPanel, props)

	dist := domtest.NewNode("").
		WithChild(sel.Row, domtest.NewNode("").
			WithChild(sel.RowLabel, domtest.NewNode("Distance")).
			WithChild(sel.MeasureCell, domtest.NewNode("5.000")))
	page.Put(sel.DistancePanel, dist)

	r := NewReader(page, sel)
	views := r.VisibleViews()
	if len(views) != 2 {
		t.Fatalf("VisibleViews() = %d views, want 2", len(views))
	}
	if views[0].Kind != Properties || views[1].Kind != Distance {
		t.Errorf("order = %q, %q; want properties, distance", views[0].Kind, views[1].Kind)
	}
}

func TestReader_ReferenceAndAngleRows(t *testing.T) {
	sel := testSelectors()
	page := domtest.NewPage()

	ref := domtest.NewNode("").WithClass(sel.ReferenceClass)
	ref = ref.WithChild(sel.RowLabel, domtest.NewNode("Point 1"))
	ang := domtest.NewNode("").WithAncestor(sel.AngleRow)
	ang = ang.WithChild(sel.RowLabel, domtest.NewNode("Angle"))

	p := domtest.NewNode("").WithChild(sel.Row, ref, ang)
	page.Put(sel.PropertiesPanel, p)

	r := NewReader(page, sel)
	view, ok := r.Properties()
	if !ok {
		t.Fatal("Properties() not visible")
	}
	if got := len(view.Rows); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if !view.Rows[0].Reference {
		t.Error("reference row not flagged")
	}
	if !view.Rows[1].Angle {
		t.Error("angle row not flagged")
	}
}

type fixedValues map[dom.NodeID]float64

func (f fixedValues) ValueOf(n dom.Node) (float64, bool) {
	v, ok := f[n.ID()]
	return v, ok
}

func TestFormatRowMM_Coordinates(t *testing.T) {
	sel := testSelectors()
	_, rowNode := vertexPanel(sel)

	x, _ := rowNode.Find(sel.CellX)
	y, _ := rowNode.Find(sel.CellY)
	z, _ := rowNode.Find(sel.CellZ)

	row := &Row{Label: LabelVertex, X: x, Y: y, Z: z}
	src := fixedValues{x.ID(): 1, y.ID(): 2.5, z.ID(): -3}

	got, err := FormatRowMM(row, src)
	if err != nil {
		t.Fatalf("FormatRowMM: %v", err)
	}
	want := "1.000, 2.500, -3.000"
	if got != want {
		t.Errorf("FormatRowMM = %q, want %q", got, want)
	}
}

func TestFormatRowMM_SingleCell(t *testing.T) {
	cell := domtest.NewNode("5.000")
	row := &Row{Label: LabelDistance, Cells: []dom.Node{cell}}
	src := fixedValues{cell.ID(): 5}

	got, err := FormatRowMM(row, src)
	if err != nil {
		t.Fatalf("FormatRowMM: %v", err)
	}
	if got != "5.000" {
		t.Errorf("FormatRowMM = %q, want %q", got, "5.000")
	}
}

func TestFormatRowMM_NoValue(t *testing.T) {
	row := &Row{Label: LabelArea}
	if _, err := FormatRowMM(row, fixedValues{}); !errors.Is(err, ErrNoValue) {
		t.Errorf("err = %v, want ErrNoValue", err)
	}
}

func TestFormatAxisMM(t *testing.T) {
	cell := domtest.NewNode("7.000")
	src := fixedValues{cell.ID(): 7}

	got, err := FormatAxisMM(cell, src)
	if err != nil {
		t.Fatalf("FormatAxisMM: %v", err)
	}
	if got != "7.000" {
		t.Errorf("FormatAxisMM = %q, want %q", got, "7.000")
	}

	if _, err := FormatAxisMM(nil, src); !errors.Is(err, ErrNoValue) {
		t.Errorf("nil axis err = %v, want ErrNoValue", err)
	}
}
