// Package panel reads the viewer's measurement panels into a structured
// form. Both the copy overlay and the yank engine resolve rows through the
// same Reader so they can never disagree about panel structure.
package panel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/cadkeys/augment/internal/config"
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
)

// Kind identifies a measurement panel.
type Kind string

const (
	Properties Kind = "properties"
	Distance   Kind = "distance"
)

// Subject is the kind of geometry the properties panel describes, inferred
// from its subheader text.
type Subject int

const (
	SubjectUnknown Subject = iota
	SubjectVertex
	SubjectEdge
	SubjectFace
)

// Canonical row labels rendered by the viewer.
const (
	LabelVertex   = "Vertex"
	LabelCenter   = "Center"
	LabelArea     = "Area"
	LabelAngle    = "Angle"
	LabelBBMin    = "BB min"
	LabelBBCenter = "BB center"
	LabelBBMax    = "BB max"
	LabelBBSize   = "BB size"
	LabelDistance = "Distance"
	LabelPoint1   = "Point 1"
	LabelPoint2   = "Point 2"
	LabelDelta    = "Delta"
)

// Row is one measurement row.
type Row struct {
	Label     string
	Node      dom.Node
	LabelNode dom.Node   // nil when the row has no label cell
	Cells     []dom.Node // value cells in document order
	X, Y, Z   dom.Node   // set when the row carries coordinate sub-cells
	Angle     bool
	Reference bool
}

// Coordinate reports whether the row carries x/y/z sub-cells.
func (r *Row) Coordinate() bool {
	return r.X != nil && r.Y != nil && r.Z != nil
}

// View is one visible panel.
type View struct {
	Kind    Kind
	Subject Subject
	Rows    []Row
}

// Row finds a row by its canonical label, case-insensitively.
func (v *View) Row(label string) (*Row, bool) {
	for i := range v.Rows {
		if strings.EqualFold(strings.TrimSpace(v.Rows[i].Label), label) {
			return &v.Rows[i], true
		}
	}
	return nil, false
}

// Reader resolves panels from the live page.
type Reader struct {
	page dom.Page
	sel  config.Selectors
}

// NewReader creates a Reader over the page with the configured selectors.
func NewReader(page dom.Page, sel config.Selectors) *Reader {
	return &Reader{page: page, sel: sel}
}

// Properties returns the properties panel when visible.
func (r *Reader) Properties() (*View, bool) {
	return r.read(r.sel.PropertiesPanel, Properties)
}

// Distance returns the distance panel when visible.
func (r *Reader) Distance() (*View, bool) {
	return r.read(r.sel.DistancePanel, Distance)
}

// VisibleViews returns the currently visible panels in stable order:
// properties first, then distance.
func (r *Reader) VisibleViews() []*View {
	var views []*View
	if v, ok := r.Properties(); ok {
		views = append(views, v)
	}
	if v, ok := r.Distance(); ok {
		views = append(views, v)
	}
	return views
}

func (r *Reader) read(panelSel string, kind Kind) (*View, bool) {
	p, err := r.page.Find(panelSel)
	if err != nil {
		return nil, false
	}
	if vis, err := p.Visible(); err != nil || !vis {
		return nil, false
	}

	view := &View{Kind: kind, Subject: r.subject(p)}

	rows, err := p.FindAll(r.sel.Row)
	if err != nil {
		return view, true
	}
	for _, rowNode := range rows {
		row := Row{Node: rowNode}
		if labelNode, err := rowNode.Find(r.sel.RowLabel); err == nil {
			row.LabelNode = labelNode
			if text, err := labelNode.Text(); err == nil {
				row.Label = strings.TrimSpace(text)
			}
		}
		if cells, err := rowNode.FindAll(r.sel.MeasureCell); err == nil {
			row.Cells = cells
		}
		row.X = r.child(rowNode, r.sel.CellX)
		row.Y = r.child(rowNode, r.sel.CellY)
		row.Z = r.child(rowNode, r.sel.CellZ)
		if ang, err := rowNode.InAncestor(r.sel.AngleRow); err == nil {
			row.Angle = ang
		}
		if ref, err := rowNode.HasClass(r.sel.ReferenceClass); err == nil {
			row.Reference = ref
		}
		view.Rows = append(view.Rows, row)
	}

	return view, true
}

func (r *Reader) child(n dom.Node, selector string) dom.Node {
	c, err := n.Find(selector)
	if err != nil {
		return nil
	}
	return c
}

func (r *Reader) subject(p dom.Node) Subject {
	sub, err := p.Find(r.sel.Subheader)
	if err != nil {
		return SubjectUnknown
	}
	text, err := sub.Text()
	if err != nil {
		return SubjectUnknown
	}
	switch {
	case strings.Contains(strings.ToLower(text), "vertex"):
		return SubjectVertex
	case strings.Contains(strings.ToLower(text), "edge"):
		return SubjectEdge
	case strings.Contains(strings.ToLower(text), "face"):
		return SubjectFace
	}
	return SubjectUnknown
}

// ValueSource yields the canonical millimeter value for a cell. The unit
// engine implements it; copies always read millimeters regardless of the
// displayed unit.
type ValueSource interface {
	ValueOf(n dom.Node) (float64, bool)
}

// ErrNoValue is returned when a row has no readable value cell.
var ErrNoValue = errors.New("panel: no value available")

// FormatRowMM formats a row's value(s) in canonical millimeters fixed to
// 3 decimals: "x, y, z" for coordinate rows, a single number otherwise.
func FormatRowMM(row *Row, src ValueSource) (string, error) {
	format := func(n dom.Node) (string, error) {
		v, ok := src.ValueOf(n)
		if !ok {
			return "", ErrNoValue
		}
		return fmt.Sprintf("%.3f", v), nil
	}

	if row.Coordinate() {
		x, err := format(row.X)
		if err != nil {
			return "", err
		}
		y, err := format(row.Y)
		if err != nil {
			return "", err
		}
		z, err := format(row.Z)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s, %s, %s", x, y, z), nil
	}

	if len(row.Cells) == 0 {
		return "", ErrNoValue
	}
	return format(row.Cells[0])
}

// FormatAxisMM formats a single axis cell of a coordinate row.
func FormatAxisMM(axis dom.Node, src ValueSource) (string, error) {
	if axis == nil {
		return "", ErrNoValue
	}
	v, ok := src.ValueOf(axis)
	if !ok {
		return "", ErrNoValue
	}
	return fmt.Sprintf("%.3f", v), nil
}
