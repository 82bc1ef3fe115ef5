// Package domtest provides an in-memory dom.Page for component tests.
// Selectors are matched by exact string against what the test registered;
// there is no CSS engine, only the lookup contract.
package domtest

import (
	"fmt"

	"github.com/hazyhaar/cadkeys/augment/internal/dom"
)

// Page is a fake dom.Page. Zero value is not usable; call NewPage.
type Page struct {
	nodes  map[string][]*Node // selector → matches, in order
	events chan dom.Event

	Toasts    []Toast
	Clipboard []string
	// ClipboardErr, when set, makes WriteClipboard fail.
	ClipboardErr error

	Overlay      []dom.OverlayButton
	OverlaySets  int
	Hint         *dom.Hint
	HintHidden   int
	UnitBar      dom.UnitBarState
	UnitBarCalls int
}

// Toast is one recorded notification.
type Toast struct {
	Msg      string
	Emphasis bool
}

func NewPage() *Page {
	return &Page{
		nodes:  make(map[string][]*Node),
		events: make(chan dom.Event, 16),
	}
}

// Put registers nodes under an exact selector string.
func (p *Page) Put(selector string, nodes ...*Node) {
	p.nodes[selector] = append(p.nodes[selector], nodes...)
}

// Remove drops every node registered under the selector.
func (p *Page) Remove(selector string) {
	delete(p.nodes, selector)
}

// Emit injects an event as if it came from the live page.
func (p *Page) Emit(ev dom.Event) { p.events <- ev }

func (p *Page) Find(selector string) (dom.Node, error) {
	ns := p.nodes[selector]
	if len(ns) == 0 {
		return nil, dom.ErrNotFound
	}
	return ns[0], nil
}

func (p *Page) FindAll(selector string) ([]dom.Node, error) {
	ns := p.nodes[selector]
	out := make([]dom.Node, 0, len(ns))
	for _, n := range ns {
		out = append(out, n)
	}
	return out, nil
}

func (p *Page) SetOverlay(buttons []dom.OverlayButton) error {
	p.Overlay = buttons
	p.OverlaySets++
	return nil
}

func (p *Page) ClearOverlay() error {
	p.Overlay = nil
	return nil
}

func (p *Page) ShowHint(h dom.Hint) error {
	hint := h
	p.Hint = &hint
	return nil
}

func (p *Page) HideHint() error {
	p.Hint = nil
	p.HintHidden++
	return nil
}

func (p *Page) ShowToast(msg string, emphasis bool) error {
	p.Toasts = append(p.Toasts, Toast{Msg: msg, Emphasis: emphasis})
	return nil
}

func (p *Page) SetUnitBar(state dom.UnitBarState) error {
	p.UnitBar = state
	p.UnitBarCalls++
	return nil
}

func (p *Page) WriteClipboard(text string) error {
	if p.ClipboardErr != nil {
		return p.ClipboardErr
	}
	p.Clipboard = append(p.Clipboard, text)
	return nil
}

func (p *Page) Events() <-chan dom.Event { return p.events }

// LastToast returns the most recent toast, or a zero Toast.
func (p *Page) LastToast() Toast {
	if len(p.Toasts) == 0 {
		return Toast{}
	}
	return p.Toasts[len(p.Toasts)-1]
}

var nodeSeq int

// Node is a fake dom.Node.
type Node struct {
	id        dom.NodeID
	text      string
	visible   bool
	classes   map[string]bool
	ancestors map[string]bool    // selector → closest() would match
	children  map[string][]*Node // relative selector → matches

	Clicks   int
	Written  []string // texts written through SetText, in order
	RectVal  dom.Rect
	TextErr  error // when set, Text fails
	WriteErr error // when set, SetText fails
}

// NewNode creates a visible node with the given text content.
func NewNode(text string) *Node {
	nodeSeq++
	return &Node{
		id:        dom.NodeID(fmt.Sprintf("fake-%d", nodeSeq)),
		text:      text,
		visible:   true,
		classes:   make(map[string]bool),
		ancestors: make(map[string]bool),
		children:  make(map[string][]*Node),
	}
}

// WithClass marks the node as carrying a class.
func (n *Node) WithClass(classes ...string) *Node {
	for _, c := range classes {
		n.classes[c] = true
	}
	return n
}

// WithAncestor makes InAncestor(selector) return true.
func (n *Node) WithAncestor(selectors ...string) *Node {
	for _, s := range selectors {
		n.ancestors[s] = true
	}
	return n
}

// WithChild registers child nodes under a relative selector.
func (n *Node) WithChild(selector string, children ...*Node) *Node {
	n.children[selector] = append(n.children[selector], children...)
	return n
}

// WithRect sets the bounding rect.
func (n *Node) WithRect(x, y, w, h float64) *Node {
	n.RectVal = dom.Rect{X: x, Y: y, W: w, H: h}
	return n
}

// Hide makes the node invisible.
func (n *Node) Hide() *Node {
	n.visible = false
	return n
}

// SetLiveText changes the displayed text as the host page would: outside
// of SetText, without recording a write.
func (n *Node) SetLiveText(text string) { n.text = text }

func (n *Node) ID() dom.NodeID { return n.id }

func (n *Node) Text() (string, error) {
	if n.TextErr != nil {
		return "", n.TextErr
	}
	return n.text, nil
}

func (n *Node) SetText(s string) error {
	if n.WriteErr != nil {
		return n.WriteErr
	}
	n.text = s
	n.Written = append(n.Written, s)
	return nil
}

func (n *Node) Click() error {
	n.Clicks++
	return nil
}

func (n *Node) Visible() (bool, error) { return n.visible, nil }

func (n *Node) HasClass(class string) (bool, error) { return n.classes[class], nil }

func (n *Node) InAncestor(selector string) (bool, error) { return n.ancestors[selector], nil }

func (n *Node) Rect() (dom.Rect, error) { return n.RectVal, nil }

func (n *Node) Find(selector string) (dom.Node, error) {
	ns := n.children[selector]
	if len(ns) == 0 {
		return nil, dom.ErrNotFound
	}
	return ns[0], nil
}

func (n *Node) FindAll(selector string) ([]dom.Node, error) {
	ns := n.children[selector]
	out := make([]dom.Node, 0, len(ns))
	for _, c := range ns {
		out = append(out, c)
	}
	return out, nil
}
