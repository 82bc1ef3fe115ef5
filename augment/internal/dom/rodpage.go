package dom

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed capture.js
var captureJS []byte

const bindingName = "__cadkeys_binding"

// RodPage implements Page over a go-rod page attached via CDP.
type RodPage struct {
	page    *rod.Page
	events  chan Event
	logger  *slog.Logger
	sanitze *bluemonday.Policy
}

// NewRodPage wraps a rod page. Call Attach before reading Events.
func NewRodPage(page *rod.Page, logger *slog.Logger) *RodPage {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodPage{
		page:    page,
		events:  make(chan Event, 64),
		logger:  logger,
		sanitze: bluemonday.StrictPolicy(),
	}
}

// Attach installs the capture shim: a Runtime binding for page→Go events
// and the injected key/UI script. Call exactly once, after the viewer
// toolbar exists.
func (p *RodPage) Attach(ctx context.Context) error {
	err := proto.RuntimeAddBinding{Name: bindingName}.Call(p.page)
	if err != nil {
		p.logger.Warn("dom: addBinding failed (may already exist)", "error", err)
	}

	go p.listenBinding(ctx)

	if _, err := p.page.Eval(string(captureJS)); err != nil {
		return fmt.Errorf("dom: inject capture.js: %w", err)
	}

	p.logger.Debug("dom: capture attached")
	return nil
}

// listenBinding receives calls from the page shim via Runtime.bindingCalled.
func (p *RodPage) listenBinding(ctx context.Context) {
	p.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}

		var msg struct {
			Type     string `json:"type"`
			Key      string `json:"key"`
			Shift    bool   `json:"shift"`
			Ctrl     bool   `json:"ctrl"`
			Alt      bool   `json:"alt"`
			Meta     bool   `json:"meta"`
			Editable bool   `json:"editable"`
			ID       string `json:"id"`
		}
		if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
			p.logger.Warn("dom: parse binding payload", "error", err)
			return
		}

		var ev Event
		switch msg.Type {
		case "key":
			ev = Event{Key: &KeyEvent{
				Key:      strings.ToLower(msg.Key),
				Shift:    msg.Shift,
				Ctrl:     msg.Ctrl,
				Alt:      msg.Alt,
				Meta:     msg.Meta,
				Editable: msg.Editable,
			}}
		case "copy":
			ev = Event{Copy: msg.ID}
		default:
			return
		}

		select {
		case p.events <- ev:
		default:
			// The loop is wedged; dropping beats backpressure on CDP.
			p.logger.Warn("dom: event buffer full, dropping", "type", msg.Type)
		}
	})()
}

func (p *RodPage) Events() <-chan Event { return p.events }

func (p *RodPage) Find(selector string) (Node, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	return &rodNode{el: els.First(), page: p}, nil
}

func (p *RodPage) FindAll(selector string) ([]Node, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", selector, err)
	}
	nodes := make([]Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &rodNode{el: el, page: p})
	}
	return nodes, nil
}

// clean strips any markup from text read out of the host page before it is
// re-presented in our own layers.
func (p *RodPage) clean(s string) string {
	return html.UnescapeString(p.sanitze.Sanitize(s))
}

func (p *RodPage) SetOverlay(buttons []OverlayButton) error {
	type btn struct {
		ID    string  `json:"id"`
		Title string  `json:"title"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	payload := make([]btn, 0, len(buttons))
	for _, b := range buttons {
		payload = append(payload, btn{ID: b.ID, Title: p.clean(b.Title), X: b.X, Y: b.Y})
	}
	_, err := p.page.Eval(`(buttons) => window.__cadkeys_ui.setOverlay(buttons)`, payload)
	if err != nil {
		return fmt.Errorf("dom: set overlay: %w", err)
	}
	return nil
}

func (p *RodPage) ClearOverlay() error {
	_, err := p.page.Eval(`() => window.__cadkeys_ui.clearOverlay()`)
	if err != nil {
		return fmt.Errorf("dom: clear overlay: %w", err)
	}
	return nil
}

func (p *RodPage) ShowHint(h Hint) error {
	type row struct {
		Key   string `json:"key"`
		Label string `json:"label"`
		Dim   bool   `json:"dim"`
	}
	payload := struct {
		Title string `json:"title"`
		Rows  []row  `json:"rows"`
	}{Title: p.clean(h.Title)}
	for _, r := range h.Rows {
		payload.Rows = append(payload.Rows, row{Key: r.Key, Label: p.clean(r.Label), Dim: r.Dim})
	}
	_, err := p.page.Eval(`(hint) => window.__cadkeys_ui.showHint(hint)`, payload)
	if err != nil {
		return fmt.Errorf("dom: show hint: %w", err)
	}
	return nil
}

func (p *RodPage) HideHint() error {
	_, err := p.page.Eval(`() => window.__cadkeys_ui.hideHint()`)
	if err != nil {
		return fmt.Errorf("dom: hide hint: %w", err)
	}
	return nil
}

// toastDuration is how long a toast stays visible, in milliseconds.
const toastDuration = 2200

func (p *RodPage) ShowToast(msg string, emphasis bool) error {
	_, err := p.page.Eval(`(msg, emphasis, ms) => window.__cadkeys_ui.toast(msg, emphasis, ms)`,
		p.clean(msg), emphasis, toastDuration)
	if err != nil {
		return fmt.Errorf("dom: toast: %w", err)
	}
	return nil
}

func (p *RodPage) SetUnitBar(state UnitBarState) error {
	payload := struct {
		Unit        string `json:"unit"`
		Denominator int    `json:"denominator"`
		ShowFeet    bool   `json:"show_feet"`
	}{state.Unit, state.Denominator, state.ShowFeet}
	_, err := p.page.Eval(`(s) => window.__cadkeys_ui.unitBar(s)`, payload)
	if err != nil {
		return fmt.Errorf("dom: unit bar: %w", err)
	}
	return nil
}

func (p *RodPage) WriteClipboard(text string) error {
	_, err := p.page.Eval(`async (t) => { await navigator.clipboard.writeText(t) }`, text)
	if err != nil {
		return fmt.Errorf("dom: clipboard write: %w", err)
	}
	return nil
}

// rodNode implements Node over a rod element.
type rodNode struct {
	el   *rod.Element
	page *RodPage
	id   NodeID
}

// ID resolves the CDP backend node ID, which is stable for the lifetime of
// the element in the page (unlike remote object IDs, which change per query).
func (n *rodNode) ID() NodeID {
	if n.id != "" {
		return n.id
	}
	node, err := n.el.Describe(0, false)
	if err != nil {
		// Fall back to the per-query object handle; worst case the cell
		// is re-captured on the next pass.
		n.id = NodeID(n.el.Object.ObjectID)
		return n.id
	}
	n.id = NodeID(fmt.Sprintf("b%d", node.BackendNodeID))
	return n.id
}

func (n *rodNode) Text() (string, error) {
	res, err := n.el.Eval(`() => this.textContent`)
	if err != nil {
		return "", fmt.Errorf("dom: read text: %w", err)
	}
	return res.Value.Str(), nil
}

func (n *rodNode) SetText(s string) error {
	_, err := n.el.Eval(`(t) => { this.textContent = t }`, s)
	if err != nil {
		return fmt.Errorf("dom: write text: %w", err)
	}
	return nil
}

func (n *rodNode) Click() error {
	if err := n.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("dom: click: %w", err)
	}
	return nil
}

func (n *rodNode) Visible() (bool, error) {
	vis, err := n.el.Visible()
	if err != nil {
		return false, fmt.Errorf("dom: visibility: %w", err)
	}
	return vis, nil
}

func (n *rodNode) HasClass(class string) (bool, error) {
	res, err := n.el.Eval(`(c) => this.classList.contains(c)`, class)
	if err != nil {
		return false, fmt.Errorf("dom: class check: %w", err)
	}
	return res.Value.Bool(), nil
}

func (n *rodNode) InAncestor(selector string) (bool, error) {
	res, err := n.el.Eval(`(sel) => this.closest(sel) !== null`, selector)
	if err != nil {
		return false, fmt.Errorf("dom: closest %q: %w", selector, err)
	}
	return res.Value.Bool(), nil
}

func (n *rodNode) Rect() (Rect, error) {
	res, err := n.el.Eval(`() => {
		const r = this.getBoundingClientRect();
		return { x: r.x, y: r.y, w: r.width, h: r.height };
	}`)
	if err != nil {
		return Rect{}, fmt.Errorf("dom: rect: %w", err)
	}
	return Rect{
		X: res.Value.Get("x").Num(),
		Y: res.Value.Get("y").Num(),
		W: res.Value.Get("w").Num(),
		H: res.Value.Get("h").Num(),
	}, nil
}

func (n *rodNode) Find(selector string) (Node, error) {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	return &rodNode{el: els.First(), page: n.page}, nil
}

func (n *rodNode) FindAll(selector string) ([]Node, error) {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", selector, err)
	}
	nodes := make([]Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &rodNode{el: el, page: n.page})
	}
	return nodes, nil
}
