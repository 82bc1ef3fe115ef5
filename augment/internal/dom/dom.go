// Package dom is the boundary between the augmentation logic and the live
// viewer page. Components talk to a Page, never to go-rod directly, so every
// state machine in augment/internal can run against synthetic page content
// in tests.
package dom

import "errors"

// ErrNotFound is returned by Find when a selector matches no element.
var ErrNotFound = errors.New("dom: element not found")

// NodeID is a stable per-element handle. Two lookups of the same live
// element return the same ID for as long as the element stays in the page.
type NodeID string

// Rect is an element bounding box in viewport coordinates.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Node is one live element.
type Node interface {
	ID() NodeID
	Text() (string, error)
	SetText(s string) error
	Click() error
	Visible() (bool, error)
	HasClass(class string) (bool, error)
	// InAncestor reports whether the element or one of its ancestors
	// matches the selector (closest() semantics).
	InAncestor(selector string) (bool, error)
	Rect() (Rect, error)
	// Find resolves a selector relative to this element: zero-or-one.
	Find(selector string) (Node, error)
	FindAll(selector string) ([]Node, error)
}

// KeyEvent is one keydown captured in the page.
type KeyEvent struct {
	Key      string // normalized lowercase
	Shift    bool
	Ctrl     bool
	Alt      bool
	Meta     bool
	Editable bool // target was a text-entry control or contenteditable
}

// Event is one input event from the page: a captured keydown or a click on
// one of our overlay copy buttons.
type Event struct {
	Key  *KeyEvent
	Copy string // overlay button ID, set when Key is nil
}

// OverlayButton is one copy affordance in the overlay layer.
type OverlayButton struct {
	ID    string
	Title string // hover title, e.g. "copy coordinates"
	X     float64
	Y     float64
}

// HintRow is one entry of the which-key panel.
type HintRow struct {
	Key   string
	Label string
	Dim   bool
}

// Hint is the which-key panel content.
type Hint struct {
	Title string
	Rows  []HintRow
}

// UnitBarState is what the persistent unit toolbar widget displays.
type UnitBarState struct {
	Unit        string
	Denominator int
	ShowFeet    bool
}

// Page is the live viewer page. All new visual elements (overlay layer,
// hint panel, toast, unit bar) are appended at the document body, never
// inside host containers, so the host's own change detection stays quiet.
type Page interface {
	// Find resolves a selector to zero-or-one element. ErrNotFound when
	// nothing matches; the first match when several do.
	Find(selector string) (Node, error)
	FindAll(selector string) ([]Node, error)

	SetOverlay(buttons []OverlayButton) error
	ClearOverlay() error

	ShowHint(h Hint) error
	HideHint() error

	ShowToast(msg string, emphasis bool) error

	SetUnitBar(state UnitBarState) error

	// WriteClipboard writes text to the system clipboard. The outcome
	// only ever feeds a toast; it never gates input handling.
	WriteClipboard(text string) error

	// Events is the stream of captured keydowns and overlay clicks.
	Events() <-chan Event
}
