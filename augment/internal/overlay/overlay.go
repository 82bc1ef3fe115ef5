// Package overlay maintains the copy-button layer mirroring the live
// measurement panel rows. The layer lives at the document body and never
// touches the panels' own subtrees: writing there would wake the host's
// change observation and ping-pong requests against our rebuilds.
package overlay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/panel"
	"github.com/hazyhaar/cadkeys/augment/internal/toast"
)

// buttonGap is the horizontal offset from a label's right edge.
const buttonGap = 4

// Config for creating a Sync.
type Config struct {
	Page   dom.Page
	Panels *panel.Reader
	Values panel.ValueSource
	Notify toast.Notifier
	Logger *slog.Logger
}

// Sync keeps the overlay layer in step with the visible panel rows,
// rebuilding only when the row structure fingerprint changes.
type Sync struct {
	page    dom.Page
	panels  *panel.Reader
	values  panel.ValueSource
	notify  toast.Notifier
	logger  *slog.Logger
	lastSig string
}

func New(cfg Config) *Sync {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sync{
		page:   cfg.Page,
		panels: cfg.Panels,
		values: cfg.Values,
		notify: cfg.Notify,
		logger: cfg.Logger,
	}
}

// Tick runs one reconciliation pass. When the fingerprint of visible row
// labels is unchanged since the previous pass, nothing is rebuilt and the
// layer does not flicker.
func (s *Sync) Tick() error {
	views := s.panels.VisibleViews()

	sig := signature(views)
	if sig == s.lastSig {
		return nil
	}

	var buttons []dom.OverlayButton
	for _, v := range views {
		for i := range v.Rows {
			row := &v.Rows[i]
			if row.Label == "" || row.Reference || row.LabelNode == nil {
				continue
			}
			rect, err := row.LabelNode.Rect()
			if err != nil {
				continue
			}
			title := "copy value"
			if row.Coordinate() {
				title = "copy coordinates"
			}
			buttons = append(buttons, dom.OverlayButton{
				ID:    buttonID(v.Kind, row.Label),
				Title: title,
				X:     rect.X + rect.W + buttonGap,
				Y:     rect.Y,
			})
		}
	}

	if err := s.page.SetOverlay(buttons); err != nil {
		// Leave lastSig stale so the next tick retries the rebuild.
		return fmt.Errorf("overlay: rebuild: %w", err)
	}
	s.lastSig = sig
	return nil
}

// HandleCopy resolves an overlay button click back to its live row and
// copies the row's canonical millimeter value(s) to the clipboard.
func (s *Sync) HandleCopy(id string) {
	kind, label, ok := strings.Cut(id, "\x00")
	if !ok {
		s.notify.Notify("Copy failed", true)
		return
	}

	row, found := s.findRow(panel.Kind(kind), label)
	if !found {
		s.notify.Notify("Copy failed", true)
		return
	}

	text, err := panel.FormatRowMM(row, s.values)
	if err != nil {
		s.notify.Notify("Copy failed", true)
		return
	}

	if err := s.page.WriteClipboard(text); err != nil {
		s.logger.Warn("overlay: clipboard", "error", err)
		s.notify.Notify("Copy failed", true)
		return
	}
	s.notify.Notify(fmt.Sprintf("Copied %s: %s", label, text), false)
}

func (s *Sync) findRow(kind panel.Kind, label string) (*panel.Row, bool) {
	var view *panel.View
	var ok bool
	switch kind {
	case panel.Properties:
		view, ok = s.panels.Properties()
	case panel.Distance:
		view, ok = s.panels.Distance()
	}
	if !ok {
		return nil, false
	}
	return view.Row(label)
}

func buttonID(kind panel.Kind, label string) string {
	return string(kind) + "\x00" + label
}

// signature fingerprints the visible row structure: panel kinds, row
// labels and their coordinate-ness. Equality with the previous pass means
// no rebuild is needed.
func signature(views []*panel.View) string {
	var sb strings.Builder
	for _, v := range views {
		sb.WriteString(string(v.Kind))
		sb.WriteByte('\x1e')
		for i := range v.Rows {
			sb.WriteString(v.Rows[i].Label)
			if v.Rows[i].Coordinate() {
				sb.WriteByte('+')
			}
			sb.WriteByte('\x1f')
		}
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
