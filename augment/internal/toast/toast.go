// Package toast is the notification collaborator: fire-and-forget messages
// with an emphasis flag, always succeeding from the caller's perspective.
package toast

import (
	"log/slog"

	"github.com/hazyhaar/cadkeys/augment/internal/dom"
)

// Notifier reports an outcome to the user.
type Notifier interface {
	Notify(msg string, emphasis bool)
}

// PageNotifier renders toasts into the viewer page.
type PageNotifier struct {
	page   dom.Page
	logger *slog.Logger
}

func NewPageNotifier(page dom.Page, logger *slog.Logger) *PageNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageNotifier{page: page, logger: logger}
}

func (n *PageNotifier) Notify(msg string, emphasis bool) {
	if err := n.page.ShowToast(msg, emphasis); err != nil {
		n.logger.Warn("toast: show failed", "error", err, "msg", msg)
	}
}
