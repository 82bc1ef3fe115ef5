// Package widget renders the persistent unit bar reflecting the current
// unit, precision and feet-display state.
package widget

import (
	"fmt"

	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/units"
)

// Bar is the on-page unit toolbar widget.
type Bar struct {
	page dom.Page
}

func NewBar(page dom.Page) *Bar {
	return &Bar{page: page}
}

// Refresh pushes the settings into the page. Implements units.Widget.
func (b *Bar) Refresh(s units.Settings) error {
	err := b.page.SetUnitBar(dom.UnitBarState{
		Unit:        string(s.Unit),
		Denominator: s.Denominator,
		ShowFeet:    s.ShowFeet,
	})
	if err != nil {
		return fmt.Errorf("widget: refresh: %w", err)
	}
	return nil
}
