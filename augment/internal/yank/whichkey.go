package yank

import (
	"github.com/hazyhaar/cadkeys/augment/internal/dom"
	"github.com/hazyhaar/cadkeys/augment/internal/panel"
)

// showHint renders the which-key panel for the current state. Entries whose
// command cannot resolve against the visible panels are dimmed, not hidden,
// so the menu layout stays stable while selections change.
func (e *Engine) showHint() {
	var h dom.Hint
	switch e.state {
	case Collecting:
		h = e.mainHint()
	case BBSubmenu:
		h = e.bbHint()
	default:
		return
	}
	if err := e.page.ShowHint(h); err != nil {
		e.logger.Warn("yank: show hint", "error", err)
	}
}

func (e *Engine) mainHint() dom.Hint {
	h := dom.Hint{Title: e.hintTitle()}
	for _, en := range mainMenu {
		h.Rows = append(h.Rows, dom.HintRow{
			Key:   en.key,
			Label: en.label,
			Dim:   !e.applicable(en.cmd),
		})
	}
	h.Rows = append(h.Rows, dom.HintRow{
		Key:   bbKey,
		Label: "bounding box…",
		Dim:   !e.bbApplicable(),
	})
	return h
}

func (e *Engine) bbHint() dom.Hint {
	h := dom.Hint{Title: "yank: bounding box"}
	for _, en := range bbMenu {
		h.Rows = append(h.Rows, dom.HintRow{
			Key:   en.key,
			Label: en.label,
			Dim:   !e.applicable(en.cmd),
		})
	}
	return h
}

// hintTitle names the current selection subject when the properties panel
// reports one.
func (e *Engine) hintTitle() string {
	p, ok := e.panels.Properties()
	if !ok {
		return "yank"
	}
	switch p.Subject {
	case panel.SubjectVertex:
		return "yank: vertex"
	case panel.SubjectEdge:
		return "yank: edge"
	case panel.SubjectFace:
		return "yank: face"
	}
	return "yank"
}

// applicable reports whether a command would find its row right now.
func (e *Engine) applicable(cmd Command) bool {
	switch cmd {
	case CmdPrimary:
		_, ok := e.primaryRow()
		return ok
	case CmdAxisX, CmdAxisY, CmdAxisZ:
		row, ok := e.primaryRow()
		return ok && row.Coordinate()
	case CmdArea:
		return e.hasRow(panel.Properties, panel.LabelArea)
	case CmdAngle:
		return e.hasRow(panel.Properties, panel.LabelAngle)
	case CmdPoint1:
		return e.hasRow(panel.Distance, panel.LabelPoint1)
	case CmdPoint2:
		return e.hasRow(panel.Distance, panel.LabelPoint2)
	case CmdDelta:
		return e.hasRow(panel.Distance, panel.LabelDelta)
	case CmdDistanceAngle:
		return e.hasRow(panel.Distance, panel.LabelAngle)
	case CmdBBMin:
		return e.hasRow(panel.Properties, panel.LabelBBMin)
	case CmdBBCenter:
		return e.hasRow(panel.Properties, panel.LabelBBCenter)
	case CmdBBMax:
		return e.hasRow(panel.Properties, panel.LabelBBMax)
	case CmdBBSize:
		return e.hasRow(panel.Properties, panel.LabelBBSize)
	}
	return false
}

func (e *Engine) bbApplicable() bool {
	for _, en := range bbMenu {
		if e.applicable(en.cmd) {
			return true
		}
	}
	return false
}

func (e *Engine) hasRow(kind panel.Kind, label string) bool {
	view, ok := e.view(kind)
	if !ok {
		return false
	}
	_, found := view.Row(label)
	return found
}
