package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyActions reports handled=false for keys the list should receive.
func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "tab":
		if m.panel == panelPositions {
			m.panel = panelSummary
		} else {
			m.panel = panelPositions
		}
		return m, nil, true
	case "+", "=", "right":
		return m, nudgeCmd(m.ctrl, 1), true
	case "-", "_", "left":
		return m, nudgeCmd(m.ctrl, -1), true
	case "f":
		return m, cycleFilterCmd(m.ctrl), true
	}
	return m, nil, false
}

// Results arrive through the session update handler, so the commands return
// no message of their own.
func nudgeCmd(ctrl controller, steps int) tea.Cmd {
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		_, _ = ctrl.Nudge(context.Background(), steps)
		return nil
	}
}

func cycleFilterCmd(ctrl controller) tea.Cmd {
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		_, _ = ctrl.CycleFilter()
		return nil
	}
}
