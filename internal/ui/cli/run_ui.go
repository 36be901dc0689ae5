package cli

import (
	coreapp "aspectwatch/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(session *coreapp.Session, sinks *updateSinks) error {
	m := initialModel(session)
	p := tea.NewProgram(m, tea.WithAltScreen())

	sinks.add(func(update coreapp.Update) {
		p.Send(updateMsg{update: update})
	})

	go func() {
		p.Send(updateMsg{update: coreapp.Update{
			Snapshot: session.Snapshot(),
			Status:   session.Status(),
		}})
	}()

	_, err := p.Run()
	return err
}
