package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive chat session and blocks until the user quits.
func Run(version, profile string) error {
	p := tea.NewProgram(initialModel(version, profile))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running chat session: %w", err)
	}
	return nil
}
