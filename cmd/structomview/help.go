package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// helpPane is a trivial tea.Model so it can be used as the foreground of
// an overlay.Overlay: it never receives input of its own, it only renders.
type helpPane struct {
	width, height int
}

func (h helpPane) Init() tea.Cmd                           { return nil }
func (h helpPane) Update(tea.Msg) (tea.Model, tea.Cmd)      { return h, nil }

func (h helpPane) View() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Render(helpText())
	return box
}

func helpText() string {
	lines := []string{
		headerStyle.Render("structomview help"),
		"",
		"↑/k, ↓/j       move cursor",
		"←/h            collapse node",
		"→/l            expand node",
		"pgup/pgdn      page",
		"g/G            top/bottom",
		"tab            switch pane (tree/detail)",
		"y              yank selected value's textual form to clipboard",
		"?              toggle this help",
		"q, ctrl+c      quit",
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
