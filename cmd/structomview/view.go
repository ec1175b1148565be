package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.width == 0 {
		return "loading..."
	}

	main := m.renderMain()
	if m.showHelp {
		help := helpPane{width: m.width, height: m.height}
		return overlay.New(help, stringModel{main}, overlay.Center, overlay.Center, 0, 0).View()
	}
	return main
}

// stringModel adapts a pre-rendered string into the tea.Model overlay
// needs as its background: it never updates, it only reports its own View.
type stringModel struct{ s string }

func (s stringModel) Init() tea.Cmd                      { return nil }
func (s stringModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return s, nil }
func (s stringModel) View() string                        { return s.s }

func (m Model) renderMain() string {
	header := headerStyle.Render(fmt.Sprintf("structomview  %s", m.path))
	tree := m.renderTree()
	detail := m.renderDetail()
	content := lipgloss.JoinHorizontal(lipgloss.Top, tree, detail)
	status := m.renderStatus()
	return lipgloss.JoinVertical(lipgloss.Left, header, content, status)
}

func (m Model) renderTree() string {
	width := m.width/2 - 2
	if width < 10 {
		width = 10
	}
	height := m.treeHeight()

	var b strings.Builder
	end := m.offset + height
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := m.offset; i < end; i++ {
		n := m.visible[i]
		line := renderTreeLine(n, i == m.cursor, width)
		b.WriteString(line)
		b.WriteString("\n")
	}

	style := paneStyle
	if m.focusedPane == TreePane {
		style = activePaneStyle
	}
	return style.Width(width).Height(height).Render(b.String())
}

func renderTreeLine(n *node, selected bool, width int) string {
	indent := strings.Repeat("  ", n.depth)
	marker := " "
	if !n.isLeaf() {
		if n.expanded {
			marker = "▾"
		} else {
			marker = "▸"
		}
	}
	kindStyle := styleForKind(n.value.Kind)
	label := fmt.Sprintf("%s%s %s", indent, marker, n.label)
	tag := kindStyle.Render(n.summary())

	line := fmt.Sprintf("%s  %s", label, tag)
	if len(line) > width {
		line = line[:width]
	}
	if selected {
		return cursorStyle.Width(width).Render(line)
	}
	return line
}

func (m Model) renderDetail() string {
	style := paneStyle
	if m.focusedPane == DetailPane {
		style = activePaneStyle
	}
	return style.Render(m.detail.View())
}

func (m Model) renderStatus() string {
	if m.statusMessage != "" {
		return statusStyle.Render(m.statusMessage)
	}
	return dimStyle.Render("tab: switch pane   y: yank   ?: help   q: quit")
}
