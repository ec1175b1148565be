package main

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type clearStatusMsg struct{}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			if m.focusedPane == TreePane {
				m.focusedPane = DetailPane
			} else {
				m.focusedPane = TreePane
			}
			return m, nil
		case key.Matches(msg, m.keys.Yank):
			return m.yankSelected()
		}

		if m.focusedPane == DetailPane {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.PageUp):
			m.moveCursor(-m.treeHeight())
		case key.Matches(msg, m.keys.PageDown):
			m.moveCursor(m.treeHeight())
		case key.Matches(msg, m.keys.Home):
			m.setCursor(0)
		case key.Matches(msg, m.keys.End):
			m.setCursor(len(m.visible) - 1)
		case key.Matches(msg, m.keys.Right):
			m.expandCurrent()
		case key.Matches(msg, m.keys.Left):
			m.collapseCurrent()
		}
		m.refreshDetail()
		return m, nil
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	m.setCursor(m.cursor + delta)
}

func (m *Model) setCursor(i int) {
	if i < 0 {
		i = 0
	}
	if i >= len(m.visible) {
		i = len(m.visible) - 1
	}
	m.cursor = i
	height := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
}

func (m *Model) expandCurrent() {
	n := m.currentNode()
	if n == nil || n.isLeaf() {
		return
	}
	n.expanded = true
	m.refreshVisible()
}

func (m *Model) collapseCurrent() {
	n := m.currentNode()
	if n == nil {
		return
	}
	if n.expanded && !n.isLeaf() {
		n.expanded = false
		m.refreshVisible()
	}
}

func (m *Model) layout() {
	treeWidth := m.width/2 - 2
	if treeWidth < 10 {
		treeWidth = 10
	}
	m.detail.Width = m.width - treeWidth - 6
	m.detail.Height = m.height - 6
}

func (m *Model) treeHeight() int {
	h := m.height - 6
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) yankSelected() (tea.Model, tea.Cmd) {
	n := m.currentNode()
	if n == nil {
		return m, nil
	}
	text, err := stringifySelected(n, m.prov)
	if err != nil {
		m.statusMessage = "yank failed: " + err.Error()
		return m, clearStatusAfter()
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.statusMessage = "clipboard unavailable: " + err.Error()
		return m, clearStatusAfter()
	}
	m.statusMessage = "copied " + n.label + " to clipboard"
	return m, clearStatusAfter()
}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
