package main

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// Pane names which half of the split view currently has focus.
type Pane int

const (
	TreePane Pane = iota
	DetailPane
)

// Model is the structomview application state: a tree pane over the
// decoded value and a detail pane showing the selected node's textual
// form.
type Model struct {
	path   string
	root   *node
	target stomtypes.TypeId
	prov   stomtypes.Provider

	visible []*node
	cursor  int
	offset  int

	detail viewport.Model

	focusedPane Pane
	showHelp    bool
	width       int
	height      int

	statusMessage string
	keys          KeyMap

	err error
}

func NewModel(path string, v stomtypes.Value, target stomtypes.TypeId, prov stomtypes.Provider) Model {
	root := buildTree(rootLabel(path), v, 0)
	m := Model{
		path:        path,
		root:        root,
		target:      target,
		prov:        prov,
		detail:      viewport.New(0, 0),
		focusedPane: TreePane,
		keys:        DefaultKeyMap(),
	}
	m.refreshVisible()
	m.refreshDetail()
	return m
}

func rootLabel(path string) string {
	return path
}

// refreshVisible rebuilds the flattened visible-node list after an
// expand/collapse toggle, keeping the cursor in range.
func (m *Model) refreshVisible() {
	m.visible = m.root.flatten(nil)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) currentNode() *node {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m Model) Init() tea.Cmd {
	return nil
}
