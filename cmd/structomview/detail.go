package main

import (
	"fmt"

	"github.com/ravelin-dev/structom/internal/valuetext"
	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// stringifySelected renders a node's value as text, dynamically (as `any`)
// since the schema type of an arbitrary subtree node isn't tracked once
// the value has been decoded — only the root carries a known TypeId.
func stringifySelected(n *node, prov stomtypes.Provider) (string, error) {
	if n == nil {
		return "", nil
	}
	return valuetext.Stringify(n.value, stomtypes.Any, prov, valuetext.ParseOptions{Metadata: true, Enums: true})
}

// refreshDetail re-renders the detail pane for the currently selected node.
func (m *Model) refreshDetail() {
	n := m.currentNode()
	if n == nil {
		m.detail.SetContent("")
		return
	}
	text, err := stringifySelected(n, m.prov)
	if err != nil {
		m.detail.SetContent(fmt.Sprintf("(cannot render: %v)", err))
		return
	}
	m.detail.SetContent(fmt.Sprintf("%s: %s\n\n%s", n.label, n.summary(), text))
}
