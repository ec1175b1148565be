package main

import (
	"fmt"

	"github.com/ravelin-dev/structom/pkg/stomtypes"
)

// node is one row of the tree pane: a labeled Value, lazily flattened into
// a visible list by the model according to which nodes are expanded.
type node struct {
	label    string
	value    stomtypes.Value
	depth    int
	children []*node
	expanded bool
}

// buildTree turns v into a node tree, recursing into Arr/Map children.
// Containers start expanded one level deep so the first screen already
// shows structure instead of a single collapsed root.
func buildTree(label string, v stomtypes.Value, depth int) *node {
	n := &node{label: label, value: v, depth: depth, expanded: depth < 1}
	switch v.Kind {
	case stomtypes.KArr:
		n.children = make([]*node, len(v.Arr))
		for i, item := range v.Arr {
			n.children[i] = buildTree(fmt.Sprintf("[%d]", i), item, depth+1)
		}
	case stomtypes.KMap:
		n.children = make([]*node, len(v.Map))
		for i, e := range v.Map {
			n.children[i] = buildTree(keyLabel(e.Key), e.Value, depth+1)
		}
	}
	return n
}

func keyLabel(k stomtypes.Key) string {
	switch k.Kind {
	case stomtypes.KStr:
		return k.Str
	case stomtypes.KInt:
		return fmt.Sprintf("%d", k.Int)
	case stomtypes.KUint:
		return fmt.Sprintf("%d", k.Uint)
	case stomtypes.KBool:
		return fmt.Sprintf("%v", k.Bool)
	case stomtypes.KUUID:
		return formatUUID(k.UUID)
	case stomtypes.KInst:
		return k.Inst.Format("2006-01-02T15:04:05Z")
	case stomtypes.KDur:
		return k.Dur.String()
	case stomtypes.KBigInt:
		if k.BigInt != nil {
			return k.BigInt.String()
		}
		return "0"
	default:
		return "?"
	}
}

func formatUUID(u [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

// isLeaf reports whether n has no children to expand into.
func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

// flatten appends n and, if expanded, its visible descendants to out.
func (n *node) flatten(out []*node) []*node {
	out = append(out, n)
	if n.expanded {
		for _, c := range n.children {
			out = c.flatten(out)
		}
	}
	return out
}

// summary is the short inline description shown to the right of a
// container's label: element/entry count.
func (n *node) summary() string {
	switch n.value.Kind {
	case stomtypes.KArr:
		return fmt.Sprintf("arr[%d]", len(n.value.Arr))
	case stomtypes.KMap:
		return fmt.Sprintf("map{%d}", len(n.value.Map))
	default:
		return n.value.Kind.String()
	}
}
