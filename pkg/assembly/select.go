package assembly

import (
	"github.com/chazu/stairkit/pkg/geom"
)

// Selector picks the nodes a consumer wants to see.
type Selector func(n *Node) bool

// FullModel is the body, every insert and every bar.
func FullModel(n *Node) bool {
	return n.Kind == KindBody || n.Kind == KindInsert || n.Kind == KindRebar
}

// ConcreteOnly is the body alone.
func ConcreteOnly(n *Node) bool { return n.Kind == KindBody }

// RebarCageOnly is every bar.
func RebarCageOnly(n *Node) bool { return n.Kind == KindRebar }

// InsertsOnly is every insert.
func InsertsOnly(n *Node) bool { return n.Kind == KindInsert }

// Group selects the voids of one feature group (holes, step-slots, ...),
// the inserts of one role or the bars of one rebar group.
func Group(name string) Selector {
	return func(n *Node) bool {
		return n.Kind != KindGroup && n.Kind != KindBody && n.Group == name
	}
}

// Part is a selected node with its world frame.
type Part struct {
	Node  *Node
	World geom.Frame
}

// Select returns the nodes with solids that sel accepts, in tree order.
func (t *Tree) Select(sel Selector) []Part {
	var out []Part
	t.Walk(func(n *Node, world geom.Frame) bool {
		if len(n.Solids) > 0 && sel(n) {
			out = append(out, Part{Node: n, World: world})
		}
		return true
	})
	return out
}
