// Package assembly arranges the located features of a stair into a named
// node tree: the concrete body with its fixed boolean order, the feature
// voids for isolated views, the inserts and the reinforcement cage.
package assembly

import (
	"fmt"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/solid"
)

// Kind enumerates the types of nodes in the assembly tree.
type Kind int

const (
	KindGroup   Kind = iota // logical grouping
	KindBody                // the concrete unit
	KindFeature             // a void cut from the body, kept for isolated views
	KindInsert              // an embedded part
	KindRebar               // one bar
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindBody:
		return "body"
	case KindFeature:
		return "feature"
	case KindInsert:
		return "insert"
	case KindRebar:
		return "rebar"
	default:
		return "unknown"
	}
}

// Node is one element of the assembly tree. Solids are expressed in the
// node's own frame; Placement carries that frame into the parent's.
type Node struct {
	Name      string
	Kind      Kind
	Group     string // feature group or rebar group
	Placement geom.Frame
	Solids    []solid.Ref
	Children  []*Node
}

// Frame is the node placement; the zero Frame means identity.
func (n *Node) Frame() geom.Frame {
	if n.Placement == (geom.Frame{}) {
		return geom.Identity
	}
	return n.Placement
}

// Tree is an assembled stair.
type Tree struct {
	Root  *Node
	index map[string]*Node
}

// NewTree indexes root and its descendants by name. Duplicate names are
// reported by Validate; the index keeps the first.
func NewTree(root *Node) *Tree {
	t := &Tree{Root: root, index: make(map[string]*Node)}
	t.Walk(func(n *Node, _ geom.Frame) bool {
		if _, ok := t.index[n.Name]; !ok {
			t.index[n.Name] = n
		}
		return true
	})
	return t
}

// Lookup returns the node with the given name, or nil.
func (t *Tree) Lookup(name string) *Node {
	return t.index[name]
}

// MustLookup returns the node with the given name, or panics.
func (t *Tree) MustLookup(name string) *Node {
	n := t.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("assembly: no node named %q", name))
	}
	return n
}

// NodeCount returns the total number of nodes.
func (t *Tree) NodeCount() int {
	n := 0
	t.Walk(func(*Node, geom.Frame) bool { n++; return true })
	return n
}

// Walk visits the tree depth-first in child order, passing each node's
// world frame. Returning false skips the node's children. A node reached
// twice on one path is not descended into again.
func (t *Tree) Walk(fn func(n *Node, world geom.Frame) bool) {
	if t.Root == nil {
		return
	}
	onPath := make(map[*Node]bool)
	var visit func(n *Node, parent geom.Frame)
	visit = func(n *Node, parent geom.Frame) {
		if n == nil || onPath[n] {
			return
		}
		world := parent.Compose(n.Frame())
		if !fn(n, world) {
			return
		}
		onPath[n] = true
		for _, c := range n.Children {
			visit(c, world)
		}
		delete(onPath, n)
	}
	visit(t.Root, geom.Identity)
}
