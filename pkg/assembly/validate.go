package assembly

import (
	"fmt"

	"github.com/chazu/stairkit/pkg/geom"
)

// ValidationError describes a single structural problem in a tree.
type ValidationError struct {
	Node    string // which node has the problem (empty if tree-level)
	Message string
}

func (e ValidationError) Error() string {
	if e.Node == "" {
		return e.Message
	}
	return fmt.Sprintf("node %s: %s", e.Node, e.Message)
}

// Validate runs the structural checks on t and returns every finding. An
// empty slice means the tree is valid. It never mutates the tree.
func Validate(t *Tree) []ValidationError {
	if t == nil || t.Root == nil {
		return []ValidationError{{Message: "tree has no root"}}
	}
	var errs []ValidationError
	errs = append(errs, validateAcyclic(t.Root)...)
	if len(errs) > 0 {
		// The remaining checks walk the tree and assume it terminates.
		return errs
	}
	errs = append(errs, validateNames(t)...)
	errs = append(errs, validatePlacements(t)...)
	errs = append(errs, validateBody(t)...)
	return errs
}

// validateAcyclic checks for cycles using DFS with 3-color marking.
func validateAcyclic(root *Node) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Node]int)
	var errs []ValidationError

	var visit func(n *Node)
	visit = func(n *Node) {
		color[n] = gray
		for _, c := range n.Children {
			if c == nil {
				errs = append(errs, ValidationError{Node: n.Name, Message: "nil child"})
				continue
			}
			switch color[c] {
			case gray:
				errs = append(errs, ValidationError{Node: c.Name, Message: fmt.Sprintf("cycle detected through %s", n.Name)})
			case white:
				visit(c)
			}
		}
		color[n] = black
	}
	visit(root)
	return errs
}

func validateNames(t *Tree) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	t.Walk(func(n *Node, _ geom.Frame) bool {
		switch {
		case n.Name == "":
			errs = append(errs, ValidationError{Message: fmt.Sprintf("unnamed %s node", n.Kind)})
		case seen[n.Name]:
			errs = append(errs, ValidationError{Node: n.Name, Message: "duplicate name"})
		}
		seen[n.Name] = true
		return true
	})
	return errs
}

func validatePlacements(t *Tree) []ValidationError {
	var errs []ValidationError
	t.Walk(func(n *Node, _ geom.Frame) bool {
		f := n.Frame()
		if !f.IsOrthonormal() || !f.IsRightHanded() {
			errs = append(errs, ValidationError{Node: n.Name, Message: fmt.Sprintf("placement %v is not a right-handed orthonormal frame", f)})
		}
		return true
	})
	return errs
}

func validateBody(t *Tree) []ValidationError {
	bodies := 0
	t.Walk(func(n *Node, _ geom.Frame) bool {
		if n.Kind == KindBody {
			bodies++
		}
		return true
	})
	if bodies != 1 {
		return []ValidationError{{Message: fmt.Sprintf("tree has %d concrete bodies, want 1", bodies)}}
	}
	return nil
}
