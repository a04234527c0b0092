package assembly

import (
	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/solid"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Built is a part evaluated by a kernel, placed in stair coordinates.
type Built struct {
	Part
	Solid kernel.Solid
}

// Materialize evaluates each part through k. A node with several solids
// yields their union. Errors name the failing feature when one is known and
// the node otherwise.
func Materialize(k kernel.Kernel, parts []Part) ([]Built, error) {
	out := make([]Built, 0, len(parts))
	for _, p := range parts {
		s, err := MaterializeNode(k, p)
		if err != nil {
			return nil, err
		}
		out = append(out, Built{Part: p, Solid: s})
	}
	return out, nil
}

// MaterializeNode evaluates a single part.
func MaterializeNode(k kernel.Kernel, p Part) (kernel.Solid, error) {
	ref := solid.Ref(solid.Bool{Op: solid.Union, Operands: p.Node.Solids})
	if len(p.Node.Solids) == 1 {
		ref = p.Node.Solids[0]
	}
	s, err := solid.Build(k, ref)
	if err != nil {
		if stairerr.EntityOf(err) == "" {
			err = stairerr.Wrap(stairerr.KindBooleanOperationFailed, p.Node.Name, err)
		}
		return nil, err
	}
	if p.World != geom.Identity {
		s = k.Place(s, p.World)
	}
	return s, nil
}
