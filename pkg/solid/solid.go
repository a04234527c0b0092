// Package solid describes stair geometry as a tree of kernel-independent
// solid references and evaluates those trees through a kernel.Kernel.
//
// A Ref is a tagged variant: one concrete type per primitive plus Bool for
// boolean combinations and Named for attributing failures. Refs are plain
// values; building the same Ref twice gives equal solids.
package solid

import (
	"fmt"

	"github.com/chazu/stairkit/pkg/geom"
)

// Ref is one node of a solid description.
type Ref interface {
	ref() // marker method restricting implementations to this package
}

// Prism sweeps Profile along +z of Frame for Length.
type Prism struct {
	Profile []geom.Vec2
	Frame   *geom.Frame
	Length  float64
}

// Tapered is a prism whose section scales about the frame origin from 1 at
// the start to Scale at the end.
type Tapered struct {
	Profile []geom.Vec2
	Frame   *geom.Frame
	Length  float64
	Scale   float64
}

// Revolve turns an (r, z) profile about the frame z-axis.
type Revolve struct {
	Profile []geom.Vec2
	Frame   *geom.Frame
	Angle   float64 // radians; 0 means a full turn
}

// Pipe carries Section along the polyline Spine.
type Pipe struct {
	Spine   []geom.Vec3
	Section []geom.Vec2
}

// Disk is a round bar along the polyline Spine.
type Disk struct {
	Spine  []geom.Vec3
	Radius float64
}

// Box has its minimum corner at the frame origin.
type Box struct {
	Frame *geom.Frame
	Size  geom.Vec3
}

// Cone is a frustum standing on the frame xy-plane.
type Cone struct {
	Frame       *geom.Frame
	Bottom, Top float64 // radii
	Height      float64
}

// Cylinder stands on the frame xy-plane.
type Cylinder struct {
	Frame  *geom.Frame
	Radius float64
	Height float64
}

// Sphere is centred on Centre.
type Sphere struct {
	Centre geom.Vec3
	Radius float64
}

// Op is a boolean operation.
type Op int

const (
	Union Op = iota
	Difference
	Intersection
)

func (o Op) String() string {
	switch o {
	case Union:
		return "union"
	case Difference:
		return "difference"
	case Intersection:
		return "intersection"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Bool folds Operands left to right with Op: a Difference subtracts every
// later operand from the first. An empty Union is the empty solid.
type Bool struct {
	Op       Op
	Operands []Ref
}

// Named attributes failures inside Of to Entity, e.g. "HoleCone[top-left]".
type Named struct {
	Entity string
	Of     Ref
}

func (Prism) ref()    {}
func (Tapered) ref()  {}
func (Revolve) ref()  {}
func (Pipe) ref()     {}
func (Disk) ref()     {}
func (Box) ref()      {}
func (Cone) ref()     {}
func (Cylinder) ref() {}
func (Sphere) ref()   {}
func (Bool) ref()     {}
func (Named) ref()    {}

// At returns a pointer to a copy of f, for the optional Frame fields.
func At(f geom.Frame) *geom.Frame { return &f }

func frameOf(f *geom.Frame) geom.Frame {
	if f == nil {
		return geom.Identity
	}
	return *f
}

// Leaves counts the primitives under r.
func Leaves(r Ref) int {
	switch x := r.(type) {
	case Bool:
		n := 0
		for _, o := range x.Operands {
			n += Leaves(o)
		}
		return n
	case Named:
		return Leaves(x.Of)
	case nil:
		return 0
	}
	return 1
}
