package solid

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Build evaluates r through k. Primitive failures are GeometryInfeasible
// and boolean failures BooleanOperationFailed; a Named node prefixes its
// entity onto any error raised beneath it. Every boolean result is
// simplified before it becomes the next operand.
func Build(k kernel.Kernel, r Ref) (kernel.Solid, error) {
	switch x := r.(type) {
	case Named:
		s, err := Build(k, x.Of)
		if err != nil {
			return nil, stairerr.Wrap(stairerr.KindGeometryInfeasible, x.Entity, err)
		}
		return s, nil
	case Bool:
		return buildBool(k, x)
	case nil:
		return nil, stairerr.New(stairerr.KindGeometryInfeasible, "", "nil solid reference")
	}
	s, err := primitive(k, r)
	if err != nil {
		return nil, stairerr.Wrap(stairerr.KindGeometryInfeasible, "", err)
	}
	return s, nil
}

func primitive(k kernel.Kernel, r Ref) (kernel.Solid, error) {
	switch x := r.(type) {
	case Prism:
		return k.Prism(x.Profile, frameOf(x.Frame), x.Length)
	case Tapered:
		return k.TaperedPrism(x.Profile, frameOf(x.Frame), x.Length, x.Scale)
	case Revolve:
		angle := x.Angle
		if angle == 0 {
			angle = 2 * math.Pi
		}
		return k.Revolve(x.Profile, frameOf(x.Frame), angle)
	case Pipe:
		return k.Pipe(x.Spine, x.Section)
	case Disk:
		return k.SweptDisk(x.Spine, x.Radius)
	case Box:
		return k.Box(frameOf(x.Frame), x.Size)
	case Cone:
		return k.Cone(frameOf(x.Frame), x.Bottom, x.Top, x.Height)
	case Cylinder:
		return k.Cylinder(frameOf(x.Frame), x.Radius, x.Height)
	case Sphere:
		return k.Sphere(x.Centre, x.Radius)
	}
	return nil, fmt.Errorf("solid: unsupported reference %T", r)
}

func buildBool(k kernel.Kernel, b Bool) (kernel.Solid, error) {
	if len(b.Operands) == 0 {
		if b.Op == Union {
			return k.Empty(), nil
		}
		return nil, stairerr.New(stairerr.KindBooleanOperationFailed, "", "%s of no operands", b.Op)
	}
	acc, err := Build(k, b.Operands[0])
	if err != nil {
		return nil, err
	}
	for _, o := range b.Operands[1:] {
		s, err := Build(k, o)
		if err != nil {
			return nil, err
		}
		switch b.Op {
		case Union:
			acc, err = k.Union(acc, s)
		case Difference:
			acc, err = k.Difference(acc, s)
		case Intersection:
			acc, err = k.Intersection(acc, s)
		default:
			err = fmt.Errorf("unknown boolean %s", b.Op)
		}
		if err != nil {
			return nil, stairerr.Wrap(stairerr.KindBooleanOperationFailed, entityOf(o), err)
		}
		acc = k.Simplify(acc)
	}
	return acc, nil
}

// entityOf names a failing operand when it carries a name.
func entityOf(r Ref) string {
	if n, ok := r.(Named); ok {
		return n.Entity
	}
	return ""
}
