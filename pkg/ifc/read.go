package ifc

import (
	"fmt"
	"io"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/step21"
)

// ReadBodyVolume parses an exchange file and evaluates the volume of the
// stair body from its boolean tree of extrusions, in cubic millimetres.
func ReadBodyVolume(r io.Reader) (float64, error) {
	m, err := step21.Parse(r)
	if err != nil {
		return 0, err
	}
	return BodyVolume(m)
}

// BodyVolume evaluates the body representation of the first IfcStair in m.
func BodyVolume(m *step21.Model) (float64, error) {
	stairs := m.ByType("IFCSTAIR")
	if len(stairs) == 0 {
		return 0, fmt.Errorf("ifc: no IfcStair")
	}
	items, err := bodyItems(m, stairs[0])
	if err != nil {
		return 0, err
	}
	var v float64
	for _, it := range items {
		x, err := volume(m, it)
		if err != nil {
			return 0, err
		}
		v += x
	}
	return math.Abs(v), nil
}

// bodyItems follows Representation to the items of the Body representation.
func bodyItems(m *step21.Model, product *step21.Entity) ([]step21.Ref, error) {
	if len(product.Attrs) < 7 {
		return nil, fmt.Errorf("ifc: #%d has no representation", product.ID)
	}
	pds, err := entity(m, product.Attrs[6], "IFCPRODUCTDEFINITIONSHAPE")
	if err != nil {
		return nil, err
	}
	reps, ok := step21.Refs(pds.Attrs[2])
	if !ok {
		return nil, fmt.Errorf("ifc: #%d: bad representation list", pds.ID)
	}
	for _, r := range reps {
		rep := m.Get(r)
		if rep == nil || len(rep.Attrs) < 4 {
			continue
		}
		if id, _ := step21.AsString(rep.Attrs[1]); id != "Body" {
			continue
		}
		items, ok := step21.Refs(rep.Attrs[3])
		if !ok {
			return nil, fmt.Errorf("ifc: #%d: bad item list", rep.ID)
		}
		return items, nil
	}
	return nil, fmt.Errorf("ifc: #%d has no Body representation", product.ID)
}

// entity resolves v, which must reference an entity of type typ.
func entity(m *step21.Model, v step21.Value, typ string) (*step21.Entity, error) {
	r, ok := step21.AsRef(v)
	if !ok {
		return nil, fmt.Errorf("ifc: expected a reference to %s, got %s", typ, step21.Encode(v))
	}
	e := m.Get(r)
	if e == nil {
		return nil, fmt.Errorf("ifc: dangling reference #%d", r)
	}
	if typ != "" && e.Type != typ {
		return nil, fmt.Errorf("ifc: #%d is %s, want %s", r, e.Type, typ)
	}
	return e, nil
}

func volume(m *step21.Model, r step21.Ref) (float64, error) {
	e := m.Get(r)
	if e == nil {
		return 0, fmt.Errorf("ifc: dangling reference #%d", r)
	}
	switch e.Type {
	case "IFCBOOLEANRESULT", "IFCBOOLEANCLIPPINGRESULT":
		op, _ := e.Attrs[0].(step21.Enum)
		a, err := operand(m, e.Attrs[1])
		if err != nil {
			return 0, err
		}
		b, err := operand(m, e.Attrs[2])
		if err != nil {
			return 0, err
		}
		switch op {
		case "UNION":
			return a + b, nil
		case "DIFFERENCE":
			return a - b, nil
		}
		return 0, fmt.Errorf("ifc: #%d: boolean operator %s not evaluated", e.ID, op)
	case "IFCEXTRUDEDAREASOLID", "IFCEXTRUDEDAREASOLIDTAPERED":
		prof, err := entity(m, e.Attrs[0], "")
		if err != nil {
			return 0, err
		}
		area, err := profileArea(m, prof)
		if err != nil {
			return 0, err
		}
		depth, _ := step21.AsReal(e.Attrs[3])
		dir, err := entity(m, e.Attrs[2], "IFCDIRECTION")
		if err != nil {
			return 0, err
		}
		d, _ := step21.Reals(dir.Attrs[0])
		if len(d) == 3 {
			// Only the component along the profile normal adds volume.
			depth *= d[2] / math.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2])
		}
		if e.Type == "IFCEXTRUDEDAREASOLIDTAPERED" {
			k, err := endScale(m, e.Attrs[4])
			if err != nil {
				return 0, err
			}
			return area * depth * (1 + k + k*k) / 3, nil
		}
		return area * depth, nil
	}
	return 0, fmt.Errorf("ifc: #%d: %s volume not evaluated", e.ID, e.Type)
}

func operand(m *step21.Model, v step21.Value) (float64, error) {
	r, ok := step21.AsRef(v)
	if !ok {
		return 0, fmt.Errorf("ifc: boolean operand %s is not a reference", step21.Encode(v))
	}
	return volume(m, r)
}

// endScale reads the uniform scale of a derived end profile.
func endScale(m *step21.Model, v step21.Value) (float64, error) {
	d, err := entity(m, v, "IFCDERIVEDPROFILEDEF")
	if err != nil {
		return 0, err
	}
	op, err := entity(m, d.Attrs[3], "")
	if err != nil {
		return 0, err
	}
	k, ok := step21.AsReal(op.Attrs[3])
	if !ok {
		return 1, nil
	}
	return k, nil
}

func profileArea(m *step21.Model, p *step21.Entity) (float64, error) {
	switch p.Type {
	case "IFCRECTANGLEPROFILEDEF":
		x, _ := step21.AsReal(p.Attrs[3])
		y, _ := step21.AsReal(p.Attrs[4])
		return x * y, nil
	case "IFCCIRCLEPROFILEDEF":
		r, _ := step21.AsReal(p.Attrs[3])
		return math.Pi * r * r, nil
	case "IFCARBITRARYCLOSEDPROFILEDEF":
		c, err := entity(m, p.Attrs[2], "IFCINDEXEDPOLYCURVE")
		if err != nil {
			return 0, err
		}
		a, err := curveArea(m, c)
		return math.Abs(a), err
	}
	return 0, fmt.Errorf("ifc: #%d: %s area not evaluated", p.ID, p.Type)
}

// curveArea is the enclosed area of a closed indexed poly curve: the
// shoelace sum over the segment chords plus a signed circular segment for
// every arc.
func curveArea(m *step21.Model, c *step21.Entity) (float64, error) {
	list, err := entity(m, c.Attrs[0], "IFCCARTESIANPOINTLIST2D")
	if err != nil {
		return 0, err
	}
	raw, _ := list.Attrs[0].(step21.List)
	pts := make([]geom.Vec2, len(raw))
	for i, v := range raw {
		xy, ok := step21.Reals(v)
		if !ok || len(xy) != 2 {
			return 0, fmt.Errorf("ifc: #%d: bad point %d", list.ID, i+1)
		}
		pts[i] = geom.V2(xy[0], xy[1])
	}
	at := func(k int64) (geom.Vec2, error) {
		if k < 1 || int(k) > len(pts) {
			return geom.Vec2{}, fmt.Errorf("ifc: #%d: index %d outside 1..%d", c.ID, k, len(pts))
		}
		return pts[k-1], nil
	}

	segs, _ := c.Attrs[1].(step21.List)
	var area float64
	for _, s := range segs {
		t, ok := s.(step21.Typed)
		if !ok {
			return 0, fmt.Errorf("ifc: #%d: untyped segment %s", c.ID, step21.Encode(s))
		}
		idx, _ := t.Value.(step21.List)
		ps := make([]geom.Vec2, len(idx))
		for i, v := range idx {
			k, _ := v.(step21.Int)
			if ps[i], err = at(int64(k)); err != nil {
				return 0, err
			}
		}
		switch t.Type {
		case "IFCLINEINDEX":
			for i := 0; i+1 < len(ps); i++ {
				area += ps[i].X*ps[i+1].Y - ps[i+1].X*ps[i].Y
			}
		case "IFCARCINDEX":
			if len(ps) != 3 {
				return 0, fmt.Errorf("ifc: #%d: arc with %d indices", c.ID, len(ps))
			}
			a, mid, b := ps[0], ps[1], ps[2]
			area += a.X*b.Y - b.X*a.Y
			seg, err := arcSegment(a, mid, b)
			if err != nil {
				return 0, fmt.Errorf("ifc: #%d: %w", c.ID, err)
			}
			area += 2 * seg
		default:
			return 0, fmt.Errorf("ifc: #%d: segment type %s", c.ID, t.Type)
		}
	}
	return area / 2, nil
}

// arcSegment is the signed area the arc a→m→b adds to the chord a→b in a
// shoelace sum: a bulge to the right of the chord grows a counter-clockwise
// region.
func arcSegment(a, m, b geom.Vec2) (float64, error) {
	centre, r, err := geom.ArcThrough(a, m, b)
	if err != nil {
		return 0, err
	}
	chord := b.Sub(a)
	theta := 2 * math.Asin(math.Min(1, chord.Norm()/(2*r)))
	side := func(p geom.Vec2) float64 {
		q := p.Sub(a)
		return chord.X*q.Y - chord.Y*q.X
	}
	sweep := theta
	if side(m)*side(centre) > 0 {
		sweep = 2*math.Pi - theta
	}
	seg := geom.ArcSegmentArea(r, sweep)
	if side(m) > 0 {
		return -seg, nil
	}
	return seg, nil
}
