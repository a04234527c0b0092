package ifc

import (
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/rebar"
	"github.com/chazu/stairkit/pkg/step21"
)

// Representation types of shape items.
const (
	repSwept    = "SweptSolid"
	repAdvanced = "AdvancedSweptSolid"
	repCSG      = "CSG"
	repSolid    = "SolidModel"
)

type item struct {
	ref  step21.Ref
	kind string
}

// num snaps coordinates to a nanometre so float noise does not leak into
// the file.
func num(x float64) step21.Real {
	r := math.Round(x*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return step21.Real(r)
}

// ---------------------------------------------------------------------------
// Points, directions, placements
// ---------------------------------------------------------------------------

func (e *emitter) cached(cache map[string]step21.Ref, typ string, coords step21.List) step21.Ref {
	key := step21.Encode(coords)
	if r, ok := cache[key]; ok {
		return r
	}
	r := e.add(typ, coords)
	if r != 0 {
		cache[key] = r
	}
	return r
}

func (e *emitter) point3(x, y, z float64) step21.Ref {
	return e.cached(e.points, "IFCCARTESIANPOINT", step21.List{num(x), num(y), num(z)})
}

func (e *emitter) point2(x, y float64) step21.Ref {
	return e.cached(e.points, "IFCCARTESIANPOINT", step21.List{num(x), num(y)})
}

func (e *emitter) dir3(v geom.Vec3) step21.Ref {
	return e.cached(e.dirs, "IFCDIRECTION", step21.List{num(v.X), num(v.Y), num(v.Z)})
}

// axis writes f as an IfcAxis2Placement3D. Axes equal to the defaults are
// omitted.
func (e *emitter) axis(f geom.Frame) step21.Ref {
	o := e.point3(f.Origin.X, f.Origin.Y, f.Origin.Z)
	if f.Z == geom.DirZ && f.X == geom.DirX {
		return e.add("IFCAXIS2PLACEMENT3D", o, null, null)
	}
	return e.add("IFCAXIS2PLACEMENT3D", o, e.dir3(f.Z.Vec()), e.dir3(f.X.Vec()))
}

// placement is a local placement relative to parent; parent 0 places in
// the world coordinate system.
func (e *emitter) placement(parent step21.Ref, f geom.Frame) step21.Ref {
	var rel step21.Value = parent
	if parent == 0 {
		rel = null
	}
	return e.add("IFCLOCALPLACEMENT", rel, e.axis(f))
}

// shape wraps items in a body representation.
func (e *emitter) shape(items []item) step21.Ref {
	kind := ""
	l := make(step21.List, len(items))
	for i, it := range items {
		l[i] = it.ref
		switch {
		case kind == "" || kind == it.kind:
			kind = it.kind
		case isSwept(kind) && isSwept(it.kind):
			kind = repAdvanced
		default:
			kind = repSolid
		}
	}
	rep := e.add("IFCSHAPEREPRESENTATION", e.body, step21.Str("Body"), step21.Str(kind), l)
	return e.add("IFCPRODUCTDEFINITIONSHAPE", null, null, step21.List{rep})
}

func isSwept(kind string) bool { return kind == repSwept || kind == repAdvanced }

// ---------------------------------------------------------------------------
// Curves and profiles
// ---------------------------------------------------------------------------

// segment is one IfcLineIndex or IfcArcIndex of an indexed poly curve.
type segment struct {
	arc bool
	idx []int
}

func segments(segs []segment) step21.List {
	l := make(step21.List, len(segs))
	for i, s := range segs {
		idx := make(step21.List, len(s.idx))
		for j, k := range s.idx {
			idx[j] = step21.Int(k)
		}
		typ := "IFCLINEINDEX"
		if s.arc {
			typ = "IFCARCINDEX"
		}
		l[i] = step21.Typed{Type: typ, Value: idx}
	}
	return l
}

func (e *emitter) curve2(pts []geom.Vec2, segs []segment) step21.Ref {
	coords := make(step21.List, len(pts))
	for i, p := range pts {
		coords[i] = step21.List{num(p.X), num(p.Y)}
	}
	list := e.add("IFCCARTESIANPOINTLIST2D", coords, null)
	return e.add("IFCINDEXEDPOLYCURVE", list, segments(segs), step21.Bool(false))
}

func (e *emitter) curve3(pts []geom.Vec3, segs []segment) step21.Ref {
	coords := make(step21.List, len(pts))
	for i, p := range pts {
		coords[i] = step21.List{num(p.X), num(p.Y), num(p.Z)}
	}
	list := e.add("IFCCARTESIANPOINTLIST3D", coords, null)
	return e.add("IFCINDEXEDPOLYCURVE", list, segments(segs), step21.Bool(false))
}

func (e *emitter) profile(name string, curve step21.Ref) step21.Ref {
	return e.add("IFCARBITRARYCLOSEDPROFILEDEF", enum("AREA"), label(name), curve)
}

// polygonProfile closes p with a single line index running back to 1.
func (e *emitter) polygonProfile(name string, p geom.Polygon2) step21.Ref {
	idx := make([]int, len(p)+1)
	for i := range p {
		idx[i] = i + 1
	}
	idx[len(p)] = 1
	return e.profile(name, e.curve2(p, []segment{{idx: idx}}))
}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

func (e *emitter) extrusion(name string, x locate.Extrusion) item {
	prof := e.polygonProfile(name, x.Profile)
	pos := e.axis(x.Frame)
	up := e.dir3(geom.V3(0, 0, 1))
	if x.Tapered() {
		op := e.add("IFCCARTESIANTRANSFORMATIONOPERATOR2D", null, null, e.point2(0, 0), step21.Real(x.Taper))
		end := e.add("IFCDERIVEDPROFILEDEF", enum("AREA"), label(name), prof, op, null)
		return item{e.add("IFCEXTRUDEDAREASOLIDTAPERED", prof, pos, up, num(x.Length), end), repAdvanced}
	}
	return item{e.add("IFCEXTRUDEDAREASOLID", prof, pos, up, num(x.Length)), repSwept}
}

// revolve turns an (r, z) section about the z-axis of f. The section plane
// of IfcRevolvedAreaSolid is the xy-plane of its position, revolved about
// the position y-axis, so the position is f turned to put f's z on y.
func (e *emitter) revolve(name string, section []geom.Vec2, f geom.Frame) item {
	prof := e.polygonProfile(name, section)
	pos := geom.Frame{Origin: f.Origin, Z: f.Y().Neg(), X: f.X}
	ax := e.add("IFCAXIS1PLACEMENT", e.point3(0, 0, 0), e.dir3(geom.V3(0, 1, 0)))
	return item{e.add("IFCREVOLVEDAREASOLID", prof, e.axis(pos), ax, step21.Real(360)), repSwept}
}

// sweptDisk writes a bar as a disk swept along its indexed centreline, arcs
// as three-point arc indices.
func (e *emitter) sweptDisk(p rebar.Path) item {
	pts, segs := p.Indexed()
	out := make([]segment, len(segs))
	for i, s := range segs {
		out[i] = segment{arc: s.Kind == rebar.Arc, idx: s.Indices}
	}
	curve := e.curve3(pts, out)
	return item{e.add("IFCSWEPTDISKSOLID", curve, num(p.Radius), null, null, null), repAdvanced}
}

// fillet writes the riser fillet profile: two lines and the quarter arc.
func (e *emitter) fillet(fl locate.FilletSpec) item {
	start, corner, top, mid := fl.Points()
	curve := e.curve2([]geom.Vec2{start, corner, top, mid}, []segment{
		{idx: []int{1, 2, 3}},
		{arc: true, idx: []int{3, 4, 1}},
	})
	prof := e.profile(fl.Name, curve)
	up := e.dir3(geom.V3(0, 0, 1))
	return item{e.add("IFCEXTRUDEDAREASOLID", prof, e.axis(fl.Frame()), up, num(fl.Length)), repSwept}
}

// shapeItem writes one insert shape placed in parent.
func (e *emitter) shapeItem(s locate.Shape, parent geom.Frame) item {
	local := s.Frame
	if local == (geom.Frame{}) {
		local = geom.Identity
	}
	fr := parent.Compose(local)
	up := e.dir3(geom.V3(0, 0, 1))
	switch s.Kind {
	case locate.ShapeRevolve:
		return e.revolve(s.Name, s.Profile, fr)
	case locate.ShapeCylinder:
		prof := e.add("IFCCIRCLEPROFILEDEF", enum("AREA"), label(s.Name), null, num(s.Radius))
		return item{e.add("IFCEXTRUDEDAREASOLID", prof, e.axis(fr), up, num(s.Height)), repSwept}
	case locate.ShapeBox:
		centre := e.add("IFCAXIS2PLACEMENT2D", e.point2(s.Size.X/2, s.Size.Y/2), null)
		prof := e.add("IFCRECTANGLEPROFILEDEF", enum("AREA"), label(s.Name), centre, num(s.Size.X), num(s.Size.Y))
		return item{e.add("IFCEXTRUDEDAREASOLID", prof, e.axis(fr), up, num(s.Size.Z)), repSwept}
	case locate.ShapeSphere:
		return item{e.add("IFCSPHERE", e.axis(geom.Identity.Translate(fr.Origin)), num(s.Radius)), repCSG}
	}
	return e.sweptDisk(transformPath(*s.Bar, fr))
}

// transformPath maps every point of p through f.
func transformPath(p rebar.Path, f geom.Frame) rebar.Path {
	out := p
	out.Segments = make([]rebar.Segment, len(p.Segments))
	for i, s := range p.Segments {
		pts := make([]geom.Vec3, len(s.Points))
		for j, q := range s.Points {
			pts[j] = f.ToWorld(q)
		}
		s.Points = pts
		out.Segments[i] = s
	}
	return out
}
