package locate

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/rebar"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Rebar group names.
const (
	BarBottomLong              = "bottom-long"
	BarTopLong                 = "top-long"
	BarMidDistribution         = "mid-distribution"
	BarBottomEdgeLong          = "bottom-edge-long"
	BarTopEdgeLong             = "top-edge-long"
	BarBottomEdgeStirrup       = "bottom-edge-stirrup"
	BarTopEdgeStirrup          = "top-edge-stirrup"
	BarHoleReinforcement       = "hole-reinforcement"
	BarHoistingLong            = "hoisting-long"
	BarHoistingPoint           = "hoisting-point"
	BarBottomEdgeReinforcement = "bottom-edge-reinforcement"
	BarTopEdgeReinforcement    = "top-edge-reinforcement"
	BarConnectionAnchor        = "connection-anchor"
)

// connectionGrade is the mandrel grade of connection anchors.
const connectionGrade = 3

// RebarSpec is the control polygon of one bar.
type RebarSpec struct {
	Group    string
	Name     string
	Points   []geom.Vec3
	Closed   bool
	Diameter float64
	Grade    int
}

// Radius is half the diameter.
func (r RebarSpec) Radius() float64 { return r.Diameter / 2 }

// Path fillets the control polygon.
func (r RebarSpec) Path() (rebar.Path, error) {
	return rebar.Build(r.Points, r.Radius(), r.Grade, r.Closed)
}

// bars collects the specs of one group and checks that every polygon can
// be bent.
type bars struct {
	f     *Features
	group string
	g     params.Group
	n     int
}

func newBars(f *Features, name string, g params.Group) *bars {
	return &bars{f: f, group: name, g: g}
}

func (b *bars) add(pts []geom.Vec3, closed bool) error {
	b.n++
	return b.addNamed(fmt.Sprintf("%s-%d", b.group, b.n), pts, closed)
}

func (b *bars) addNamed(name string, pts []geom.Vec3, closed bool) error {
	spec := RebarSpec{
		Group:    b.group,
		Name:     name,
		Points:   pts,
		Closed:   closed,
		Diameter: b.g.Diameter,
		Grade:    b.g.Grade,
	}
	if _, err := spec.Path(); err != nil {
		return stairerr.Wrap(stairerr.KindRebarBendInfeasible, fmt.Sprintf("Rebar[%s]", name), err)
	}
	b.f.Rebars = append(b.f.Rebars, spec)
	return nil
}

// alongX adds one copy of the side-profile polygon pts per station across
// the width.
func (b *bars) alongX(s *stair, pts []geom.Vec2, closed bool) error {
	for _, x := range rebar.Distribute(s.width, s.b.Rebar.StartEdge, b.g.Spacing) {
		if err := b.add(lift(pts, x), closed); err != nil {
			return err
		}
	}
	return nil
}

// acrossX adds a straight bar along X through the side-profile point p.
func (b *bars) acrossX(s *stair, p geom.Vec2, name string) error {
	pts := []geom.Vec3{p.YZ(s.cover), p.YZ(s.width - s.cover)}
	if name == "" {
		return b.add(pts, false)
	}
	return b.addNamed(name, pts, false)
}

func lift(pts []geom.Vec2, x float64) []geom.Vec3 {
	out := make([]geom.Vec3, len(pts))
	for i, p := range pts {
		out[i] = p.YZ(x)
	}
	return out
}

func locateRebars(s *stair, f *Features) error {
	r := s.b.Rebar
	bottom, err := s.bottomLong(f)
	if err != nil {
		return err
	}
	top, err := s.topLong(f)
	if err != nil {
		return err
	}
	if s.b.Joint.Mode.Enabled() {
		if err := s.connectionAnchors(f); err != nil {
			return err
		}
	}
	if !r.Full() {
		return nil
	}

	steps := []func(*Features) error{
		func(f *Features) error { return s.midDistribution(f, bottom, top) },
		s.edgeStirrups,
		s.holeReinforcement,
		s.edgeReinforcement,
	}
	if s.b.Hoisting.Mode.Enabled() {
		steps = append(steps, s.hoistingBars)
	}
	for _, step := range steps {
		if err := step(f); err != nil {
			return err
		}
	}
	return nil
}

// bottomLong follows the underside at cover + r from the front face to the
// back face.
func (s *stair) bottomLong(f *Features) (polyPath, error) {
	g := s.b.Rebar.BottomLong
	layer, err := s.bottomLayer(s.cover, s.ytot-s.cover, s.cover+g.Radius())
	if err != nil {
		return nil, stairerr.Wrap(stairerr.KindGeometryInfeasible, "Rebar["+BarBottomLong+"]", err)
	}
	return layer, newBars(f, BarBottomLong, g).alongX(s, layer, false)
}

// topLong runs under the bottom landing top, down a line parallel to the
// riser feet and under the top landing top.
func (s *stair) topLong(f *Features) (polyPath, error) {
	g := s.b.Rebar.TopLong
	d := s.cover + g.Radius()
	pitch := geom.Line2{P: geom.V2(s.lbt, s.tb), D: geom.V2(s.w, s.h)}.Offset(-d)
	p1, err1 := pitch.Intersect(geom.Line2{P: geom.V2(0, s.tb-d), D: geom.V2(1, 0)})
	p2, err2 := pitch.Intersect(geom.Line2{P: geom.V2(0, s.ztop-d), D: geom.V2(1, 0)})
	pts := polyPath{geom.V2(s.cover, s.tb-d), p1, p2, geom.V2(s.ytot-s.cover, s.ztop-d)}
	if err1 != nil || err2 != nil || !increasingY(pts) {
		return nil, stairerr.New(stairerr.KindGeometryInfeasible, "Rebar["+BarTopLong+"]",
			"top layer %v does not run front to back", []geom.Vec2(pts))
	}
	return pts, newBars(f, BarTopLong, g).alongX(s, pts, false)
}

func increasingY(pts []geom.Vec2) bool {
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X+geom.Eps {
			return false
		}
	}
	return true
}

// midDistribution places bars along X at stations along both longitudinal
// layers.
func (s *stair) midDistribution(f *Features, bottom, top polyPath) error {
	r := s.b.Rebar
	g := r.MidDistribution
	rm := g.Radius()
	b := newBars(f, BarMidDistribution, g)

	layers := []struct {
		name   string
		path   polyPath
		inward float64 // +1 when the left normal points into the concrete
		long   float64
	}{
		{"bottom", bottom, 1, r.BottomLong.Radius()},
		{"top", top, -1, r.TopLong.Radius()},
	}
	for _, l := range layers {
		shift := l.long + rm
		if r.DrawingFriendlyMid {
			shift = rm - l.long
		}
		stations := rebar.Distribute(l.path.length(), r.StartEdge, g.Spacing)
		for k, t := range stations {
			p, d := l.path.at(t)
			p = p.Add(d.Perp().Scale(l.inward * shift))
			if err := b.acrossX(s, p, fmt.Sprintf("%s-%s-%d", BarMidDistribution, l.name, k+1)); err != nil {
				return err
			}
		}
	}
	return nil
}

// landingBox returns the stirrup axis rectangle of one landing.
func (s *stair) landingBox(top bool, rs float64) (y0, y1, z0, z1 float64) {
	depth := s.b.Rebar.StirrupDepth
	if top {
		y1 = s.ytot - s.cover - rs
		y0 = y1 - depth
		z1 = s.ztop - s.cover - rs
	} else {
		y0 = s.cover + rs
		y1 = y0 + depth
		z1 = s.tb - s.cover - rs
	}
	z0 = s.underside(y1+rs) + s.cover + rs
	return
}

// edgeStirrups adds the closed landing stirrups and the four edge
// longitudinals held in their corners.
func (s *stair) edgeStirrups(f *Features) error {
	r := s.b.Rebar
	ends := []struct {
		top      bool
		stirrup  params.Group
		long     params.Group
		sName    string
		lName    string
		landingY float64 // the stirrup must not pass this y
	}{
		{false, r.BottomEdgeStirrup, r.BottomEdgeLong, BarBottomEdgeStirrup, BarBottomEdgeLong, s.lbt},
		{true, r.TopEdgeStirrup, r.TopEdgeLong, BarTopEdgeStirrup, BarTopEdgeLong, s.yn},
	}
	for _, e := range ends {
		rs := e.stirrup.Radius()
		y0, y1, z0, z1 := s.landingBox(e.top, rs)
		entity := "Rebar[" + e.sName + "]"
		if (e.top && y0-rs < e.landingY-geom.Eps) || (!e.top && y1+rs > e.landingY+geom.Eps) {
			return stairerr.New(stairerr.KindGeometryInfeasible, entity,
				"stirrup depth %.1f does not fit the landing", r.StirrupDepth)
		}
		if z1-z0 <= 2*rs {
			return stairerr.New(stairerr.KindGeometryInfeasible, entity,
				"landing leaves %.1f for the stirrup height", z1-z0)
		}
		loop := []geom.Vec2{{X: y0, Y: z0}, {X: y1, Y: z0}, {X: y1, Y: z1}, {X: y0, Y: z1}}
		if err := newBars(f, e.sName, e.stirrup).alongX(s, loop, true); err != nil {
			return err
		}

		in := rs + e.long.Radius()
		lb := newBars(f, e.lName, e.long)
		for _, p := range []geom.Vec2{
			{X: y0 + in, Y: z0 + in},
			{X: y1 - in, Y: z0 + in},
			{X: y1 - in, Y: z1 - in},
			{X: y0 + in, Y: z1 - in},
		} {
			if err := lb.acrossX(s, p, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// holeReinforcement places one L bar per hole in the hole's x-plane,
// between the hole and the flight. The polygon is drawn on the outside
// face of the bend and moved to the bar axis.
func (s *stair) holeReinforcement(f *Features) error {
	r := s.b.Rebar
	g := r.HoleReinforcement
	b := newBars(f, BarHoleReinforcement, g)
	for _, h := range f.Holes {
		dir := 1.0
		if h.End == Top {
			dir = -1
		}
		yv := h.Base.Y + dir*(h.MaxRadius()+s.cover)
		yl := yv + dir*r.HoleLegLength
		top := h.Base.Z + h.Height() - s.cover
		low := math.Max(s.underside(yv), s.underside(yl)) + s.cover
		face := []geom.Vec2{{X: yv, Y: top}, {X: yv, Y: (top + low) / 2}, {X: yv, Y: low}, {X: yl, Y: low}}

		// Down then towards the flight: a left turn for the bottom end.
		off, err := geom.OffsetPolyline(face, dir*g.Radius())
		if err != nil {
			return stairerr.Wrap(stairerr.KindGeometryInfeasible, "Rebar["+BarHoleReinforcement+"-"+h.Name+"]", err)
		}
		pts := rebar.DropCollinear(lift(off, h.Base.X))
		if err := b.addNamed(BarHoleReinforcement+"-"+h.Name, pts, false); err != nil {
			return err
		}
	}
	return nil
}

// edgeReinforcement ties each landing's top layer into the flight's bottom
// layer with a Z-shaped bar.
func (s *stair) edgeReinforcement(f *Features) error {
	r := s.b.Rebar
	for _, top := range []bool{false, true} {
		g, name := r.BottomEdgeReinforcement, BarBottomEdgeReinforcement
		if top {
			g, name = r.TopEdgeReinforcement, BarTopEdgeReinforcement
		}
		d := s.cover + g.Radius()
		layer, err := s.bottomLayer(s.cover, s.ytot-s.cover, d)
		if err != nil {
			return stairerr.Wrap(stairerr.KindGeometryInfeasible, "Rebar["+name+"]", err)
		}

		var p0, p1 geom.Vec2
		dir := 1.0
		if top {
			p0, p1 = geom.V2(s.ytot-s.cover, s.ztop-d), geom.V2(s.yn+s.cover, s.ztop-d)
			dir = -1
		} else {
			p0, p1 = geom.V2(s.cover, s.tb-d), geom.V2(s.lbt-s.cover, s.tb-d)
		}
		drop := p1.Y - layer.zAt(p1.X)
		if drop <= 0 {
			return stairerr.New(stairerr.KindGeometryInfeasible, "Rebar["+name+"]",
				"landing top layer is not above the flight bottom layer at y=%.1f", p1.X)
		}
		// The bottom bar slants forward under the first tread; the top bar
		// drops straight down inside the top landing.
		y2 := p1.X
		if !top {
			y2 += drop / 2
		}
		p2 := geom.V2(y2, layer.zAt(y2))
		p3, _ := layer.at(math.Max(0, layer.sAt(y2)+dir*r.AnchorageLength))
		if err := newBars(f, name, g).alongX(s, []geom.Vec2{p0, p1, p2, p3}, false); err != nil {
			return err
		}
	}
	return nil
}

// hoistingBars adds, per hoisting insert, a longitudinal Z-bend that dips
// under the insert foot and a straight bar along X beside the foot.
func (s *stair) hoistingBars(f *Features) error {
	r := s.b.Rebar
	gl, gp := r.HoistingLong, r.HoistingPoint
	kl, err := rebar.MandrelFactor(gl.Grade)
	if err != nil {
		return err
	}
	bl := newBars(f, BarHoistingLong, gl)
	bp := newBars(f, BarHoistingPoint, gp)

	e := s.pitchDir()
	nrm := e.Perp()
	for _, in := range f.Inserts {
		if in.Role != RoleHoisting {
			continue
		}
		o := in.Frame.Origin
		p := geom.V2(o.Y, o.Z)
		depth := in.Depth()

		// Pitch-aligned coordinates of the insert foot.
		foot := geom.V2(0, -depth)
		sf, tf := foot.Dot(e), foot.Dot(nrm)
		rl := gl.Radius()
		bend := kl * rl
		tDip := tf - rl
		tTop := tDip + 2*bend
		b, a := 2*bend, 4*bend
		half := r.HoistingLongLength / 2
		st := [][2]float64{
			{sf - half, tTop}, {sf - a, tTop}, {sf - b, tDip},
			{sf + b, tDip}, {sf + a, tTop}, {sf + half, tTop},
		}
		pts := make([]geom.Vec2, len(st))
		for i, q := range st {
			pts[i] = p.Add(e.Scale(q[0])).Add(nrm.Scale(q[1]))
		}
		if err := bl.addNamed(BarHoistingLong+"-"+in.Name, lift(pts, o.X), false); err != nil {
			return err
		}

		reach := in.Reach()
		rp := gp.Radius()
		c := geom.V3(o.X, o.Y+reach+rp, o.Z-depth+rp)
		hl := r.HoistingPointLength / 2
		point := []geom.Vec3{c.Add(geom.V3(-hl, 0, 0)), c.Add(geom.V3(hl, 0, 0))}
		if err := bp.addNamed(BarHoistingPoint+"-"+in.Name, point, false); err != nil {
			return err
		}
	}
	return nil
}

// connectionAnchors drops an L bar down each hole axis into the support
// below, its leg pointing towards the flight.
func (s *stair) connectionAnchors(f *Features) error {
	j := s.b.Joint
	b := newBars(f, BarConnectionAnchor, params.Group{Diameter: j.AnchorDiameter, Grade: connectionGrade})
	for _, h := range f.Holes {
		dir := 1.0
		if h.End == Top {
			dir = -1
		}
		top := h.Base.Add(geom.V3(0, 0, h.Height()))
		bot := top.Sub(geom.V3(0, 0, j.AnchorLength))
		leg := bot.Add(geom.V3(0, dir*j.AnchorLegLength, 0))
		if err := b.addNamed(BarConnectionAnchor+"-"+h.Name, []geom.Vec3{top, bot, leg}, false); err != nil {
			return err
		}
	}
	return nil
}
