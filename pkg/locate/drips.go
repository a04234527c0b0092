package locate

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// semicircleSamples is the number of chords in a half-ellipse drip section.
const semicircleSamples = 16

// DripSpec is the drip groove along one long edge of the underside.
type DripSpec struct {
	Name string // "lower", "upper"
	Side Side
	X    float64
	// Path is the groove axis on the underside, in (y, z).
	Path []geom.Vec2
	// Section lies in the plane normal to a run: x across the groove
	// (world +X), y pointing out of the concrete.
	Section geom.Polygon2
	Depth   float64
	Runs    []Extrusion
}

// Spine is the groove axis in stair coordinates.
func (d DripSpec) Spine() []geom.Vec3 {
	out := make([]geom.Vec3, len(d.Path))
	for i, p := range d.Path {
		out[i] = p.YZ(d.X)
	}
	return out
}

// Volume sums the runs; the mitre overlaps at knees are counted twice.
func (d DripSpec) Volume() float64 {
	var v float64
	for _, r := range d.Runs {
		v += r.Volume()
	}
	return v
}

func locateDrips(s *stair, f *Features) error {
	dr := s.b.Drips
	if !dr.Mode.Enabled() {
		return nil
	}
	sec, depth := dripSection(dr)

	path := s.dripPath()
	for i := 1; i < len(path); i++ {
		if path[i].X-path[i-1].X <= geom.Eps {
			return stairerr.New(stairerr.KindGeometryInfeasible, "DripGroove",
				"path folds back at y=%.1f; check front and back offsets", path[i].X)
		}
	}

	var sides []Side
	switch dr.Layout {
	case params.DripLower:
		sides = []Side{Left}
	case params.DripUpper:
		sides = []Side{Right}
	default:
		sides = []Side{Left, Right}
	}
	for _, side := range sides {
		x := dr.EdgeOffset
		name := "lower"
		if side == Right {
			x = s.width - dr.EdgeOffset
			name = "upper"
		}
		half := sectionHalfWidth(sec)
		if x-half < -geom.Eps || x+half > s.width+geom.Eps {
			return stairerr.New(stairerr.KindGeometryInfeasible, fmt.Sprintf("DripGroove[%s]", name),
				"section breaks out of the side face")
		}
		runs, err := dripRuns(path, x, sec, depth)
		if err != nil {
			return stairerr.Wrap(stairerr.KindGeometryInfeasible, fmt.Sprintf("DripGroove[%s]", name), err)
		}
		f.Drips = append(f.Drips, DripSpec{
			Name:    name,
			Side:    side,
			X:       x,
			Path:    path,
			Section: sec,
			Depth:   depth,
			Runs:    runs,
		})
	}
	return nil
}

// dripPath follows the underside from the bottom ear (or the knee) to the
// top ear (or the first riser line of the top landing). When the flight
// ends before the knee the path runs on to the back offset instead.
func (s *stair) dripPath() []geom.Vec2 {
	dr := s.b.Drips
	var pts []geom.Vec2
	if s.g.BottomEarWidth > 0 && dr.FrontOffset < s.lbb {
		pts = append(pts, geom.V2(dr.FrontOffset, 0))
	}
	if s.lbb > 0 {
		pts = append(pts, s.knee())
	}
	yEnd := s.yn
	if s.g.TopEarWidth > 0 || yEnd <= s.lbb+geom.Eps {
		yEnd = s.ytot - dr.BackOffset
	}
	if len(pts) == 0 {
		pts = append(pts, geom.V2(0, 0))
	}
	return append(pts, geom.V2(yEnd, s.underside(yEnd)))
}

// dripSection returns the groove section and its depth. Depth runs along
// local -y, into the concrete.
func dripSection(dr params.Drips) (geom.Polygon2, float64) {
	if dr.Section == params.Semicircle {
		a, b := dr.A/2, dr.B
		sec := geom.Polygon2{}
		for k := 0; k <= semicircleSamples; k++ {
			t := math.Pi * float64(k) / semicircleSamples
			sec = append(sec, geom.V2(a*math.Cos(t), -b*math.Sin(t)))
		}
		// Walk from +x through -y to -x: clockwise, so reverse.
		return sec.Reversed(), b
	}
	return geom.Polygon2{
		{X: -dr.A / 2, Y: 0},
		{X: -dr.B / 2, Y: -dr.C},
		{X: dr.B / 2, Y: -dr.C},
		{X: dr.A / 2, Y: 0},
	}, dr.C
}

func sectionHalfWidth(sec geom.Polygon2) float64 {
	var w float64
	for _, p := range sec {
		w = math.Max(w, math.Abs(p.X))
	}
	return w
}

// dripRuns emits one prism per straight run of the path. Runs meeting at an
// interior knee are extended by the mitre overhang so the groove stays
// continuous on the inside of the bend.
func dripRuns(path []geom.Vec2, x float64, sec geom.Polygon2, depth float64) ([]Extrusion, error) {
	runs := make([]Extrusion, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		d := b.Sub(a).Unit()
		var extA, extB float64
		if i > 1 {
			extA = mitre(path[i-2], a, b, depth)
		}
		if i < len(path)-1 {
			extB = mitre(a, b, path[i+1], depth)
		}
		start := a.Sub(d.Scale(extA))
		fr, err := geom.NewFrame(geom.V3(x, start.X, start.Y), geom.V3(0, d.X, d.Y), geom.V3(1, 0, 0))
		if err != nil {
			return nil, err
		}
		runs = append(runs, Extrusion{
			Profile: sec,
			Frame:   fr,
			Length:  b.Dist(a) + extA + extB,
		})
	}
	return runs, nil
}

// mitre is how far a run must overshoot the knee at b so that a section of
// the given depth still closes the corner.
func mitre(a, b, c geom.Vec2, depth float64) float64 {
	u := b.Sub(a).Unit()
	v := c.Sub(b).Unit()
	turn := math.Acos(math.Max(-1, math.Min(1, u.Dot(v))))
	return depth * math.Tan(turn/2)
}
