// Package rebar turns reinforcement control polygons into bar centrelines:
// straight runs joined by tangent circular arcs whose radius is the mandrel
// radius for the bar grade. The result is a tagged segment sequence consumed
// by both the solid builder and the IFC polycurve writer.
package rebar

import (
	"fmt"
	"iter"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// MinInteriorAngle is the sharpest corner a bar can be bent around.
const MinInteriorAngle = math.Pi / 180

// collinearTol is the angular tolerance under which an interior vertex is
// treated as straight and gets no arc.
const collinearTol = 1e-9

// SegmentKind tags a path segment.
type SegmentKind int

const (
	Line SegmentKind = iota
	Arc
)

func (k SegmentKind) String() string {
	if k == Arc {
		return "ARC"
	}
	return "LINE"
}

// Segment is a straight run (two points) or a circular arc (start, apex,
// end).
type Segment struct {
	Kind   SegmentKind
	Points []geom.Vec3
	// Sweep is the arc angle in radians; zero for lines.
	Sweep float64
}

// Start returns the first point of the segment.
func (s Segment) Start() geom.Vec3 { return s.Points[0] }

// End returns the last point of the segment.
func (s Segment) End() geom.Vec3 { return s.Points[len(s.Points)-1] }

// Length of the segment along the bar axis.
func (s Segment) Length(bend float64) float64 {
	if s.Kind == Arc {
		return bend * s.Sweep
	}
	return s.Start().Dist(s.End())
}

// Path is a bar centreline.
type Path struct {
	Segments   []Segment
	Radius     float64 // bar radius
	BendRadius float64 // mandrel radius of every arc
	Closed     bool
}

// MandrelFactor returns k in R = k·r for a bar grade.
func MandrelFactor(grade int) (float64, error) {
	switch grade {
	case 1:
		return 1.25, nil
	case 2:
		return 2.0, nil
	case 3:
		return 2.5, nil
	}
	return 0, stairerr.New(stairerr.KindParameterOutOfRange, "rebar.grade", "no mandrel rule for grade %d", grade)
}

// Build fillets every interior corner of poly with an arc of radius
// MandrelFactor(grade)·radius. A closed polygon is given without repeating
// its first vertex and every vertex, including the first, gets an arc.
func Build(poly []geom.Vec3, radius float64, grade int, closed bool) (Path, error) {
	k, err := MandrelFactor(grade)
	if err != nil {
		return Path{}, err
	}
	return BuildWithBend(poly, radius, k*radius, closed)
}

// corner is the fillet computed at one vertex.
type corner struct {
	start, mid, end geom.Vec3
	t               float64 // tangent offset from the vertex
	sweep           float64
	straight        bool
}

// BuildWithBend is Build with an explicit mandrel radius.
func BuildWithBend(poly []geom.Vec3, radius, bend float64, closed bool) (Path, error) {
	if radius <= 0 || bend <= 0 {
		return Path{}, stairerr.New(stairerr.KindRebarBendInfeasible, "rebar", "radius %g and bend radius %g must be positive", radius, bend)
	}
	n := len(poly)
	if n < 2 || (closed && n < 3) {
		return Path{}, stairerr.New(stairerr.KindRebarBendInfeasible, "rebar", "%d control points are too few", n)
	}
	for i := 0; i < n; i++ {
		j := i + 1
		if j == n {
			if !closed {
				break
			}
			j = 0
		}
		if poly[i].Dist(poly[j]) < geom.Eps {
			return Path{}, stairerr.New(stairerr.KindRebarBendInfeasible, fmt.Sprintf("vertex %d", i), "coincident control points")
		}
	}

	corners := make([]corner, n)
	for i := range poly {
		if !closed && (i == 0 || i == n-1) {
			corners[i] = corner{start: poly[i], end: poly[i], straight: true}
			continue
		}
		prev := poly[(i+n-1)%n]
		next := poly[(i+1)%n]
		c, err := fillet(prev, poly[i], next, bend)
		if err != nil {
			return Path{}, stairerr.Wrap(stairerr.KindRebarBendInfeasible, fmt.Sprintf("vertex %d", i), err)
		}
		corners[i] = c
	}

	// Every straight run must keep at least one bar radius after both
	// tangent offsets are taken out.
	edges := n - 1
	if closed {
		edges = n
	}
	for i := 0; i < edges; i++ {
		j := (i + 1) % n
		left := poly[i].Dist(poly[j]) - corners[i].t - corners[j].t
		if left < radius-geom.Eps {
			return Path{}, stairerr.New(stairerr.KindRebarBendInfeasible, fmt.Sprintf("vertex %d", j),
				"straight run %d-%d shrinks to %.3g, below bar radius %g", i, j, left, radius)
		}
	}

	p := Path{Radius: radius, BendRadius: bend, Closed: closed}
	if !closed {
		cur := poly[0]
		for i := 1; i < n-1; i++ {
			c := corners[i]
			if c.straight {
				continue
			}
			p.Segments = append(p.Segments,
				Segment{Kind: Line, Points: []geom.Vec3{cur, c.start}},
				Segment{Kind: Arc, Points: []geom.Vec3{c.start, c.mid, c.end}, Sweep: c.sweep},
			)
			cur = c.end
		}
		p.Segments = append(p.Segments, Segment{Kind: Line, Points: []geom.Vec3{cur, poly[n-1]}})
		return p, nil
	}

	// Closed: begin at the first real arc so the final line returns to its
	// start point.
	first := -1
	for i, c := range corners {
		if !c.straight {
			first = i
			break
		}
	}
	if first < 0 {
		return Path{}, stairerr.New(stairerr.KindRebarBendInfeasible, "rebar", "closed loop has no corners")
	}
	cur := corners[first].start
	for k := 0; k < n; k++ {
		c := corners[(first+k)%n]
		if c.straight {
			continue
		}
		if k > 0 {
			p.Segments = append(p.Segments, Segment{Kind: Line, Points: []geom.Vec3{cur, c.start}})
		}
		p.Segments = append(p.Segments, Segment{Kind: Arc, Points: []geom.Vec3{c.start, c.mid, c.end}, Sweep: c.sweep})
		cur = c.end
	}
	p.Segments = append(p.Segments, Segment{Kind: Line, Points: []geom.Vec3{cur, corners[first].start}})
	return p, nil
}

// fillet computes the tangent arc of radius R at vertex p between the
// incoming edge from prev and the outgoing edge to next.
func fillet(prev, p, next geom.Vec3, R float64) (corner, error) {
	u := prev.Sub(p).Unit()
	v := next.Sub(p).Unit()
	cos := math.Max(-1, math.Min(1, u.Dot(v)))
	theta := math.Acos(cos)
	if math.Pi-theta < collinearTol {
		return corner{start: p, end: p, straight: true}, nil
	}
	if theta < MinInteriorAngle {
		return corner{}, fmt.Errorf("interior angle %.4g° below minimum %.4g°", theta*180/math.Pi, MinInteriorAngle*180/math.Pi)
	}
	alpha := theta / 2
	t := R / math.Tan(alpha)
	bis := u.Add(v).Unit()
	return corner{
		start: p.Add(u.Scale(t)),
		mid:   p.Add(bis.Scale(R/math.Sin(alpha) - R)),
		end:   p.Add(v.Scale(t)),
		t:     t,
		sweep: math.Pi - theta,
	}, nil
}

// FromSegments assembles a path from explicit segments, checking that each
// segment starts where the previous one ends.
func FromSegments(segs []Segment, radius, bend float64, closed bool) (Path, error) {
	for i := 1; i < len(segs); i++ {
		if !segs[i].Start().Near(segs[i-1].End(), 1e-6) {
			return Path{}, fmt.Errorf("rebar: segment %d does not continue segment %d", i, i-1)
		}
	}
	if closed && len(segs) > 0 && !segs[0].Start().Near(segs[len(segs)-1].End(), 1e-6) {
		return Path{}, fmt.Errorf("rebar: closed path does not return to its start")
	}
	return Path{Segments: segs, Radius: radius, BendRadius: bend, Closed: closed}, nil
}

// All yields every point of the path once, tagged with the kind of the
// segment it belongs to. A closed path ends on its first point again.
func (p Path) All() iter.Seq2[geom.Vec3, SegmentKind] {
	return func(yield func(geom.Vec3, SegmentKind) bool) {
		for i, s := range p.Segments {
			pts := s.Points
			if i > 0 {
				pts = pts[1:]
			}
			for _, pt := range pts {
				if !yield(pt, s.Kind) {
					return
				}
			}
		}
	}
}

// IndexSegment references path points by 1-based index, the way indexed
// poly curves do.
type IndexSegment struct {
	Kind    SegmentKind
	Indices []int
}

// Indexed returns the distinct path points and the segments as index lists.
// A closed path reuses index 1 for its final point.
func (p Path) Indexed() ([]geom.Vec3, []IndexSegment) {
	var pts []geom.Vec3
	segs := make([]IndexSegment, 0, len(p.Segments))
	for i, s := range p.Segments {
		idx := make([]int, len(s.Points))
		for j, pt := range s.Points {
			switch {
			case j == 0 && i > 0:
				idx[j] = len(pts)
			case p.Closed && i == len(p.Segments)-1 && j == len(s.Points)-1:
				idx[j] = 1
			default:
				pts = append(pts, pt)
				idx[j] = len(pts)
			}
		}
		segs = append(segs, IndexSegment{Kind: s.Kind, Indices: idx})
	}
	return pts, segs
}

// Length is the developed length of the bar axis.
func (p Path) Length() float64 {
	var l float64
	for _, s := range p.Segments {
		l += s.Length(p.BendRadius)
	}
	return l
}

// TangentPoints returns the start and end of every arc in path order.
func (p Path) TangentPoints() []geom.Vec3 {
	var out []geom.Vec3
	for _, s := range p.Segments {
		if s.Kind == Arc {
			out = append(out, s.Start(), s.End())
		}
	}
	return out
}

// ArcCount is the number of bends.
func (p Path) ArcCount() int {
	n := 0
	for _, s := range p.Segments {
		if s.Kind == Arc {
			n++
		}
	}
	return n
}

// Polyline samples the centreline, using n chords per arc.
func (p Path) Polyline(n int) []geom.Vec3 {
	if n < 1 {
		n = 1
	}
	var out []geom.Vec3
	for i, s := range p.Segments {
		if i == 0 {
			out = append(out, s.Start())
		}
		if s.Kind == Line {
			out = append(out, s.End())
			continue
		}
		c, r, _, err := geom.ArcThrough3(s.Points[0], s.Points[1], s.Points[2])
		if err != nil {
			out = append(out, s.Points[1], s.End())
			continue
		}
		a := s.Points[0].Sub(c).Unit()
		b := s.Points[1].Sub(c)
		// In-plane basis: a and the part of the apex direction normal to a.
		e2 := b.Sub(a.Scale(b.Dot(a))).Unit()
		for k := 1; k <= n; k++ {
			t := s.Sweep * float64(k) / float64(n)
			out = append(out, c.Add(a.Scale(r*math.Cos(t))).Add(e2.Scale(r*math.Sin(t))))
		}
		out[len(out)-1] = s.End()
	}
	return out
}

// Bounds returns the axis-aligned box of the bar, inflated by its radius.
func (p Path) Bounds() (min, max geom.Vec3) {
	first := true
	for pt := range p.All() {
		if first {
			min, max = pt, pt
			first = false
			continue
		}
		min = geom.V3(math.Min(min.X, pt.X), math.Min(min.Y, pt.Y), math.Min(min.Z, pt.Z))
		max = geom.V3(math.Max(max.X, pt.X), math.Max(max.Y, pt.Y), math.Max(max.Z, pt.Z))
	}
	r := geom.V3(p.Radius, p.Radius, p.Radius)
	return min.Sub(r), max.Add(r)
}
