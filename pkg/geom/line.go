package geom

import (
	"errors"
	"math"
)

// ErrParallel is returned when two lines do not intersect.
var ErrParallel = errors.New("geom: lines are parallel")

// Line2 is an infinite 2-D line through P with direction D.
type Line2 struct {
	P, D Vec2
}

// LineThrough returns the line through a and b.
func LineThrough(a, b Vec2) Line2 { return Line2{P: a, D: b.Sub(a)} }

// At returns P + t·D.
func (l Line2) At(t float64) Vec2 { return l.P.Add(l.D.Scale(t)) }

// Offset returns the line moved by dist along its left normal.
func (l Line2) Offset(dist float64) Line2 {
	n := l.D.Unit().Perp()
	return Line2{P: l.P.Add(n.Scale(dist)), D: l.D}
}

// Intersect returns the intersection point of l and o.
func (l Line2) Intersect(o Line2) (Vec2, error) {
	den := l.D.Cross(o.D)
	if math.Abs(den) < 1e-12 {
		return Vec2{}, ErrParallel
	}
	t := o.P.Sub(l.P).Cross(o.D) / den
	return l.At(t), nil
}

// YAt returns the y of the line at the given x. The line must not be
// vertical.
func (l Line2) YAt(x float64) float64 {
	if math.Abs(l.D.X) < 1e-12 {
		return l.P.Y
	}
	return l.P.Y + (x-l.P.X)*l.D.Y/l.D.X
}

// SignedDistance is positive on the left of the line.
func (l Line2) SignedDistance(p Vec2) float64 {
	return l.D.Unit().Cross(p.Sub(l.P))
}

// Angle returns the inclination of the line in radians.
func (l Line2) Angle() float64 { return math.Atan2(l.D.Y, l.D.X) }

// OffsetPolyline offsets an open polyline by dist to the left of its travel
// direction. Interior corners are mitred: each offset vertex is the
// intersection of the two adjacent offset edges.
func OffsetPolyline(pts []Vec2, dist float64) ([]Vec2, error) {
	if len(pts) < 2 {
		return nil, errors.New("geom: polyline needs at least two points")
	}
	edges := make([]Line2, len(pts)-1)
	for i := range edges {
		if pts[i].Dist(pts[i+1]) < Eps {
			return nil, errors.New("geom: degenerate polyline edge")
		}
		edges[i] = LineThrough(pts[i], pts[i+1]).Offset(dist)
	}
	out := make([]Vec2, len(pts))
	out[0] = edges[0].P
	last := edges[len(edges)-1]
	out[len(pts)-1] = last.At(1)
	for i := 1; i < len(pts)-1; i++ {
		p, err := edges[i-1].Intersect(edges[i])
		if err != nil {
			// Collinear neighbours: the offset vertex is just shifted.
			p = pts[i].Add(edges[i].D.Unit().Perp().Scale(dist))
		}
		out[i] = p
	}
	return out, nil
}

// Plane is an infinite plane through Point with unit Normal.
type Plane struct {
	Point  Vec3
	Normal Dir
}

// SignedDistance is positive on the side the normal points to.
func (p Plane) SignedDistance(q Vec3) float64 {
	return q.Sub(p.Point).Dot(p.Normal.v)
}

// Project returns the orthogonal projection of q onto the plane.
func (p Plane) Project(q Vec3) Vec3 {
	return q.Sub(p.Normal.v.Scale(p.SignedDistance(q)))
}

// SegmentsIntersect reports whether the closed segments ab and cd share a
// point, excluding the case where they only touch at shared endpoints.
func SegmentsIntersect(a, b, c, d Vec2) bool {
	if a.Near(c, Eps) || a.Near(d, Eps) || b.Near(c, Eps) || b.Near(d, Eps) {
		return false
	}
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(c, d, a)) || (d2 == 0 && onSegment(c, d, b)) ||
		(d3 == 0 && onSegment(a, b, c)) || (d4 == 0 && onSegment(a, b, d))
}

func orient(a, b, c Vec2) float64 {
	v := b.Sub(a).Cross(c.Sub(a))
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

func onSegment(a, b, p Vec2) bool {
	return math.Min(a.X, b.X)-Eps <= p.X && p.X <= math.Max(a.X, b.X)+Eps &&
		math.Min(a.Y, b.Y)-Eps <= p.Y && p.Y <= math.Max(a.Y, b.Y)+Eps
}
