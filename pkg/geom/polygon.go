package geom

import "math"

// Polygon2 is a closed 2-D polygon stored without the repeated closing
// vertex.
type Polygon2 []Vec2

// Closed returns the vertices with the first vertex appended at the end.
func (p Polygon2) Closed() []Vec2 {
	if len(p) == 0 {
		return nil
	}
	out := make([]Vec2, 0, len(p)+1)
	out = append(out, p...)
	return append(out, p[0])
}

// SignedArea is positive for counter-clockwise polygons.
func (p Polygon2) SignedArea() float64 {
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].Cross(p[j])
	}
	return a / 2
}

// Area returns the absolute area.
func (p Polygon2) Area() float64 { return math.Abs(p.SignedArea()) }

// IsCCW reports counter-clockwise orientation.
func (p Polygon2) IsCCW() bool { return p.SignedArea() > 0 }

// Centroid returns the area centroid.
func (p Polygon2) Centroid() Vec2 {
	var cx, cy, a float64
	for i := range p {
		j := (i + 1) % len(p)
		c := p[i].Cross(p[j])
		cx += (p[i].X + p[j].X) * c
		cy += (p[i].Y + p[j].Y) * c
		a += c
	}
	if a == 0 {
		return Vec2{}
	}
	return Vec2{cx / (3 * a), cy / (3 * a)}
}

// IsSimple reports whether no two non-adjacent edges intersect and no
// vertex repeats.
func (p Polygon2) IsSimple() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if p[i].Near(p[j], Eps) {
				return false
			}
		}
	}
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			c, d := p[j], p[(j+1)%n]
			if SegmentsIntersect(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

// Bounds returns the axis-aligned extents.
func (p Polygon2) Bounds() (min, max Vec2) {
	if len(p) == 0 {
		return
	}
	min, max = p[0], p[0]
	for _, v := range p[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
	}
	return min, max
}

// Contains reports whether q lies strictly inside the polygon (even-odd
// rule).
func (p Polygon2) Contains(q Vec2) bool {
	in := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := a.X + (q.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if q.X < x {
				in = !in
			}
		}
	}
	return in
}

// Reversed returns the polygon with the opposite orientation.
func (p Polygon2) Reversed() Polygon2 {
	out := make(Polygon2, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Rect returns the CCW rectangle [x0,x1]×[y0,y1].
func Rect(x0, y0, x1, y1 float64) Polygon2 {
	return Polygon2{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}
