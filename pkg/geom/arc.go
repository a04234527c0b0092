package geom

import (
	"errors"
	"math"
)

// ArcThrough returns the centre and radius of the circle through a, m and b.
func ArcThrough(a, m, b Vec2) (centre Vec2, radius float64, err error) {
	d := 2 * (a.X*(m.Y-b.Y) + m.X*(b.Y-a.Y) + b.X*(a.Y-m.Y))
	if math.Abs(d) < 1e-12 {
		return Vec2{}, 0, errors.New("geom: arc points are collinear")
	}
	a2, m2, b2 := a.Dot(a), m.Dot(m), b.Dot(b)
	centre = Vec2{
		X: (a2*(m.Y-b.Y) + m2*(b.Y-a.Y) + b2*(a.Y-m.Y)) / d,
		Y: (a2*(b.X-m.X) + m2*(a.X-b.X) + b2*(m.X-a.X)) / d,
	}
	return centre, centre.Dist(a), nil
}

// ArcThrough3 is ArcThrough for three points in space. It returns the centre,
// the radius and the swept angle from a to b through m.
func ArcThrough3(a, m, b Vec3) (centre Vec3, radius, sweep float64, err error) {
	u := m.Sub(a)
	v := b.Sub(a)
	n := u.Cross(v)
	nn := n.Dot(n)
	if nn < 1e-18 {
		return Vec3{}, 0, 0, errors.New("geom: arc points are collinear")
	}
	// Circumcentre of triangle a, m, b.
	c := v.Cross(n).Scale(u.Dot(u)).Add(n.Cross(u).Scale(v.Dot(v))).Scale(1 / (2 * nn))
	centre = a.Add(c)
	radius = c.Norm()
	ca := a.Sub(centre).Unit()
	cb := b.Sub(centre).Unit()
	cm := m.Sub(centre).Unit()
	angle := func(p Vec3) float64 {
		x := ca.Dot(p)
		y := n.Unit().Cross(ca).Dot(p)
		t := math.Atan2(y, x)
		if t < 0 {
			t += 2 * math.Pi
		}
		return t
	}
	sweep = angle(cb)
	if angle(cm) > sweep {
		sweep -= 2 * math.Pi
	}
	return centre, radius, math.Abs(sweep), nil
}

// ArcSegmentArea returns the area between a circular arc of the given radius
// and sweep angle and its chord.
func ArcSegmentArea(radius, sweep float64) float64 {
	return radius * radius * (sweep - math.Sin(sweep)) / 2
}

// ArcPoints samples n+1 points along the arc from a through m to b.
func ArcPoints(a, m, b Vec2, n int) ([]Vec2, error) {
	c, r, err := ArcThrough(a, m, b)
	if err != nil {
		return nil, err
	}
	t0 := math.Atan2(a.Y-c.Y, a.X-c.X)
	tm := math.Atan2(m.Y-c.Y, m.X-c.X)
	t1 := math.Atan2(b.Y-c.Y, b.X-c.X)
	sweep := normAngle(t1 - t0)
	if normAngle(tm-t0) > sweep {
		sweep -= 2 * math.Pi
	}
	out := make([]Vec2, n+1)
	for i := 0; i <= n; i++ {
		t := t0 + sweep*float64(i)/float64(n)
		out[i] = Vec2{c.X + r*math.Cos(t), c.Y + r*math.Sin(t)}
	}
	out[0], out[n] = a, b
	return out, nil
}

func normAngle(t float64) float64 {
	for t < 0 {
		t += 2 * math.Pi
	}
	for t >= 2*math.Pi {
		t -= 2 * math.Pi
	}
	return t
}
