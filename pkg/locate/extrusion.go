package locate

import (
	"math"

	"github.com/chazu/stairkit/pkg/geom"
)

// Extrusion is a planar profile swept along the z-axis of its frame. The
// profile lives in the frame's xy-plane. When Taper is set the section is
// scaled about the frame origin so that the end section is Taper times the
// start section.
type Extrusion struct {
	Profile geom.Polygon2
	Frame   geom.Frame
	Length  float64
	Taper   float64 // 0 means a straight prism
}

// Tapered reports whether the end section differs from the start.
func (e Extrusion) Tapered() bool { return e.Taper > 0 && !near(e.Taper, 1) }

// EndProfile is the section at the far end, in frame coordinates.
func (e Extrusion) EndProfile() geom.Polygon2 {
	if !e.Tapered() {
		return e.Profile
	}
	return scaled(e.Profile, e.Taper)
}

// Volume is exact for similar start and end sections.
func (e Extrusion) Volume() float64 {
	a := e.Profile.Area()
	if !e.Tapered() {
		return a * e.Length
	}
	t := e.Taper
	return a * e.Length * (1 + t + t*t) / 3
}

// Bounds returns the world axis-aligned box of the swept section.
func (e Extrusion) Bounds() (min, max geom.Vec3) {
	pts := make([]geom.Vec3, 0, 2*len(e.Profile))
	for _, p := range e.Profile {
		pts = append(pts, e.Frame.ToWorld(geom.V3(p.X, p.Y, 0)))
	}
	for _, p := range e.EndProfile() {
		pts = append(pts, e.Frame.ToWorld(geom.V3(p.X, p.Y, e.Length)))
	}
	return boundsOf(pts)
}

func scaled(p geom.Polygon2, k float64) geom.Polygon2 {
	out := make(geom.Polygon2, len(p))
	for i, v := range p {
		out[i] = v.Scale(k)
	}
	return out
}

func boundsOf(pts []geom.Vec3) (min, max geom.Vec3) {
	min = geom.V3(math.Inf(1), math.Inf(1), math.Inf(1))
	max = geom.V3(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, p := range pts {
		min = geom.V3(math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z))
		max = geom.V3(math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z))
	}
	return min, max
}
