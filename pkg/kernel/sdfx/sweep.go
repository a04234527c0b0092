package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/kernel"
)

// sweptDisk is the exact distance field of a round bar along a polyline:
// the distance to the nearest segment minus the radius.
type sweptDisk struct {
	pts []geom.Vec3
	r   float64
	bb  sdf.Box3
}

func (s *sweptDisk) Evaluate(p v3.Vec) float64 {
	q := geom.V3(p.X, p.Y, p.Z)
	d := math.Inf(1)
	for i := 1; i < len(s.pts); i++ {
		d = math.Min(d, segmentDistance(q, s.pts[i-1], s.pts[i]))
	}
	return d - s.r
}

func (s *sweptDisk) BoundingBox() sdf.Box3 { return s.bb }

func segmentDistance(p, a, b geom.Vec3) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Dist(a.Add(ab.Scale(t)))
}

// SweptDisk creates a round bar along spine.
func (k *SdfxKernel) SweptDisk(spine []geom.Vec3, radius float64) (kernel.Solid, error) {
	if len(spine) < 2 {
		return nil, fmt.Errorf("sdfx: swept disk needs 2 spine points, got %d", len(spine))
	}
	if radius <= 0 {
		return nil, fmt.Errorf("sdfx: swept disk radius %g", radius)
	}
	lo := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range spine {
		lo = v3.Vec{X: math.Min(lo.X, p.X-radius), Y: math.Min(lo.Y, p.Y-radius), Z: math.Min(lo.Z, p.Z-radius)}
		hi = v3.Vec{X: math.Max(hi.X, p.X+radius), Y: math.Max(hi.Y, p.Y+radius), Z: math.Max(hi.Z, p.Z+radius)}
	}
	pts := append([]geom.Vec3(nil), spine...)
	return &sdfxSolid{
		s:     &sweptDisk{pts: pts, r: radius, bb: sdf.Box3{Min: lo, Max: hi}},
		tubes: []tube{{pts: pts, r: radius}},
	}, nil
}

// Pipe sweeps section along spine as one prism per segment. Segments are
// lengthened at inner knees so that neighbouring prisms close the corner.
// The first section x-axis is world X projected onto the plane normal to
// the first segment; later segments carry it over by the minimal rotation.
func (k *SdfxKernel) Pipe(spine []geom.Vec3, section []geom.Vec2) (kernel.Solid, error) {
	var pts []geom.Vec3
	for _, p := range spine {
		if len(pts) == 0 || p.Dist(pts[len(pts)-1]) > geom.Eps {
			pts = append(pts, p)
		}
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("sdfx: pipe spine has no length")
	}
	var reach float64
	for _, q := range section {
		reach = math.Max(reach, q.Norm())
	}

	out := k.Empty()
	var fr geom.Frame
	var prev geom.Dir
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		d, err := geom.NewDir(b.Sub(a))
		if err != nil {
			return nil, err
		}
		if i == 1 {
			fr, err = geom.FrameFromZ(a, d.Vec())
			if err != nil {
				return nil, err
			}
		} else {
			fr = geom.RotationBetween(prev, d).RotateFrame(fr)
		}
		var extA, extB float64
		if i > 1 {
			extA = knee(pts[i-2], a, b, reach)
		}
		if i < len(pts)-1 {
			extB = knee(a, b, pts[i+1], reach)
		}
		fr.Origin = a.Sub(d.Vec().Scale(extA))
		seg, err := k.Prism(section, fr, a.Dist(b)+extA+extB)
		if err != nil {
			return nil, fmt.Errorf("pipe segment %d: %w", i, err)
		}
		if out, err = k.Union(out, seg); err != nil {
			return nil, err
		}
		prev = d
	}
	return k.Simplify(out), nil
}

// knee is how far a section of the given reach must overshoot the bend at
// b to close it.
func knee(a, b, c geom.Vec3, reach float64) float64 {
	u := b.Sub(a).Unit()
	v := c.Sub(b).Unit()
	turn := math.Acos(math.Max(-1, math.Min(1, u.Dot(v))))
	return reach * math.Tan(turn/2)
}
