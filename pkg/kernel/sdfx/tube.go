package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/kernel"
)

// TubeSides is the number of facets around a meshed bar.
const TubeSides = 16

// tube is a round bar kept alongside its distance field. Bars are far
// thinner than they are long, so they are meshed from the centreline
// instead of by marching cubes.
type tube struct {
	pts []geom.Vec3
	r   float64
}

func (t tube) place(f geom.Frame) tube {
	pts := make([]geom.Vec3, len(t.pts))
	for i, p := range t.pts {
		pts[i] = f.ToWorld(p)
	}
	return tube{pts: pts, r: t.r}
}

// mesh facets the bar: one ring per spine point, mitred at the knees,
// closed by a fan at each end.
func (t tube) mesh() (*kernel.Mesh, error) {
	var pts []geom.Vec3
	for _, p := range t.pts {
		if len(pts) == 0 || p.Dist(pts[len(pts)-1]) > geom.Eps {
			pts = append(pts, p)
		}
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("sdfx: bar centreline has no length")
	}
	dirs := make([]geom.Vec3, len(pts)-1)
	for i := range dirs {
		dirs[i] = pts[i+1].Sub(pts[i]).Unit()
	}

	start, err := geom.FrameFromZ(pts[0], dirs[0])
	if err != nil {
		return nil, err
	}
	u, v := start.X.Vec(), start.Y().Vec()
	rings := make([][]geom.Vec3, len(pts))
	rings[0] = make([]geom.Vec3, TubeSides)
	for j := range rings[0] {
		a := 2 * math.Pi * float64(j) / TubeSides
		rings[0][j] = pts[0].Add(u.Scale(t.r * math.Cos(a))).Add(v.Scale(t.r * math.Sin(a)))
	}
	for i := 1; i < len(pts); i++ {
		d := dirs[i-1]
		n := d
		if i < len(dirs) {
			n = d.Add(dirs[i]).Unit()
		}
		den := d.Dot(n)
		if den < 1e-6 {
			return nil, fmt.Errorf("sdfx: bar folds back at %v", pts[i])
		}
		rings[i] = make([]geom.Vec3, TubeSides)
		for j, q := range rings[i-1] {
			rings[i][j] = q.Add(d.Scale(pts[i].Sub(q).Dot(n) / den))
		}
	}

	m := &kernel.Mesh{}
	for i := 1; i < len(rings); i++ {
		a, b := rings[i-1], rings[i]
		for j := 0; j < TubeSides; j++ {
			k := (j + 1) % TubeSides
			addTriangle(m, a[j], a[k], b[k])
			addTriangle(m, a[j], b[k], b[j])
		}
	}
	first, last := rings[0], rings[len(rings)-1]
	for j := 0; j < TubeSides; j++ {
		k := (j + 1) % TubeSides
		addTriangle(m, pts[0], first[k], first[j])
		addTriangle(m, pts[len(pts)-1], last[j], last[k])
	}
	return m, nil
}

func addTriangle(m *kernel.Mesh, a, b, c geom.Vec3) {
	n := b.Sub(a).Cross(c.Sub(a)).Unit()
	base := uint32(m.VertexCount())
	for _, p := range [3]geom.Vec3{a, b, c} {
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}

func meshTubes(ts []tube) (*kernel.Mesh, error) {
	out := &kernel.Mesh{}
	for _, t := range ts {
		m, err := t.mesh()
		if err != nil {
			return nil, err
		}
		out.Append(m)
	}
	return out, nil
}
