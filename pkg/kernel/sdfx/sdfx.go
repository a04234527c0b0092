// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid. A nil s is the
// empty solid. Unions keep their flattened operands and differences their
// base and cuts so Simplify can rebuild them as single n-ary nodes. A solid
// made only of bars also keeps their centrelines in tubes.
type sdfxSolid struct {
	s     sdf.SDF3
	parts []sdf.SDF3 // union operands
	base  sdf.SDF3   // difference minuend
	cuts  []sdf.SDF3 // difference subtrahends
	tubes []tube
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	if s.s == nil {
		return min, max
	}
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// IsEmpty reports whether s is the empty solid.
func (s *sdfxSolid) IsEmpty() bool { return s.s == nil }

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	workers int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{workers: 1}
}

var errForeignSolid = errors.New("sdfx: solid was not built by this kernel")

// unwrap extracts the sdfx solid behind a kernel.Solid.
func unwrap(s kernel.Solid) (*sdfxSolid, error) {
	x, ok := s.(*sdfxSolid)
	if !ok || x == nil {
		return nil, errForeignSolid
	}
	return x, nil
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

func vec3(v geom.Vec3) v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func polygon(profile []geom.Vec2) (sdf.SDF2, error) {
	if len(profile) < 3 {
		return nil, fmt.Errorf("sdfx: profile needs 3 vertices, got %d", len(profile))
	}
	pts := make([]v2.Vec, len(profile))
	for i, p := range profile {
		pts[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	return sdf.Polygon2D(pts)
}

// placement is the matrix taking frame coordinates to world coordinates.
func placement(f geom.Frame) sdf.M44 {
	m := sdf.Translate3d(vec3(f.Origin))
	axis, angle := geom.FrameRotation(f).AxisAngle()
	if angle != 0 {
		m = m.Mul(sdf.Rotate3d(vec3(axis), angle))
	}
	return m
}

func place(s sdf.SDF3, f geom.Frame) sdf.SDF3 {
	if f == geom.Identity {
		return s
	}
	return sdf.Transform3D(s, placement(f))
}

// lift moves a z-centred sdfx solid of the given height so it starts at
// z = 0, then places it.
func lift(s sdf.SDF3, height float64, f geom.Frame) kernel.Solid {
	s = sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2}))
	return wrap(place(s, f))
}

// Prism extrudes profile along +z of f.
func (k *SdfxKernel) Prism(profile []geom.Vec2, f geom.Frame, length float64) (kernel.Solid, error) {
	if length <= 0 {
		return nil, fmt.Errorf("sdfx: prism length %g", length)
	}
	p, err := polygon(profile)
	if err != nil {
		return nil, err
	}
	return lift(sdf.Extrude3D(p, length), length, f), nil
}

// TaperedPrism extrudes profile while scaling it about the frame origin.
func (k *SdfxKernel) TaperedPrism(profile []geom.Vec2, f geom.Frame, length, scale float64) (kernel.Solid, error) {
	if length <= 0 || scale <= 0 {
		return nil, fmt.Errorf("sdfx: tapered prism length %g scale %g", length, scale)
	}
	p, err := polygon(profile)
	if err != nil {
		return nil, err
	}
	return lift(sdf.ScaleExtrude3D(p, length, v2.Vec{X: scale, Y: scale}), length, f), nil
}

// Revolve turns an (r, z) profile about the frame z-axis.
func (k *SdfxKernel) Revolve(profile []geom.Vec2, f geom.Frame, angle float64) (kernel.Solid, error) {
	p, err := polygon(profile)
	if err != nil {
		return nil, err
	}
	var s sdf.SDF3
	if angle >= 2*math.Pi-1e-9 {
		s, err = sdf.Revolve3D(p)
	} else {
		s, err = sdf.RevolveTheta3D(p, angle)
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx: revolve: %w", err)
	}
	return wrap(place(s, f)), nil
}

// Cone creates a frustum standing on the frame xy-plane.
func (k *SdfxKernel) Cone(f geom.Frame, r0, r1, height float64) (kernel.Solid, error) {
	s, err := sdf.Cone3D(height, r0, r1, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cone3D: %w", err)
	}
	return lift(s, height, f), nil
}

// Cylinder creates a cylinder standing on the frame xy-plane.
func (k *SdfxKernel) Cylinder(f geom.Frame, radius, height float64) (kernel.Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
	}
	return lift(s, height, f), nil
}

// Box creates a box with its minimum corner at the frame origin.
// sdf.Box3D centers the box at the origin, so we translate by half-dimensions.
func (k *SdfxKernel) Box(f geom.Frame, size geom.Vec3) (kernel.Solid, error) {
	s, err := sdf.Box3D(vec3(size), 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	s = sdf.Transform3D(s, sdf.Translate3d(vec3(size.Scale(0.5))))
	return wrap(place(s, f)), nil
}

// Sphere creates a sphere.
func (k *SdfxKernel) Sphere(centre geom.Vec3, radius float64) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(vec3(centre)))), nil
}

// Empty returns the solid with no material.
func (k *SdfxKernel) Empty() kernel.Solid { return &sdfxSolid{} }

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	x, err := unwrap(a)
	if err != nil {
		return nil, err
	}
	y, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	switch {
	case x.s == nil:
		return y, nil
	case y.s == nil:
		return x, nil
	}
	parts := append(append([]sdf.SDF3(nil), x.operands()...), y.operands()...)
	u := &sdfxSolid{s: sdf.Union3D(x.s, y.s), parts: parts}
	if len(x.tubes) > 0 && len(y.tubes) > 0 {
		u.tubes = append(append([]tube(nil), x.tubes...), y.tubes...)
	}
	return u, nil
}

func (s *sdfxSolid) operands() []sdf.SDF3 {
	if len(s.parts) > 0 {
		return s.parts
	}
	return []sdf.SDF3{s.s}
}

// Difference returns the difference a - b. Cutting with a solid whose box
// misses a returns a unchanged.
func (k *SdfxKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	x, err := unwrap(a)
	if err != nil {
		return nil, err
	}
	y, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	if x.s == nil || y.s == nil || !overlaps(x.s.BoundingBox(), y.s.BoundingBox()) {
		return x, nil
	}
	base, cuts := x.s, []sdf.SDF3{y.s}
	if x.base != nil {
		base, cuts = x.base, append(append([]sdf.SDF3(nil), x.cuts...), y.s)
	}
	return &sdfxSolid{s: sdf.Difference3D(x.s, y.s), base: base, cuts: cuts}, nil
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	x, err := unwrap(a)
	if err != nil {
		return nil, err
	}
	y, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	if x.s == nil || y.s == nil || !overlaps(x.s.BoundingBox(), y.s.BoundingBox()) {
		return k.Empty(), nil
	}
	return wrap(sdf.Intersect3D(x.s, y.s)), nil
}

// Simplify rebuilds a chain of unions as one n-ary union and a chain of
// differences as the base minus the union of all cuts. The operand lists
// are kept so later booleans keep extending the flat node.
func (k *SdfxKernel) Simplify(s kernel.Solid) kernel.Solid {
	x, err := unwrap(s)
	if err != nil {
		return s
	}
	switch {
	case len(x.parts) > 2:
		return &sdfxSolid{s: sdf.Union3D(x.parts...), parts: x.parts, tubes: x.tubes}
	case len(x.cuts) > 1:
		return &sdfxSolid{s: sdf.Difference3D(x.base, sdf.Union3D(x.cuts...)), base: x.base, cuts: x.cuts}
	}
	return x
}

// Place moves a solid from frame coordinates into f's parent.
func (k *SdfxKernel) Place(s kernel.Solid, f geom.Frame) kernel.Solid {
	x, err := unwrap(s)
	if err != nil || x.s == nil {
		return s
	}
	placed := &sdfxSolid{s: place(x.s, f)}
	for _, t := range x.tubes {
		placed.tubes = append(placed.tubes, t.place(f))
	}
	return placed
}

// SetParallel sets the meshing worker count.
func (k *SdfxKernel) SetParallel(workers int) { k.workers = max(workers, 1) }

// Parallel returns the meshing worker count.
func (k *SdfxKernel) Parallel() int { return max(k.workers, 1) }

// ToMesh converts a solid to a triangle mesh using marching cubes. Solids
// made only of bars are faceted from their centrelines, whatever the cell
// count.
func (k *SdfxKernel) ToMesh(s kernel.Solid, cells int) (*kernel.Mesh, error) {
	x, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if x.s == nil {
		return &kernel.Mesh{}, nil
	}
	if len(x.tubes) > 0 {
		return meshTubes(x.tubes)
	}
	if cells <= 0 {
		cells = defaultMeshCells
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(x.s, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

func overlaps(a, b sdf.Box3) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}
