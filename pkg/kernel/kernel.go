// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx) provide solid modeling and boolean operations
// behind this interface, so the solid builder and the tessellator never
// touch a backend type directly.
//
// Every constructor takes the frame the primitive is built in; the
// primitive's own axes are described on each method. Profiles are 2-D
// points in the frame's xy-plane.
package kernel

import "github.com/chazu/stairkit/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// IsEmpty reports whether the solid holds no material.
	IsEmpty() bool
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives

	// Prism sweeps a closed profile along +z for length.
	Prism(profile []geom.Vec2, f geom.Frame, length float64) (Solid, error)
	// TaperedPrism is a prism whose section is scaled about the frame
	// origin, linearly from 1 at z = 0 to scale at z = length.
	TaperedPrism(profile []geom.Vec2, f geom.Frame, length, scale float64) (Solid, error)
	// Revolve turns an (r, z) profile about the z-axis by angle radians;
	// 2π gives a full solid of revolution.
	Revolve(profile []geom.Vec2, f geom.Frame, angle float64) (Solid, error)
	// Cone is a frustum on the xy-plane, radius r0 at z = 0 and r1 at
	// z = height.
	Cone(f geom.Frame, r0, r1, height float64) (Solid, error)
	// Cylinder stands on the xy-plane and rises along +z.
	Cylinder(f geom.Frame, radius, height float64) (Solid, error)
	// Box has its minimum corner at the frame origin.
	Box(f geom.Frame, size geom.Vec3) (Solid, error)
	Sphere(centre geom.Vec3, radius float64) (Solid, error)
	// Pipe carries a section along a polyline spine. The section x-axis
	// is parallel-transported from segment to segment.
	Pipe(spine []geom.Vec3, section []geom.Vec2) (Solid, error)
	// SweptDisk is a round bar of the given radius along a polyline
	// centreline.
	SweptDisk(spine []geom.Vec3, radius float64) (Solid, error)
	// Empty is the solid with no material, the identity of Union.
	Empty() Solid

	// Boolean operations
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)
	// Simplify cleans a boolean result before it is used as an operand
	// again.
	Simplify(s Solid) Solid

	// Transforms
	Place(s Solid, f geom.Frame) Solid

	// Mesh output; cells <= 0 selects the kernel default resolution.
	ToMesh(s Solid, cells int) (*Mesh, error)

	// SetParallel sets how many solids may be meshed at once; values
	// below 1 mean one.
	SetParallel(workers int)
	Parallel() int
}
