package locate

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// boxed is a named axis-aligned box stored in the clash index.
type boxed struct {
	name string
	rect rtreego.Rect
}

func (b *boxed) Bounds() rtreego.Rect { return b.rect }

func newBoxed(name string, min, max geom.Vec3) (*boxed, error) {
	// rtreego rejects empty extents; flat boxes get a hair of thickness.
	hi := geom.V3(math.Max(max.X, min.X+geom.Eps), math.Max(max.Y, min.Y+geom.Eps), math.Max(max.Z, min.Z+geom.Eps))
	r, err := rtreego.NewRectFromPoints(rtreego.Point{min.X, min.Y, min.Z}, rtreego.Point{hi.X, hi.Y, hi.Z})
	if err != nil {
		return nil, fmt.Errorf("clash box %s: %w", name, err)
	}
	return &boxed{name: name, rect: r}, nil
}

// checkClashes indexes the hole boxes and fails if any step slot or insert
// pocket overlaps one of them.
func checkClashes(_ *stair, f *Features) error {
	if len(f.Holes) == 0 {
		return nil
	}
	tree := rtreego.NewTree(3, 2, 8)
	for _, h := range f.Holes {
		lo, hi := h.Bounds()
		b, err := newBoxed(fmt.Sprintf("HoleCone[%s]", h.Name), lo, hi)
		if err != nil {
			return err
		}
		tree.Insert(b)
	}

	var queries []*boxed
	for _, s := range f.Slots {
		lo, hi := s.Core().Bounds()
		for _, r := range s.Ramps() {
			rlo, rhi := r.Bounds()
			lo, hi = unionBox(lo, hi, rlo, rhi)
		}
		b, err := newBoxed(fmt.Sprintf("StepSlot[%s]", s.Name), lo, hi)
		if err != nil {
			return err
		}
		queries = append(queries, b)
	}
	for _, in := range f.Inserts {
		lo, hi, ok := in.RabbetBounds()
		if !ok {
			continue
		}
		b, err := newBoxed(in.entity(), lo, hi)
		if err != nil {
			return err
		}
		queries = append(queries, b)
	}

	for _, p := range queries {
		if hits := tree.SearchIntersect(p.rect); len(hits) > 0 {
			return stairerr.New(stairerr.KindGeometryInfeasible, p.name,
				"overlaps %s", hits[0].(*boxed).name)
		}
	}
	return nil
}

func unionBox(alo, ahi, blo, bhi geom.Vec3) (lo, hi geom.Vec3) {
	lo = geom.V3(math.Min(alo.X, blo.X), math.Min(alo.Y, blo.Y), math.Min(alo.Z, blo.Z))
	hi = geom.V3(math.Max(ahi.X, bhi.X), math.Max(ahi.Y, bhi.Y), math.Max(ahi.Z, bhi.Z))
	return lo, hi
}
