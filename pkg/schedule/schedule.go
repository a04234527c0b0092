// Package schedule derives the bar bending schedule of a stair: one row per
// distinct bar shape, with cut length, count and mass.
package schedule

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// SteelDensity is the mass density of reinforcing steel in kg/m³.
const SteelDensity = 7850.0

// CutIncrement is the step cut lengths are rounded up to, in millimetres.
const CutIncrement = 5.0

// Shape codes, after the BS 8666 numbering.
const (
	ShapeStraight = "00"
	ShapeOneBend  = "11"
	ShapeTwoBends = "21"
	ShapeLink     = "51"
	ShapeOther    = "99"
)

// Row is one bar mark.
type Row struct {
	Mark     string   `json:"mark"`
	Group    string   `json:"group"`
	Diameter float64  `json:"diameter"` // mm
	Grade    string   `json:"grade"`
	Mandrel  int      `json:"mandrel"` // bend grade 1..3
	Shape    string   `json:"shape"`
	Bends    int      `json:"bends"`
	Count    int      `json:"count"`
	Length   float64  `json:"length"`       // cut length of one bar, mm
	Total    float64  `json:"total_length"` // m
	Mass     float64  `json:"mass"`         // kg
	Bars     []string `json:"bars"`         // bar names
}

// Schedule is the bar list of one stair.
type Schedule struct {
	Stair string `json:"stair"`
	Steel string `json:"steel"`
	Rows  []Row  `json:"rows"`
}

// BarMass returns the mass in kg of a bar of diameter d and length l, both
// in millimetres.
func BarMass(d, l float64) float64 {
	return math.Pi * d * d / 4 * l * 1e-9 * SteelDensity
}

// CutLength rounds a developed length up to the cut increment.
func CutLength(l float64) float64 {
	return math.Ceil(l/CutIncrement-1e-9) * CutIncrement
}

type bar struct {
	spec   locate.RebarSpec
	shape  string
	bends  int
	length float64
}

// Build schedules every bar of f. Bars of one group with the same diameter,
// mandrel, shape and cut length share a mark. Rows keep the group order of
// f and run from the longest bar down within a group.
func Build(f *locate.Features) (*Schedule, error) {
	bars := make([]bar, 0, len(f.Rebars))
	for _, r := range f.Rebars {
		p, err := r.Path()
		if err != nil {
			return nil, stairerr.Wrap(stairerr.KindRebarBendInfeasible, "Rebar["+r.Name+"]", err)
		}
		bends := p.ArcCount()
		shape := ShapeOther
		switch {
		case p.Closed:
			shape = ShapeLink
		case bends == 0:
			shape = ShapeStraight
		case bends == 1:
			shape = ShapeOneBend
		case bends == 2:
			shape = ShapeTwoBends
		}
		bars = append(bars, bar{spec: r, shape: shape, bends: bends, length: CutLength(p.Length())})
	}

	s := &Schedule{Stair: f.Name, Steel: f.Steel}
	for _, group := range f.RebarGroups() {
		inGroup := lo.Filter(bars, func(b bar, _ int) bool { return b.spec.Group == group })
		keyed := lo.GroupBy(inGroup, func(b bar) string {
			return fmt.Sprintf("%g/%d/%s/%g", b.spec.Diameter, b.spec.Grade, b.shape, b.length)
		})
		keys := lo.Keys(keyed)
		sort.Slice(keys, func(i, j int) bool {
			a, b := keyed[keys[i]][0], keyed[keys[j]][0]
			if a.length != b.length {
				return a.length > b.length
			}
			if a.spec.Diameter != b.spec.Diameter {
				return a.spec.Diameter > b.spec.Diameter
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			same := keyed[k]
			first := same[0]
			n := len(same)
			s.Rows = append(s.Rows, Row{
				Mark:     fmt.Sprintf("%02d", len(s.Rows)+1),
				Group:    group,
				Diameter: first.spec.Diameter,
				Grade:    f.Steel,
				Mandrel:  first.spec.Grade,
				Shape:    first.shape,
				Bends:    first.bends,
				Count:    n,
				Length:   first.length,
				Total:    first.length * float64(n) / 1000,
				Mass:     BarMass(first.spec.Diameter, first.length) * float64(n),
				Bars:     lo.Map(same, func(b bar, _ int) string { return b.spec.Name }),
			})
		}
	}
	return s, nil
}

// TotalMass is the mass of every bar in kg.
func (s *Schedule) TotalMass() float64 {
	return lo.SumBy(s.Rows, func(r Row) float64 { return r.Mass })
}

// BarCount is the number of bars scheduled.
func (s *Schedule) BarCount() int {
	return lo.SumBy(s.Rows, func(r Row) int { return r.Count })
}

// MassByDiameter sums mass per bar diameter, in ascending diameter order.
func (s *Schedule) MassByDiameter() []DiameterTotal {
	byD := lo.GroupBy(s.Rows, func(r Row) float64 { return r.Diameter })
	ds := lo.Keys(byD)
	sort.Float64s(ds)
	return lo.Map(ds, func(d float64, _ int) DiameterTotal {
		rows := byD[d]
		return DiameterTotal{
			Diameter: d,
			Length:   lo.SumBy(rows, func(r Row) float64 { return r.Total }),
			Mass:     lo.SumBy(rows, func(r Row) float64 { return r.Mass }),
		}
	})
}

// DiameterTotal is the summary line for one bar diameter.
type DiameterTotal struct {
	Diameter float64 `json:"diameter"`
	Length   float64 `json:"length"` // m
	Mass     float64 `json:"mass"`   // kg
}
