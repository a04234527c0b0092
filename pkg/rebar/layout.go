package rebar

import (
	"math"

	"github.com/chazu/stairkit/pkg/geom"
)

// Count returns the number of bars spread over length with the given
// start-edge distance and maximum spacing: ceil((L − 2s)/spacing) + 1.
func Count(length, startEdge, spacing float64) int {
	net := length - 2*startEdge
	if net <= 0 || spacing <= 0 {
		return 1
	}
	return int(math.Ceil(net/spacing-1e-9)) + 1
}

// Distribute returns the bar stations along a length. The end bars sit
// startEdge from each end and the interior spacing is the net length divided
// evenly. When nothing is left after the edge distances a single bar is
// placed in the middle.
func Distribute(length, startEdge, spacing float64) []float64 {
	n := Count(length, startEdge, spacing)
	if n == 1 {
		return []float64{length / 2}
	}
	net := length - 2*startEdge
	step := net / float64(n-1)
	out := make([]float64, n)
	for k := range out {
		out[k] = startEdge + float64(k)*step
	}
	out[n-1] = length - startEdge
	return out
}

// DropCollinear removes interior control points that lie on the straight
// line through their neighbours.
func DropCollinear(poly []geom.Vec3) []geom.Vec3 {
	if len(poly) < 3 {
		return append([]geom.Vec3(nil), poly...)
	}
	out := []geom.Vec3{poly[0]}
	for i := 1; i < len(poly)-1; i++ {
		a := poly[i].Sub(out[len(out)-1])
		b := poly[i+1].Sub(poly[i])
		if a.Cross(b).Norm() <= 1e-9*a.Norm()*b.Norm() && a.Dot(b) > 0 {
			continue
		}
		out = append(out, poly[i])
	}
	return append(out, poly[len(poly)-1])
}
