package params

// Default returns the reference bundle: an eleven-step stair with fixed-pin
// holes at both ends, no ears and every optional feature switched off. The
// section values of the disabled features are filled in so that switching a
// mode on yields a buildable stair.
func Default() *Bundle {
	return &Bundle{
		Name: "ST-1760-1200",
		Geometry: Geometry{
			StepsNumber:        11,
			StepHeight:         160,
			StepWidth:          260,
			Width:              1200,
			BottomThickness:    200,
			TopThickness:       180,
			BottomTopLength:    400,
			BottomBottomLength: 400,
			TopTopLength:       400,
			ClearSpan:          2860,
			Height:             1760,
		},
		Material: Material{ConcreteGrade: "C30", SteelGrade: "HRB400"},
		Cover:    20,
		Holes: Holes{
			Top:    defaultHoleEnd(),
			Bottom: defaultHoleEnd(),
		},
		StepSlots: StepSlots{
			A: 8, B: 8, D: 6, E: 20,
			C1: 50, C2: 50, C3: 30, C4: 40,
		},
		Drips: Drips{
			Section:     Trapezoid,
			Layout:      DripBoth,
			A:           20,
			B:           10,
			C:           10,
			EdgeOffset:  30,
			FrontOffset: 50,
			BackOffset:  50,
		},
		Hoisting: Hoisting{
			Type:  RoundHead,
			Name:  "RH-2.5",
			Steps: [2]int{3, 9},
			EdgeC: 300,
			EdgeD: 300,
		},
		Demoulding: Demoulding{
			Type:           Anchor,
			Name:           "M16",
			Pouring:        PourVertical,
			SideStations:   [2]float64{1000, 2400},
			BottomStations: [2]float64{800, 2400},
			EdgeC:          300,
			EdgeD:          300,
		},
		Railing: Railing{
			Name:       "RE-100",
			Layout:     RailBoth,
			Steps:      []int{2, 10},
			EdgeOffset: 60,
		},
		Rebar: Rebar{
			Mode:               RebarNone,
			DrawingFriendlyMid: true,
			StartEdge:          40,

			BottomLong:              Group{Diameter: 12, Spacing: 150, Grade: 3},
			TopLong:                 Group{Diameter: 10, Spacing: 200, Grade: 3},
			MidDistribution:         Group{Diameter: 8, Spacing: 250, Grade: 1},
			BottomEdgeLong:          Group{Diameter: 12, Spacing: 0, Grade: 3},
			TopEdgeLong:             Group{Diameter: 12, Spacing: 0, Grade: 3},
			BottomEdgeStirrup:       Group{Diameter: 8, Spacing: 200, Grade: 1},
			TopEdgeStirrup:          Group{Diameter: 8, Spacing: 200, Grade: 1},
			HoleReinforcement:       Group{Diameter: 10, Spacing: 0, Grade: 3},
			HoistingLong:            Group{Diameter: 12, Spacing: 0, Grade: 3},
			HoistingPoint:           Group{Diameter: 12, Spacing: 0, Grade: 3},
			BottomEdgeReinforcement: Group{Diameter: 10, Spacing: 200, Grade: 3},
			TopEdgeReinforcement:    Group{Diameter: 10, Spacing: 200, Grade: 3},

			StirrupDepth:        300,
			AnchorageLength:     300,
			HoleLegLength:       150,
			HoistingLongLength:  800,
			HoistingPointLength: 400,
		},
		Joint: Joint{
			AnchorDiameter:  20,
			AnchorLength:    300,
			AnchorLegLength: 100,
			NutThickness:    16,
			NutDiameter:     34,
			ShimThickness:   8,
			ShimDiameter:    45,
		},
	}
}

func defaultHoleEnd() HoleEnd {
	return HoleEnd{
		Type:  FixedPin,
		Left:  EdgeOffset{A: 100, B: 300},
		Right: EdgeOffset{A: 100, B: 300},
		Fixed: FixedHole{BottomDiameter: 50, TopDiameter: 60},
		Sliding: SlidingHole{
			BottomDiameter:      50,
			LowerTopDiameter:    60,
			UpperBottomDiameter: 80,
			TopDiameter:         90,
			H1:                  50,
		},
	}
}

// Clone returns a deep copy, so callers can derive variants without touching
// a shared bundle.
func (b *Bundle) Clone() *Bundle {
	c := *b
	c.Railing.Steps = append([]int(nil), b.Railing.Steps...)
	return &c
}
