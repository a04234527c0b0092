package catalog

// Dimensions in millimetres. Names are the product codes printed on the
// insert drawings; the map key is authoritative and copied into Name on
// lookup.

var roundHeadTable = map[string]RoundHeadDowel{
	"RH-1.3": {
		TopDiameter: 25, TopHeight: 10,
		MiddleDiameter: 10, MiddleHeight: 70,
		BottomDiameter: 25, BottomHeight: 8,
		TransitionHeight: 4, EmbedRadius: 30, Rabbet: 30,
	},
	"RH-2.5": {
		TopDiameter: 35, TopHeight: 11,
		MiddleDiameter: 14, MiddleHeight: 100,
		BottomDiameter: 35, BottomHeight: 10,
		TransitionHeight: 5, EmbedRadius: 37, Rabbet: 37,
	},
	"RH-5.0": {
		TopDiameter: 50, TopHeight: 15,
		MiddleDiameter: 20, MiddleHeight: 140,
		BottomDiameter: 50, BottomHeight: 12,
		TransitionHeight: 6, EmbedRadius: 47, Rabbet: 47,
	},
}

var anchorTable = map[string]Anchor{
	"M12": {
		RabbetDiameter: 40, Rabbet: 10,
		ShaftDiameter: 15, ShaftLength: 60,
		ThreadDiameter: 12, ThreadLength: 25,
		RebarDiameter: 8, RebarLength: 100, RebarOffset: 10,
	},
	"M16": {
		RabbetDiameter: 50, Rabbet: 12,
		ShaftDiameter: 21, ShaftLength: 80,
		ThreadDiameter: 16, ThreadLength: 32,
		RebarDiameter: 10, RebarLength: 130, RebarOffset: 12,
	},
	"M20": {
		RabbetDiameter: 60, Rabbet: 15,
		ShaftDiameter: 27, ShaftLength: 100,
		ThreadDiameter: 20, ThreadLength: 40,
		RebarDiameter: 12, RebarLength: 160, RebarOffset: 15,
		Hook: "HK-16",
	},
}

var railTable = map[string]RailEmbed{
	"RE-100": {
		A: 100, B: 100, T: 10,
		RebarDiameter: 10, C: 120, D: 60,
		Rabbet: 10, RabbetExtension: 10,
	},
	"RE-120": {
		A: 120, B: 120, T: 12,
		RebarDiameter: 12, C: 150, D: 80,
		Rabbet: 12, RabbetExtension: 10,
	},
}

var hookTable = map[string]Hook{
	"HK-12": {RodDiameter: 12, InnerRadius: 24, OuterRadius: 36, LegHeight: 120, ShortLegHeight: 60},
	"HK-16": {RodDiameter: 16, InnerRadius: 32, OuterRadius: 48, LegHeight: 160, ShortLegHeight: 80},
}
