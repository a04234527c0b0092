package params

import "fmt"

// enumText and enumParse implement text marshaling for small integer enums
// backed by a name table. Names are lower-case kebab strings.
func enumText(names []string, v int, kind string) ([]byte, error) {
	if v < 0 || v >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", kind, v)
	}
	return []byte(names[v]), nil
}

func enumParse(names []string, text []byte, kind string) (int, error) {
	s := string(text)
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (want one of %v)", kind, s, names)
}

func enumString(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("%d", v)
	}
	return names[v]
}

// DesignMode switches an optional feature family.
type DesignMode int

const (
	ModeNone DesignMode = iota
	ModeAuto
	ModeManual
)

var designModeNames = []string{"none", "auto", "manual"}

func (m DesignMode) String() string { return enumString(designModeNames, int(m)) }

// Enabled reports whether the feature family is generated.
func (m DesignMode) Enabled() bool { return m != ModeNone }

func (m DesignMode) MarshalText() ([]byte, error) {
	return enumText(designModeNames, int(m), "design mode")
}

func (m *DesignMode) UnmarshalText(b []byte) error {
	v, err := enumParse(designModeNames, b, "design mode")
	*m = DesignMode(v)
	return err
}

// HoleType selects the connection detail at one end of the stair.
type HoleType int

const (
	FixedPin HoleType = iota
	SlidingPin
)

var holeTypeNames = []string{"fixed-pin", "sliding-pin"}

func (t HoleType) String() string { return enumString(holeTypeNames, int(t)) }

func (t HoleType) MarshalText() ([]byte, error) {
	return enumText(holeTypeNames, int(t), "hole type")
}

func (t *HoleType) UnmarshalText(b []byte) error {
	v, err := enumParse(holeTypeNames, b, "hole type")
	*t = HoleType(v)
	return err
}

// DripSection is the cross-section shape of a drip groove.
type DripSection int

const (
	Trapezoid DripSection = iota
	Semicircle
)

var dripSectionNames = []string{"trapezoid", "semicircle"}

func (s DripSection) String() string { return enumString(dripSectionNames, int(s)) }

func (s DripSection) MarshalText() ([]byte, error) {
	return enumText(dripSectionNames, int(s), "drip section")
}

func (s *DripSection) UnmarshalText(b []byte) error {
	v, err := enumParse(dripSectionNames, b, "drip section")
	*s = DripSection(v)
	return err
}

// DripLayout picks which long side of the underside carries a drip groove.
// Lower is the x = 0 side, upper the x = width side.
type DripLayout int

const (
	DripUpper DripLayout = iota
	DripLower
	DripBoth
)

var dripLayoutNames = []string{"upper", "lower", "both"}

func (l DripLayout) String() string { return enumString(dripLayoutNames, int(l)) }

func (l DripLayout) MarshalText() ([]byte, error) {
	return enumText(dripLayoutNames, int(l), "drip layout")
}

func (l *DripLayout) UnmarshalText(b []byte) error {
	v, err := enumParse(dripLayoutNames, b, "drip layout")
	*l = DripLayout(v)
	return err
}

// InsertType selects the catalogue family of a hoisting or demoulding insert.
type InsertType int

const (
	RoundHead InsertType = iota
	Anchor
)

var insertTypeNames = []string{"round-head", "anchor"}

func (t InsertType) String() string { return enumString(insertTypeNames, int(t)) }

func (t InsertType) MarshalText() ([]byte, error) {
	return enumText(insertTypeNames, int(t), "insert type")
}

func (t *InsertType) UnmarshalText(b []byte) error {
	v, err := enumParse(insertTypeNames, b, "insert type")
	*t = InsertType(v)
	return err
}

// Pouring is the casting orientation, which decides where demoulding
// inserts go.
type Pouring int

const (
	PourVertical Pouring = iota
	PourHorizontal
	PourMixed
)

var pouringNames = []string{"vertical", "horizontal", "mixed"}

func (p Pouring) String() string { return enumString(pouringNames, int(p)) }

func (p Pouring) MarshalText() ([]byte, error) {
	return enumText(pouringNames, int(p), "pouring")
}

func (p *Pouring) UnmarshalText(b []byte) error {
	v, err := enumParse(pouringNames, b, "pouring")
	*p = Pouring(v)
	return err
}

// SideInserts reports whether the x = 0 face carries demoulding inserts.
func (p Pouring) SideInserts() bool { return p == PourVertical || p == PourMixed }

// BottomInserts reports whether the underside carries demoulding inserts.
func (p Pouring) BottomInserts() bool { return p == PourHorizontal || p == PourMixed }

// RailLayout picks the stair sides that receive railing embeds.
type RailLayout int

const (
	RailLeft RailLayout = iota
	RailRight
	RailBoth
)

var railLayoutNames = []string{"left", "right", "both"}

func (l RailLayout) String() string { return enumString(railLayoutNames, int(l)) }

func (l RailLayout) MarshalText() ([]byte, error) {
	return enumText(railLayoutNames, int(l), "rail layout")
}

func (l *RailLayout) UnmarshalText(b []byte) error {
	v, err := enumParse(railLayoutNames, b, "rail layout")
	*l = RailLayout(v)
	return err
}

// RebarMode controls how much of the cage is generated.
type RebarMode int

const (
	// RebarNone keeps only the mandatory longitudinal groups.
	RebarNone RebarMode = iota
	RebarFull
)

var rebarModeNames = []string{"none", "full"}

func (m RebarMode) String() string { return enumString(rebarModeNames, int(m)) }

func (m RebarMode) MarshalText() ([]byte, error) {
	return enumText(rebarModeNames, int(m), "rebar mode")
}

func (m *RebarMode) UnmarshalText(b []byte) error {
	v, err := enumParse(rebarModeNames, b, "rebar mode")
	*m = RebarMode(v)
	return err
}
