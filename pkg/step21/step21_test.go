package step21

import (
	"strings"
	"testing"
)

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0."},
		{1, "1."},
		{-1, "-1."},
		{0.5, "0.5"},
		{1500, "1500."},
		{-250.25, "-250.25"},
		{1e-7, "1.E-07"},
		{2.5e21, "2.5E21"},
	}
	for _, tt := range tests {
		if got := FormatReal(tt.in); got != tt.want {
			t.Errorf("FormatReal(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeValues(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"string", Str("Stair"), "'Stair'"},
		{"quote", Str("it's"), "'it''s'"},
		{"backslash", Str(`a\b`), `'a\\b'`},
		{"unicode", Str("Größe"), `'Gr\X2\00F6\X0\\X2\00DF\X0\e'`},
		{"int", Int(-3), "-3"},
		{"enum", Enum("notdefined"), ".NOTDEFINED."},
		{"bool", Bool(true), ".T."},
		{"ref", Ref(12), "#12"},
		{"null", Null{}, "$"},
		{"nil", nil, "$"},
		{"derived", Derived{}, "*"},
		{"list", List{Real(1), Real(0), Ref(3)}, "(1.,0.,#3)"},
		{"empty list", List{}, "()"},
		{"typed", Typed{Type: "IfcLabel", Value: Str("x")}, "IFCLABEL('x')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); got != tt.want {
				t.Errorf("Encode = %s, want %s", got, tt.want)
			}
		})
	}
}

func sampleFile() *File {
	f := New(Header{
		Description: []string{"ViewDefinition [DesignTransferView]"},
		Name:        "stair.ifc",
		TimeStamp:   "2024-01-01T00:00:00",
		Author:      []string{"stairkit"},
		Schema:      []string{"IFC4X3_ADD2"},
	})
	p := f.Add("IFCCARTESIANPOINT", List{Real(0), Real(0), Real(0)})
	d := f.Add("IFCDIRECTION", List{Real(0), Real(0), Real(1)})
	f.Add("IFCAXIS2PLACEMENT3D", p, d, Null{})
	f.AddComplex(
		Typed{Type: "NAMED_UNIT", Value: List{Derived{}}},
		Typed{Type: "LENGTH_UNIT", Value: List{}},
		Typed{Type: "SI_UNIT", Value: List{Enum("MILLI"), Enum("METRE")}},
	)
	return f
}

func TestWriteTo(t *testing.T) {
	f := sampleFile()
	var b strings.Builder
	n, err := f.WriteTo(&b)
	if err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if int(n) != len(out) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, len(out))
	}
	for _, want := range []string{
		"ISO-10303-21;\nHEADER;\n",
		"FILE_DESCRIPTION(('ViewDefinition [DesignTransferView]'),'2;1');",
		"FILE_NAME('stair.ifc','2024-01-01T00:00:00',('stairkit'),(''),'','','');",
		"FILE_SCHEMA(('IFC4X3_ADD2'));",
		"#1=IFCCARTESIANPOINT((0.,0.,0.));",
		"#3=IFCAXIS2PLACEMENT3D(#1,#2,$);",
		"#4=(NAMED_UNIT(*)LENGTH_UNIT()SI_UNIT(.MILLI.,.METRE.));",
		"ENDSEC;\nEND-ISO-10303-21;\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	if a, b := sampleFile().String(), sampleFile().String(); a != b {
		t.Error("two identical files encoded differently")
	}
}

func TestRoundTrip(t *testing.T) {
	f := sampleFile()
	m, err := ParseString(f.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Order) != f.Len() {
		t.Fatalf("parsed %d entities, wrote %d", len(m.Order), f.Len())
	}
	if m.Header.Name != "stair.ifc" || len(m.Header.Schema) != 1 || m.Header.Schema[0] != "IFC4X3_ADD2" {
		t.Errorf("header = %+v", m.Header)
	}
	for _, id := range m.Order {
		want := f.Entity(Ref(id)).Line()
		if got := m.Entities[id].Line(); got != want {
			t.Errorf("entity %d: got %s, want %s", id, got, want)
		}
	}
	place := m.ByType("IfcAxis2Placement3D")
	if len(place) != 1 {
		t.Fatalf("ByType found %d placements", len(place))
	}
	loc, _ := AsRef(place[0].Attrs[0])
	xyz, ok := Reals(m.Get(loc).Attrs[0])
	if !ok || len(xyz) != 3 {
		t.Errorf("location %v did not resolve to three reals", xyz)
	}
	if !m.Get(4).Complex() {
		t.Error("unit instance should parse as complex")
	}
}

func TestParseLiterals(t *testing.T) {
	src := `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('a','b',(''),(''),'','','');
FILE_SCHEMA(('CONFIG_CONTROL_DESIGN'));
ENDSEC;
DATA;
/* a comment */
#10 = THING('it''s', 'Gr\X2\00F6\X0\', 1.E-05, -2., 7, .T., .UNKNOWN., IFCREAL(3.5), (#1, #2));
ENDSEC;
END-ISO-10303-21;
`
	m, err := ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	e := m.Get(10)
	if e == nil || e.Type != "THING" || len(e.Attrs) != 9 {
		t.Fatalf("entity = %+v", e)
	}
	if s, _ := AsString(e.Attrs[0]); s != "it's" {
		t.Errorf("quoted string = %q", s)
	}
	if s, _ := AsString(e.Attrs[1]); s != "Grö" {
		t.Errorf("escaped string = %q", s)
	}
	if r, _ := AsReal(e.Attrs[2]); r != 1e-5 {
		t.Errorf("real = %g", r)
	}
	if r, _ := AsReal(e.Attrs[3]); r != -2 {
		t.Errorf("real = %g", r)
	}
	if i, ok := e.Attrs[4].(Int); !ok || i != 7 {
		t.Errorf("int = %v", e.Attrs[4])
	}
	if b, ok := e.Attrs[5].(Bool); !ok || !bool(b) {
		t.Errorf("bool = %v", e.Attrs[5])
	}
	if en, ok := e.Attrs[6].(Enum); !ok || en != "UNKNOWN" {
		t.Errorf("enum = %v", e.Attrs[6])
	}
	if r, ok := AsReal(e.Attrs[7]); !ok || r != 3.5 {
		t.Errorf("typed real = %v", e.Attrs[7])
	}
	if refs, ok := Refs(e.Attrs[8]); !ok || len(refs) != 2 || refs[1] != 2 {
		t.Errorf("refs = %v", e.Attrs[8])
	}
}

func TestParseErrors(t *testing.T) {
	head := "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n"
	tests := []struct {
		name string
		src  string
	}{
		{"no magic", "HEADER;"},
		{"unterminated string", head + "#1=A('x);\nENDSEC;\nEND-ISO-10303-21;"},
		{"duplicate", head + "#1=A();\n#1=B();\nENDSEC;\nEND-ISO-10303-21;"},
		{"missing semicolon", head + "#1=A()\n#2=B();\nENDSEC;\nEND-ISO-10303-21;"},
		{"no trailer", head + "#1=A();\nENDSEC;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseString(tt.src); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	src := "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=A(1);\n#2=B(?);\n"
	_, err := ParseString(src)
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Line != 6 {
		t.Errorf("error on line %d, want 6", pe.Line)
	}
}
