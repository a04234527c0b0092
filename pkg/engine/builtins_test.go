package engine

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/chazu/stairkit/pkg/params"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(material :steel-grade "HRB400")`,
			expect: `(material "__kw_steel-grade" "HRB400")`,
		},
		{
			name:   "multiple keywords",
			input:  `(geometry :height 1760 :width 1200)`,
			expect: `(geometry "__kw_height" 1760 "__kw_width" 1200)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(step-slots :mode :auto)`,
			expect: `(step_slots "__kw_mode" "__kw_auto")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:sliding-pin`,
			expect: `"__kw_sliding-pin"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Section builtins
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, src string) *params.Bundle {
	t.Helper()
	b, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if b == nil {
		t.Fatal("expected a bundle")
	}
	return b
}

func evalErrors(t *testing.T, src string) []EvalError {
	t.Helper()
	b, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil bundle")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	return evalErrs
}

func TestStairDefaults(t *testing.T) {
	b := mustEvaluate(t, `(stair)`)
	def := params.Default()
	if b.Name != def.Name || b.Geometry != def.Geometry || b.Cover != def.Cover {
		t.Errorf("bare (stair) should yield the default bundle, got %+v", b)
	}
}

func TestStairNameAndGeometry(t *testing.T) {
	b := mustEvaluate(t, `
(stair "ST-2000-1100"
  :cover 25
  (geometry :steps-number 12 :step-height 166.67 :height 2000 :width 1100))
`)
	if b.Name != "ST-2000-1100" {
		t.Errorf("name = %q", b.Name)
	}
	if b.Cover != 25 {
		t.Errorf("cover = %g", b.Cover)
	}
	g := b.Geometry
	if g.StepsNumber != 12 || g.Height != 2000 || g.Width != 1100 || g.StepHeight != 166.67 {
		t.Errorf("geometry = %+v", g)
	}
	// Fields the script leaves out keep their defaults.
	if g.StepWidth != params.Default().Geometry.StepWidth {
		t.Errorf("step width = %g, want default", g.StepWidth)
	}
}

func TestNestedHoleSections(t *testing.T) {
	b := mustEvaluate(t, `
(stair
  (holes
    (top :type :sliding-pin (sliding :h1 50 :top-diameter 70))
    (bottom (left :a 300 :b 80))))
`)
	top := b.Holes.Top
	if top.Type != params.SlidingPin {
		t.Errorf("top hole type = %v", top.Type)
	}
	if top.Sliding.H1 != 50 || top.Sliding.TopDiameter != 70 {
		t.Errorf("sliding = %+v", top.Sliding)
	}
	if b.Holes.Bottom.Left.A != 300 || b.Holes.Bottom.Left.B != 80 {
		t.Errorf("bottom left = %+v", b.Holes.Bottom.Left)
	}
	if b.Holes.Bottom.Type != params.FixedPin {
		t.Errorf("bottom hole type = %v", b.Holes.Bottom.Type)
	}
}

func TestEnumKeywordsAndArrays(t *testing.T) {
	b := mustEvaluate(t, `
(stair
  (drips :mode :auto :section :trapezoid)
  (hoisting :mode :auto :steps [4 8])
  (railing :mode :manual :steps [2 5 10]))
`)
	if b.Drips.Mode != params.ModeAuto || b.Drips.Section != params.Trapezoid {
		t.Errorf("drips = %+v", b.Drips)
	}
	if b.Hoisting.Steps != [2]int{4, 8} {
		t.Errorf("hoisting steps = %v", b.Hoisting.Steps)
	}
	if !slices.Equal(b.Railing.Steps, []int{2, 5, 10}) || b.Railing.Mode != params.ModeManual {
		t.Errorf("railing = %+v", b.Railing)
	}
}

func TestRebarGroups(t *testing.T) {
	b := mustEvaluate(t, `
(def d 14)
(stair
  (rebar :mode :full
    (bottom-long :diameter d :spacing 125)
    (top-long :diameter 10 :spacing (* 2 100))))
`)
	if b.Rebar.Mode != params.RebarFull {
		t.Errorf("rebar mode = %v", b.Rebar.Mode)
	}
	if b.Rebar.BottomLong.Diameter != 14 || b.Rebar.BottomLong.Spacing != 125 {
		t.Errorf("bottom long = %+v", b.Rebar.BottomLong)
	}
	// Grade keeps its default when the group is overridden in part.
	if b.Rebar.BottomLong.Grade != params.Default().Rebar.BottomLong.Grade {
		t.Errorf("bottom long grade = %d", b.Rebar.BottomLong.Grade)
	}
	if b.Rebar.TopLong.Spacing != 200 {
		t.Errorf("top long = %+v", b.Rebar.TopLong)
	}
}

func TestLastStairWins(t *testing.T) {
	b := mustEvaluate(t, `
(stair "first")
(stair "second" (geometry :width 1000))
`)
	if b.Name != "second" || b.Geometry.Width != 1000 {
		t.Errorf("bundle = %s / %g", b.Name, b.Geometry.Width)
	}
}

func TestSectionErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", `(stair (geometry :colour 3))`, "colour"},
		{"misplaced section", `(stair (sliding :h1 50))`, "sliding"},
		{"duplicate section", `(stair (geometry :width 1) (geometry :width 2))`, "twice"},
		{"bad enum", `(stair (drips :mode :sometimes))`, "sometimes"},
		{"positional value", `(stair (geometry 1200))`, "expected a section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalErrors(t, tt.src)
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.want)
			}
		})
	}
}

func TestSections(t *testing.T) {
	for _, want := range []string{"geometry", "holes", "top", "sliding", "bottom_long", "joint", "step_slots"} {
		if !slices.Contains(Sections, want) {
			t.Errorf("Sections lacks %q: %v", want, Sections)
		}
	}
	if !slices.IsSorted(Sections) {
		t.Error("Sections is not sorted")
	}
	if slices.Contains(Sections, "stair") {
		t.Error("stair is not a section")
	}
}

// ---------------------------------------------------------------------------
// Format registration
// ---------------------------------------------------------------------------

func TestDecodeStairFormat(t *testing.T) {
	src := `(stair "ST-script" (geometry :width 1000))`
	b, err := params.Decode(strings.NewReader(src), FormatStair)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "ST-script" || b.Geometry.Width != 1000 {
		t.Errorf("bundle = %s / %g", b.Name, b.Geometry.Width)
	}

	if _, err := params.Decode(strings.NewReader(`(+ 1 2)`), FormatStair); err == nil {
		t.Error("expected an error for a script without (stair ...)")
	}
}

func TestLoadStairFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "landing.stair")
	src := ";; narrow flight\n(stair (geometry :width 1000) (drips :mode :auto))\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := params.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Geometry.Width != 1000 || b.Drips.Mode != params.ModeAuto {
		t.Errorf("bundle = %+v", b)
	}
	if f, err := params.FormatForPath(path); err != nil || f != FormatStair {
		t.Errorf("FormatForPath = %v, %v", f, err)
	}
}
