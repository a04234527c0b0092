package params

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/stairkit/pkg/stairerr"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default bundle invalid: %v", err)
	}
}

func TestDerivedConstants(t *testing.T) {
	g := Default().Geometry
	if got := g.RiserY(1); got != 400 {
		t.Errorf("RiserY(1) = %g", got)
	}
	if got := g.RiserY(11); got != 3000 {
		t.Errorf("RiserY(11) = %g", got)
	}
	if got := g.TopZ(); got != 1960 {
		t.Errorf("TopZ = %g", got)
	}
	if got := g.TotalLength(); got != 3400 {
		t.Errorf("TotalLength = %g", got)
	}
	if got := g.TreadEnd(11); got != 3400 {
		t.Errorf("TreadEnd(11) = %g", got)
	}
	if got := g.UndersideZ(100); got != 0 {
		t.Errorf("UndersideZ on landing = %g", got)
	}
	by, bz := g.BackFoot()
	if got := g.UndersideZ(by); got < bz-1e-9 || got > bz+1e-9 {
		t.Errorf("UndersideZ(back) = %g, want %g", got, bz)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	b := Default()
	b.Geometry.StepsNumber = 0
	b.Cover = -5
	b.Geometry.BottomBottomLength = 500 // longer than the 400 landing

	err := Validate(b)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, stairerr.ErrParameterOutOfRange) {
		t.Errorf("error %v does not match ErrParameterOutOfRange", err)
	}
	for _, field := range []string{"geometry.steps_number", "cover", "geometry.bottom_top_length"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s:\n%v", field, err)
		}
	}
}

func TestValidateFeatureSections(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(b *Bundle)
		field string
	}{
		{"hoisting step out of range", func(b *Bundle) {
			b.Hoisting.Mode = ModeAuto
			b.Hoisting.Steps = [2]int{0, 12}
		}, "hoisting.steps[0]"},
		{"railing without steps", func(b *Bundle) {
			b.Railing.Mode = ModeManual
			b.Railing.Steps = nil
		}, "railing.steps"},
		{"fillet too large", func(b *Bundle) {
			b.Corners.InnerFilletRadius = 200
		}, "corners.inner_fillet_radius"},
		{"bad grade", func(b *Bundle) {
			b.Rebar.BottomLong.Grade = 4
		}, "rebar.bottom_long.grade"},
		{"zero spacing", func(b *Bundle) {
			b.Rebar.Mode = RebarFull
			b.Rebar.MidDistribution.Spacing = 0
		}, "rebar.mid_distribution.spacing"},
		{"height mismatch", func(b *Bundle) {
			b.Geometry.Height = 1700
		}, "geometry.height"},
		{"sliding h1 missing", func(b *Bundle) {
			b.Holes.Top.Type = SlidingPin
			b.Holes.Top.Sliding.H1 = 0
		}, "holes.top.sliding.h1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Default()
			tt.mut(b)
			err := Validate(b)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error does not name %s: %v", tt.field, err)
			}
		})
	}
}

func TestDisabledSectionsAreNotChecked(t *testing.T) {
	b := Default()
	b.StepSlots.A = -1
	b.Railing.Steps = []int{99}
	if err := Validate(b); err != nil {
		t.Fatalf("disabled sections should be ignored: %v", err)
	}
}

func TestDecodeJSONOverlaysDefault(t *testing.T) {
	src := `{
		"name": "ST-13",
		"geometry": {"steps_number": 13, "height": 2080},
		"step_slots": {"mode": "auto"},
		"holes": {"top": {"type": "sliding-pin"}}
	}`
	b, err := Decode(strings.NewReader(src), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if b.Geometry.StepsNumber != 13 || b.Geometry.StepWidth != 260 {
		t.Errorf("geometry = %+v", b.Geometry)
	}
	if b.StepSlots.Mode != ModeAuto || b.StepSlots.C3 != 30 {
		t.Errorf("step slots = %+v", b.StepSlots)
	}
	if b.Holes.Top.Type != SlidingPin {
		t.Errorf("top hole type = %v", b.Holes.Top.Type)
	}
	if err := Validate(b); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"geometry": {"stepz": 3}}`), FormatJSON); err == nil {
		t.Error("expected unknown-field error for JSON")
	}
	if _, err := Decode(strings.NewReader("geometry:\n  stepz: 3\n"), FormatYAML); err == nil {
		t.Error("expected unknown-field error for YAML")
	}
	if _, err := Decode(strings.NewReader(`{"drips": {"layout": "sideways"}}`), FormatJSON); err == nil {
		t.Error("expected enum error")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	b := Default()
	b.Drips.Mode = ModeAuto
	b.Drips.Section = Semicircle
	b.Demoulding.Pouring = PourMixed

	var buf bytes.Buffer
	if err := Encode(&buf, b, FormatYAML); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "section: semicircle") {
		t.Errorf("enums should encode as names:\n%s", buf.String())
	}
	got, err := Decode(&buf, FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if got.Drips != b.Drips || got.Demoulding != b.Demoulding {
		t.Errorf("round trip mismatch: %+v vs %+v", got.Drips, b.Drips)
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flight-a.yaml")
	if err := os.WriteFile(path, []byte("cover: 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Cover != 25 {
		t.Errorf("cover = %g", b.Cover)
	}
	if b.Name != "ST-1760-1200" {
		t.Errorf("name = %q", b.Name)
	}

	if _, err := Load(filepath.Join(dir, "x.toml")); err == nil {
		t.Error("expected unsupported extension error")
	}
}

func TestRegisterFormat(t *testing.T) {
	RegisterFormat("fixed", ".fixed", func(r io.Reader) (*Bundle, error) {
		b := Default()
		b.Name = "from-fixed"
		return b, nil
	})
	f, err := FormatForPath("a.FIXED")
	if err != nil || f != "fixed" {
		t.Fatalf("FormatForPath = %q, %v", f, err)
	}
	b, err := Decode(strings.NewReader(""), f)
	if err != nil || b.Name != "from-fixed" {
		t.Fatalf("Decode = %v, %v", b, err)
	}
}

func TestClone(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.Railing.Steps[0] = 7
	if a.Railing.Steps[0] == 7 {
		t.Error("Clone shares the railing steps slice")
	}
}
