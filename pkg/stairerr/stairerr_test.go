package stairerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindBooleanOperationFailed, "HoleCone[top-left]", "degenerate tangency")
	want := "HoleCone[top-left]: BooleanOperationFailed: degenerate tangency"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("build: %w", New(KindUnknownPartName, "catalog", "no part %q", "X"))
	if !errors.Is(err, ErrUnknownPartName) {
		t.Error("expected errors.Is to match ErrUnknownPartName")
	}
	if errors.Is(err, ErrGeometryInfeasible) {
		t.Error("did not expect a GeometryInfeasible match")
	}
	if KindOf(err) != KindUnknownPartName {
		t.Errorf("KindOf = %v", KindOf(err))
	}
}

func TestWrapKeepsKindAndPrefixesEntity(t *testing.T) {
	inner := New(KindRebarBendInfeasible, "vertex 2", "angle too sharp")
	err := Wrap(KindBooleanOperationFailed, "Rebar[bottom-long/3]", inner)
	if KindOf(err) != KindRebarBendInfeasible {
		t.Errorf("kind = %v, want RebarBendInfeasible", KindOf(err))
	}
	if got := EntityOf(err); got != "Rebar[bottom-long/3]/vertex 2" {
		t.Errorf("entity = %q", got)
	}

	plain := Wrap(KindBooleanOperationFailed, "Body", errors.New("kernel"))
	if KindOf(plain) != KindBooleanOperationFailed {
		t.Errorf("kind = %v", KindOf(plain))
	}
	if Wrap(KindGeometryInfeasible, "x", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
