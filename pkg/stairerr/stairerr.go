// Package stairerr defines the structured error kinds reported by every
// stage of a stair build. An error names the entity that failed so a caller
// can report "HoleCone[top-left]: BooleanOperationFailed: ..." without
// parsing strings.
package stairerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the failure classes of a build.
type Kind int

const (
	KindUnknown Kind = iota
	KindParameterOutOfRange
	KindGeometryInfeasible
	KindRebarBendInfeasible
	KindBooleanOperationFailed
	KindUnknownPartName
	KindIfcEntityIDZero
)

func (k Kind) String() string {
	switch k {
	case KindParameterOutOfRange:
		return "ParameterOutOfRange"
	case KindGeometryInfeasible:
		return "GeometryInfeasible"
	case KindRebarBendInfeasible:
		return "RebarBendInfeasible"
	case KindBooleanOperationFailed:
		return "BooleanOperationFailed"
	case KindUnknownPartName:
		return "UnknownPartName"
	case KindIfcEntityIDZero:
		return "IfcEntityIdZero"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. They carry only a kind.
var (
	ErrParameterOutOfRange    = &Error{Kind: KindParameterOutOfRange}
	ErrGeometryInfeasible     = &Error{Kind: KindGeometryInfeasible}
	ErrRebarBendInfeasible    = &Error{Kind: KindRebarBendInfeasible}
	ErrBooleanOperationFailed = &Error{Kind: KindBooleanOperationFailed}
	ErrUnknownPartName        = &Error{Kind: KindUnknownPartName}
	ErrIfcEntityIDZero        = &Error{Kind: KindIfcEntityIDZero}
)

// Error is a build failure attributed to a named entity.
type Error struct {
	Kind   Kind
	Entity string // e.g. "HoleCone[top-left]", "geometry.steps_number"
	Err    error  // underlying detail, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Entity != "" {
		msg = e.Entity + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinel comparison works
// regardless of entity or detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind with a formatted detail message.
func New(kind Kind, entity, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Err: fmt.Errorf(format, args...)}
}

// Wrap attributes err to entity with the given kind. A nil err returns nil.
// An err that already carries a kind keeps it; only the entity is prefixed,
// and an empty entity leaves it untouched.
func Wrap(kind Kind, entity string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		if entity == "" {
			return err
		}
		if se.Entity == "" {
			return &Error{Kind: se.Kind, Entity: entity, Err: se.Err}
		}
		return &Error{Kind: se.Kind, Entity: entity + "/" + se.Entity, Err: se.Err}
	}
	return &Error{Kind: kind, Entity: entity, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// EntityOf returns the entity of the first *Error in err's chain.
func EntityOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Entity
	}
	return ""
}
