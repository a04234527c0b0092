// Package step21 reads and writes ISO 10303-21 exchange files, the clear
// text encoding shared by STEP and IFC. Writing is deterministic: the same
// entities added in the same order give byte-identical output.
package step21

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is one attribute value.
type Value interface {
	encode(b *strings.Builder)
}

type (
	// Str is a string literal.
	Str string
	// Real is a floating point number.
	Real float64
	// Int is an integer.
	Int int64
	// Enum is an enumeration value, written .NAME.
	Enum string
	// Bool is a boolean, written .T. or .F.
	Bool bool
	// Ref is an entity instance name, written #n.
	Ref int
	// List is an aggregate.
	List []Value
	// Null is an omitted optional attribute, written $.
	Null struct{}
	// Derived is an attribute derived by a supertype, written *.
	Derived struct{}
	// Typed is a value of a defined type, e.g. IFCLABEL('x').
	Typed struct {
		Type  string
		Value Value
	}
)

func (v Str) encode(b *strings.Builder) {
	b.WriteByte('\'')
	b.WriteString(escape(string(v)))
	b.WriteByte('\'')
}

func (v Real) encode(b *strings.Builder) { b.WriteString(FormatReal(float64(v))) }
func (v Int) encode(b *strings.Builder)  { b.WriteString(strconv.FormatInt(int64(v), 10)) }
func (v Enum) encode(b *strings.Builder) { b.WriteString("." + strings.ToUpper(string(v)) + ".") }
func (v Ref) encode(b *strings.Builder)  { b.WriteString("#" + strconv.Itoa(int(v))) }
func (Null) encode(b *strings.Builder)    { b.WriteByte('$') }
func (Derived) encode(b *strings.Builder) { b.WriteByte('*') }

func (v Bool) encode(b *strings.Builder) {
	if v {
		b.WriteString(".T.")
	} else {
		b.WriteString(".F.")
	}
}

func (v List) encode(b *strings.Builder) {
	b.WriteByte('(')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeValue(b, x)
	}
	b.WriteByte(')')
}

func (v Typed) encode(b *strings.Builder) {
	b.WriteString(strings.ToUpper(v.Type))
	b.WriteByte('(')
	encodeValue(b, v.Value)
	b.WriteByte(')')
}

func encodeValue(b *strings.Builder, v Value) {
	if v == nil {
		b.WriteByte('$')
		return
	}
	v.encode(b)
}

// Encode returns the clear text form of v.
func Encode(v Value) string {
	var b strings.Builder
	encodeValue(&b, v)
	return b.String()
}

// FormatReal renders x as a STEP real: the shortest decimal that reads
// back to x, always with a decimal point. Negative zero is written as 0.
func FormatReal(x float64) string {
	if x == 0 {
		return "0."
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		// Not representable; callers validate geometry before writing.
		return "0."
	}
	s := strconv.FormatFloat(x, 'G', -1, 64)
	mant, exp, hasExp := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += "."
	}
	if !hasExp {
		return mant
	}
	// strconv writes E+06 and E-07; STEP readers accept both, keep the sign
	// only when negative.
	exp = strings.TrimPrefix(exp, "+")
	return mant + "E" + exp
}

// escape applies the ISO 10303-21 string rules: quotes and backslashes are
// doubled, characters outside printable ASCII use the \X2\ encoding.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\X2\%04X\X0\`, r)
		default:
			fmt.Fprintf(&b, `\X4\%08X\X0\`, r)
		}
	}
	return b.String()
}
