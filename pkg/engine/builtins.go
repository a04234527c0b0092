package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/stairkit/pkg/params"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms stair script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: step-slots -> step_slots
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSection is the value of a section builtin: its keyword fields and
// nested sections, keyed by bundle field name.
type sexpSection struct {
	name   string
	fields map[string]any
}

func (s *sexpSection) SexpString(ps *zygo.PrintState) string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("(%s %s)", s.name, strings.Join(keys, " "))
}
func (s *sexpSection) Type() *zygo.RegisteredType { return nil }

// sexpStair is the value of (stair ...).
type sexpStair struct {
	doc map[string]any
}

func (s *sexpStair) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(stair %q)", s.doc["name"])
}
func (s *sexpStair) Type() *zygo.RegisteredType { return nil }

// bundle decodes the collected sections on top of params.Default. Unknown
// fields, including sections nested in the wrong parent, are errors.
func (s *sexpStair) bundle() (*params.Bundle, error) {
	doc, err := json.Marshal(s.doc)
	if err != nil {
		return nil, fmt.Errorf("stair: %w", err)
	}
	b, err := params.DecodeJSONSections(doc)
	if err != nil {
		return nil, fmt.Errorf("stair: %w", err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if _, dup := result.kw[name]; !dup {
				result.order = append(result.order, name)
			}
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// fieldName maps a keyword to the bundle's snake_case field name.
func fieldName(kw string) string {
	return strings.ReplaceAll(kw, "-", "_")
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_auto) and plain strings ("auto").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toValue converts a Sexp into the JSON-ready Go value of a bundle field.
// Keywords become their names, so enum values read :auto or "auto".
func toValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return v.Val, nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr:
		return toKeywordString(v)
	case *sexpSection:
		return v.fields, nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, it := range items {
			if out[i], err = toValue(it); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return out, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("unsupported value %T (%s)", s, s.SexpString(nil))
}

// fill collects keyword fields and positional sections of a builtin call.
func fill(fn string, args []zygo.Sexp, fields map[string]any) error {
	pa := parseArgs(args)
	for _, kw := range pa.order {
		v, err := toValue(pa.kw[kw])
		if err != nil {
			return fmt.Errorf("%s: %s: %w", fn, kw, err)
		}
		fields[fieldName(kw)] = v
	}
	for i, p := range pa.positional {
		sec, ok := p.(*sexpSection)
		if !ok {
			return fmt.Errorf("%s: argument %d: expected a section, got %s", fn, i+1, p.SexpString(nil))
		}
		if _, dup := fields[sec.name]; dup {
			return fmt.Errorf("%s: %s given twice", fn, sec.name)
		}
		fields[sec.name] = sec.fields
	}
	return nil
}

// ---------------------------------------------------------------------------
// Section names
// ---------------------------------------------------------------------------

// Sections lists the section builtins: every struct-valued field of
// params.Bundle, at any depth, by its json name.
var Sections = sectionNames(reflect.TypeOf(params.Bundle{}))

func sectionNames(t reflect.Type) []string {
	seen := map[string]bool{}
	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			seen[name] = true
			walk(ft)
		}
	}
	walk(t)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the section builtins and (stair ...) into a
// zygomys environment. done receives every evaluated stair form.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, done func(*sexpStair)) {

	// -----------------------------------------------------------------------
	// (geometry :steps-number 11 :step-height 160 ...)
	// (holes (top :type :sliding-pin (sliding :h1 50)) (bottom ...))
	// -----------------------------------------------------------------------
	for _, sec := range Sections {
		env.AddFunction(sec, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			s := &sexpSection{name: sec, fields: make(map[string]any)}
			if err := fill(sec, args, s.fields); err != nil {
				return zygo.SexpNull, err
			}
			return s, nil
		})
	}

	// -----------------------------------------------------------------------
	// (stair "ST-1" (geometry ...) (rebar ...) :cover 25)
	// -----------------------------------------------------------------------
	env.AddFunction("stair", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		doc := make(map[string]any)
		if len(args) > 0 {
			if _, kw := isKW(args[0]); !kw {
				if s, err := toString(args[0]); err == nil {
					doc["name"] = s
					args = args[1:]
				}
			}
		}
		if err := fill("stair", args, doc); err != nil {
			return zygo.SexpNull, err
		}
		st := &sexpStair{doc: doc}
		done(st)
		return st, nil
	})
}
