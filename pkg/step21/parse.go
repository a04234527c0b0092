package step21

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Model is a parsed exchange file.
type Model struct {
	Header   Header
	Entities map[int]*Entity
	Order    []int // instance names in file order
}

// Get returns the entity named by r, or nil.
func (m *Model) Get(r Ref) *Entity {
	return m.Entities[int(r)]
}

// ByType returns every simple entity of the given type in file order.
// The comparison is case-insensitive.
func (m *Model) ByType(typ string) []*Entity {
	typ = strings.ToUpper(typ)
	var out []*Entity
	for _, id := range m.Order {
		if e := m.Entities[id]; e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// ParseError locates a syntax error in the input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("step21: line %d: %s", e.Line, e.Msg)
}

// Parse reads a complete exchange file.
func Parse(r io.Reader) (*Model, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("step21: read: %w", err)
	}
	p := &parser{src: string(src), line: 1}
	return p.file()
}

// ParseString is Parse over a string.
func ParseString(s string) (*Model, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

// skip consumes whitespace and comments.
func (p *parser) skip() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\n':
			p.line++
			p.pos++
		case c == ' ' || c == '\t' || c == '\r':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.line += strings.Count(p.src[p.pos:p.pos+2+end], "\n")
			p.pos += end + 4
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(tok string) error {
	p.skip()
	if !strings.HasPrefix(p.src[p.pos:], tok) {
		return p.errorf("expected %q", tok)
	}
	p.pos += len(tok)
	return nil
}

func isKeywordByte(c byte, first bool) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c == '_':
		return true
	case !first && (c >= '0' && c <= '9' || c == '-'):
		return true
	}
	return false
}

func (p *parser) keyword() (string, error) {
	p.skip()
	start := p.pos
	for p.pos < len(p.src) && isKeywordByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected keyword")
	}
	return strings.ToUpper(p.src[start:p.pos]), nil
}

func (p *parser) file() (*Model, error) {
	if err := p.expect("ISO-10303-21;"); err != nil {
		return nil, err
	}
	if err := p.expect("HEADER;"); err != nil {
		return nil, err
	}
	m := &Model{Entities: make(map[int]*Entity)}
	for {
		kw, err := p.keyword()
		if err != nil {
			return nil, err
		}
		if kw == "ENDSEC" {
			if err := p.expect(";"); err != nil {
				return nil, err
			}
			break
		}
		params, err := p.list()
		if err != nil {
			return nil, err
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		p.header(&m.Header, kw, params)
	}
	if err := p.expect("DATA;"); err != nil {
		return nil, err
	}
	for {
		if p.peek() != '#' {
			kw, err := p.keyword()
			if err != nil {
				return nil, err
			}
			if kw != "ENDSEC" {
				return nil, p.errorf("unexpected %s in DATA section", kw)
			}
			if err := p.expect(";"); err != nil {
				return nil, err
			}
			break
		}
		e, err := p.instance()
		if err != nil {
			return nil, err
		}
		if _, dup := m.Entities[e.ID]; dup {
			return nil, p.errorf("duplicate instance #%d", e.ID)
		}
		m.Entities[e.ID] = e
		m.Order = append(m.Order, e.ID)
	}
	if err := p.expect("END-ISO-10303-21;"); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) header(h *Header, kw string, v List) {
	str := func(i int) string {
		if i < len(v) {
			s, _ := AsString(v[i])
			return s
		}
		return ""
	}
	strs := func(i int) []string {
		if i >= len(v) {
			return nil
		}
		l, _ := v[i].(List)
		var out []string
		for _, x := range l {
			if s, ok := AsString(x); ok {
				out = append(out, s)
			}
		}
		return out
	}
	switch kw {
	case "FILE_DESCRIPTION":
		h.Description, h.ImplementationLevel = strs(0), str(1)
	case "FILE_NAME":
		h.Name, h.TimeStamp = str(0), str(1)
		h.Author, h.Organization = strs(2), strs(3)
		h.PreprocessorVersion, h.OriginatingSystem, h.Authorization = str(4), str(5), str(6)
	case "FILE_SCHEMA":
		h.Schema = strs(0)
	}
}

func (p *parser) instance() (*Entity, error) {
	p.pos++ // '#'
	id, err := p.digits()
	if err != nil {
		return nil, err
	}
	if err := p.expect("="); err != nil {
		return nil, err
	}
	e := &Entity{ID: id}
	if p.peek() == '(' {
		// Complex instance: a parenthesised run of NAME(params) leaves.
		p.pos++
		for p.peek() != ')' {
			kw, err := p.keyword()
			if err != nil {
				return nil, err
			}
			params, err := p.list()
			if err != nil {
				return nil, err
			}
			e.Attrs = append(e.Attrs, Typed{Type: kw, Value: params})
		}
		p.pos++
	} else {
		if e.Type, err = p.keyword(); err != nil {
			return nil, err
		}
		params, err := p.list()
		if err != nil {
			return nil, err
		}
		e.Attrs = params
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) digits() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, p.errorf("bad instance name %q", p.src[start:p.pos])
	}
	return n, nil
}

// list parses a parenthesised, comma separated parameter list.
func (p *parser) list() (List, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	l := List{}
	if p.peek() == ')' {
		p.pos++
		return l, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return l, nil
		default:
			return nil, p.errorf("expected ',' or ')' in list")
		}
	}
}

func (p *parser) value() (Value, error) {
	c := p.peek()
	switch {
	case c == '$':
		p.pos++
		return Null{}, nil
	case c == '*':
		p.pos++
		return Derived{}, nil
	case c == '(':
		return p.list()
	case c == '\'':
		return p.str()
	case c == '#':
		p.pos++
		id, err := p.digits()
		return Ref(id), err
	case c == '.':
		end := strings.IndexByte(p.src[p.pos+1:], '.')
		if end < 0 {
			return nil, p.errorf("unterminated enumeration")
		}
		name := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		switch name {
		case "T":
			return Bool(true), nil
		case "F":
			return Bool(false), nil
		}
		return Enum(name), nil
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		return p.number()
	case isKeywordByte(c, true):
		kw, err := p.keyword()
		if err != nil {
			return nil, err
		}
		inner, err := p.list()
		if err != nil {
			return nil, err
		}
		if len(inner) != 1 {
			return nil, p.errorf("typed parameter %s takes one value, got %d", kw, len(inner))
		}
		return Typed{Type: kw, Value: inner[0]}, nil
	}
	return nil, p.errorf("unexpected character %q", c)
}

func (p *parser) number() (Value, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	isReal := false
scan:
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c >= '0' && c <= '9':
		case c == '.':
			isReal = true
		case c == 'E' || c == 'e':
			isReal = true
			if p.pos+1 < len(p.src) && (p.src[p.pos+1] == '-' || p.src[p.pos+1] == '+') {
				p.pos++
			}
		default:
			break scan
		}
		p.pos++
	}
	text := p.src[start:p.pos]
	if isReal {
		// "1." and "1.E-05" are valid STEP but not Go syntax.
		t := strings.Replace(text, ".E", ".0E", 1)
		t = strings.Replace(t, ".e", ".0e", 1)
		if strings.HasSuffix(t, ".") {
			t += "0"
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, p.errorf("bad real %q", text)
		}
		return Real(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("bad integer %q", text)
	}
	return Int(n), nil
}

func (p *parser) str() (Value, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == '\'':
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				b.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return Str(b.String()), nil
		case strings.HasPrefix(p.src[p.pos:], `\\`):
			b.WriteByte('\\')
			p.pos += 2
		case strings.HasPrefix(p.src[p.pos:], `\X2\`), strings.HasPrefix(p.src[p.pos:], `\X4\`):
			width := 4
			if p.src[p.pos+2] == '4' {
				width = 8
			}
			p.pos += 4
			end := strings.Index(p.src[p.pos:], `\X0\`)
			if end < 0 || end%width != 0 {
				return nil, p.errorf("bad \\X%d\\ escape", width/2)
			}
			for i := 0; i < end; i += width {
				r, err := strconv.ParseUint(p.src[p.pos+i:p.pos+i+width], 16, 32)
				if err != nil {
					return nil, p.errorf("bad hex in string escape")
				}
				b.WriteRune(rune(r))
			}
			p.pos += end + 4
		case strings.HasPrefix(p.src[p.pos:], `\X\`) && p.pos+5 <= len(p.src):
			r, err := strconv.ParseUint(p.src[p.pos+3:p.pos+5], 16, 8)
			if err != nil {
				return nil, p.errorf("bad hex in string escape")
			}
			b.WriteRune(rune(r))
			p.pos += 5
		default:
			if c == '\n' {
				p.line++
			}
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

// AsString unwraps a string, looking through one level of Typed.
func AsString(v Value) (string, bool) {
	switch x := v.(type) {
	case Str:
		return string(x), true
	case Typed:
		return AsString(x.Value)
	}
	return "", false
}

// AsReal unwraps a number, accepting integers and one level of Typed.
func AsReal(v Value) (float64, bool) {
	switch x := v.(type) {
	case Real:
		return float64(x), true
	case Int:
		return float64(x), true
	case Typed:
		return AsReal(x.Value)
	}
	return 0, false
}

// AsRef unwraps an instance reference.
func AsRef(v Value) (Ref, bool) {
	r, ok := v.(Ref)
	return r, ok
}

// Reals unwraps a list of numbers.
func Reals(v Value) ([]float64, bool) {
	l, ok := v.(List)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(l))
	for i, x := range l {
		if out[i], ok = AsReal(x); !ok {
			return nil, false
		}
	}
	return out, true
}

// Refs unwraps a list of instance references.
func Refs(v Value) ([]Ref, bool) {
	l, ok := v.(List)
	if !ok {
		return nil, false
	}
	out := make([]Ref, len(l))
	for i, x := range l {
		if out[i], ok = x.(Ref); !ok {
			return nil, false
		}
	}
	return out, true
}
