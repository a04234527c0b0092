package step21

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Header holds the three header entities every exchange file carries.
type Header struct {
	Description         []string
	ImplementationLevel string
	Name                string
	TimeStamp           string
	Author              []string
	Organization        []string
	PreprocessorVersion string
	OriginatingSystem   string
	Authorization       string
	Schema              []string
}

// Entity is one instance in the DATA section. A complex (multi-leaf)
// instance has an empty Type and one Typed value per leaf in Attrs.
type Entity struct {
	ID    int
	Type  string
	Attrs []Value
}

// Complex reports whether e is an external mapping of several leaves.
func (e *Entity) Complex() bool { return e.Type == "" }

// Line renders the entity as it appears in the DATA section.
func (e *Entity) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d=", e.ID)
	if e.Complex() {
		b.WriteByte('(')
		for _, a := range e.Attrs {
			t, ok := a.(Typed)
			if !ok {
				continue
			}
			b.WriteString(strings.ToUpper(t.Type))
			if l, ok := t.Value.(List); ok {
				l.encode(&b)
			} else {
				b.WriteByte('(')
				encodeValue(&b, t.Value)
				b.WriteByte(')')
			}
		}
		b.WriteString(");")
		return b.String()
	}
	b.WriteString(strings.ToUpper(e.Type))
	List(e.Attrs).encode(&b)
	b.WriteByte(';')
	return b.String()
}

// File is an exchange file under construction. Instance names are
// assigned sequentially from 1 in the order entities are added.
type File struct {
	Header   Header
	entities []*Entity
}

// New returns an empty file with the given header.
func New(h Header) *File {
	return &File{Header: h}
}

// Add appends an entity and returns a reference to it.
func (f *File) Add(typ string, attrs ...Value) Ref {
	id := len(f.entities) + 1
	f.entities = append(f.entities, &Entity{ID: id, Type: typ, Attrs: attrs})
	return Ref(id)
}

// AddComplex appends a complex instance built from the given leaves, each
// a Typed whose Value is the leaf's attribute List.
func (f *File) AddComplex(leaves ...Typed) Ref {
	attrs := make([]Value, len(leaves))
	for i, l := range leaves {
		attrs[i] = l
	}
	return f.Add("", attrs...)
}

// Len returns the number of entities added.
func (f *File) Len() int { return len(f.entities) }

// Entity returns the entity with instance name id, or nil.
func (f *File) Entity(id Ref) *Entity {
	if id < 1 || int(id) > len(f.entities) {
		return nil
	}
	return f.entities[id-1]
}

// WriteTo writes the complete exchange file.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	h := f.Header
	level := h.ImplementationLevel
	if level == "" {
		level = "2;1"
	}
	lines := []string{
		"ISO-10303-21;",
		"HEADER;",
		"FILE_DESCRIPTION(" + Encode(strList(h.Description)) + "," + Encode(Str(level)) + ");",
		"FILE_NAME(" + strings.Join([]string{
			Encode(Str(h.Name)),
			Encode(Str(h.TimeStamp)),
			Encode(strList(h.Author)),
			Encode(strList(h.Organization)),
			Encode(Str(h.PreprocessorVersion)),
			Encode(Str(h.OriginatingSystem)),
			Encode(Str(h.Authorization)),
		}, ",") + ");",
		"FILE_SCHEMA(" + Encode(strList(h.Schema)) + ");",
		"ENDSEC;",
		"DATA;",
	}
	for _, l := range lines {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	for _, e := range f.entities {
		bw.WriteString(e.Line())
		bw.WriteByte('\n')
	}
	bw.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("write exchange file: %w", err)
	}
	return cw.n, nil
}

// String returns the complete exchange file as text.
func (f *File) String() string {
	var b strings.Builder
	f.WriteTo(&b)
	return b.String()
}

func strList(ss []string) List {
	if len(ss) == 0 {
		return List{Str("")}
	}
	l := make(List, len(ss))
	for i, s := range ss {
		l[i] = Str(s)
	}
	return l
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
