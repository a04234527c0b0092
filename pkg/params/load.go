package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format names a parameter file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DecodeFunc decodes a bundle from r.
type DecodeFunc func(r io.Reader) (*Bundle, error)

var (
	formatsMu sync.RWMutex
	formats   = map[Format]DecodeFunc{
		FormatJSON: decodeJSON,
		FormatYAML: decodeYAML,
	}
	extensions = map[string]Format{
		".json": FormatJSON,
		".yaml": FormatYAML,
		".yml":  FormatYAML,
	}
)

// RegisterFormat makes an additional encoding available to Decode and Load.
// Packages providing a format register it from init, so importing them for
// side effects is enough.
func RegisterFormat(name Format, ext string, fn DecodeFunc) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[name] = fn
	if ext != "" {
		extensions[strings.ToLower(ext)] = name
	}
}

// Formats lists the registered format names.
func Formats() []Format {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	out := make([]Format, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FormatForPath picks a format from the file extension.
func FormatForPath(path string) (Format, error) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("unsupported parameter file extension %q", ext)
	}
	return f, nil
}

// Decode reads a bundle in the given format. Fields absent from the input
// keep the values of Default, and unknown fields are rejected.
func Decode(r io.Reader, format Format) (*Bundle, error) {
	formatsMu.RLock()
	fn, ok := formats[format]
	formatsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown parameter format %q", format)
	}
	b, err := fn(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s parameters: %w", format, err)
	}
	return b, nil
}

// Load reads and validates a parameter file.
func Load(path string) (*Bundle, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening parameters: %w", err)
	}
	defer f.Close()

	b, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func decodeJSON(r io.Reader) (*Bundle, error) {
	b := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return nil, err
	}
	return b, nil
}

func decodeYAML(r io.Reader) (*Bundle, error) {
	b := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(b); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return b, nil
}

// DecodeJSONSections decodes a JSON document on top of Default. Scripting
// front ends build the document from their own section values.
func DecodeJSONSections(doc []byte) (*Bundle, error) {
	return decodeJSON(bytes.NewReader(doc))
}

// Encode writes b in the given built-in format.
func Encode(w io.Writer, b *Bundle, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(b)
	}
	return fmt.Errorf("cannot encode parameters as %q", format)
}
