package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/stairkit/pkg/schedule"
)

// Output is one file a build can produce.
type Output struct {
	Ext   string
	Write func(w io.Writer) error
}

// Output extensions.
const (
	ExtIFC      = ".ifc"
	ExtSTEP     = ".stp"
	ExtWorkbook = ".xlsx"
	ExtPDF      = ".pdf"
	ExtJSON     = ".schedule.json"
)

// Outputs lists the files r can write, in a fixed order. The STEP file is
// present only when the B-Rep stages ran.
func (r *Result) Outputs(pdf schedule.PDFOptions) []Output {
	var outs []Output
	if r.IFC != nil {
		outs = append(outs, Output{ExtIFC, writeFile(r.IFC)})
	}
	if r.STEP != nil {
		outs = append(outs, Output{ExtSTEP, writeFile(r.STEP)})
	}
	if s := r.Schedule; s != nil {
		outs = append(outs,
			Output{ExtWorkbook, s.WriteXLSX},
			Output{ExtPDF, func(w io.Writer) error { return s.WritePDF(w, pdf) }},
			Output{ExtJSON, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}},
		)
	}
	return outs
}

func writeFile(f io.WriterTo) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	}
}

// WriteFiles writes every output to dir as base+ext. Each file goes to a
// temporary name first; the final names appear only after all outputs were
// written in full. It returns the written paths.
func WriteFiles(dir, base string, outs []Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	temps := make([]string, 0, len(outs))
	cleanup := func() {
		for _, t := range temps {
			os.Remove(t)
		}
	}

	for _, o := range outs {
		tmp, err := writeTemp(dir, base+o.Ext, o.Write)
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("writing %s%s: %w", base, o.Ext, err)
		}
	}

	paths := make([]string, len(outs))
	for i, o := range outs {
		paths[i] = filepath.Join(dir, base+o.Ext)
		if err := os.Rename(temps[i], paths[i]); err != nil {
			temps = temps[i:]
			cleanup()
			return nil, fmt.Errorf("renaming %s: %w", paths[i], err)
		}
	}
	return paths, nil
}

func writeTemp(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return f.Name(), err
	}
	if err := f.Close(); err != nil {
		return f.Name(), err
	}
	return f.Name(), nil
}
