package main

import (
	"errors"
	"log"

	"github.com/chazu/stairkit/pkg/assembly"
	"github.com/chazu/stairkit/pkg/engine"
	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/kernel/sdfx"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/stairerr"
	"github.com/chazu/stairkit/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// PreviewCells is the meshing resolution of previews.
const PreviewCells = 48

// App is the backend of the HTTP server. Evaluate turns a parameter script
// into preview meshes; the build endpoints go through the pipeline.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cells  int
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Group    string    `json:"group"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Entity  string `json:"entity,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Name   string          `json:"name"`
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		cells:  PreviewCells,
	}
}

// Evaluate takes a stair script and returns preview meshes + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a parameter bundle.
	b, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Name = b.Name

	// Step 3: Validate and locate the features, then assemble the part tree.
	if err := params.Validate(b); err != nil {
		result.Errors = append(result.Errors, errorData(err)...)
		return result
	}
	f, err := locate.Locate(b)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err)...)
		return result
	}
	tree, err := assembly.Assemble(f)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err)...)
		return result
	}

	// Step 4: Tessellate the tree into triangle meshes.
	meshes, err := tessellate.Tessellate(tree, a.kernel, assembly.FullModel, a.cells)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, errorData(err)...)
		return result
	}

	// Step 5: Convert kernel meshes to the frontend MeshData format.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Group:    m.Group,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	return result
}

// errorData flattens joined errors, keeping the entity and kind of each.
func errorData(err error) []EvalErrorData {
	var errs []error
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	} else {
		errs = []error{err}
	}
	out := make([]EvalErrorData, 0, len(errs))
	for _, e := range errs {
		d := EvalErrorData{Entity: stairerr.EntityOf(e), Message: e.Error()}
		var se *stairerr.Error
		if errors.As(e, &se) {
			d.Kind = se.Kind.String()
		}
		out = append(out, d)
	}
	return out
}
