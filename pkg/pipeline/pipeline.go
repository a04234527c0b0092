// Package pipeline runs a complete stair build: validation, feature
// location, assembly, meshing and the three exports (IFC, STEP and the bar
// schedule). A build either yields every output or fails; nothing is written
// to disk until all stages have succeeded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/samber/lo"

	"github.com/chazu/stairkit/pkg/assembly"
	"github.com/chazu/stairkit/pkg/ifc"
	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/kernel/sdfx"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/schedule"
	"github.com/chazu/stairkit/pkg/step"
	"github.com/chazu/stairkit/pkg/step21"
	"github.com/chazu/stairkit/pkg/tessellate"
)

// Options configure a build. The zero value builds every output of the full
// model with the sdfx kernel at its default resolution.
type Options struct {
	// Kernel evaluates the B-Rep model; nil means a new sdfx kernel.
	Kernel kernel.Kernel
	// Workers bounds how many parts are meshed at once; 0 keeps the
	// kernel setting.
	Workers int
	// Cells is the meshing resolution; 0 selects the kernel default.
	Cells int
	// Selector picks the parts written to STEP; nil means the full model.
	Selector assembly.Selector
	// SkipBRep leaves out meshing and the STEP file. The IFC file and the
	// schedule do not depend on the B-Rep model.
	SkipBRep bool

	IFC  ifc.Options
	STEP step.Options

	// Logger receives one line per stage; nil means log.Default().
	Logger *log.Logger
}

// Result holds every product of a build.
type Result struct {
	Bundle   *params.Bundle
	Features *locate.Features
	Tree     *assembly.Tree
	Meshes   []*kernel.Mesh
	IFC      *step21.File
	STEP     *step21.File
	Schedule *schedule.Schedule
}

// Build runs the stages in order on b. The context is checked between
// stages; a stage that has started runs to completion.
func Build(ctx context.Context, b *params.Bundle, opts Options) (*Result, error) {
	logger := stageLogger(opts.Logger, b.Name)
	res := &Result{Bundle: b}

	stages := []struct {
		name string
		skip bool
		run  func() (string, error)
	}{
		{"validate", false, func() (string, error) {
			return "", params.Validate(b)
		}},
		{"locate", false, func() (string, error) {
			f, err := locate.Locate(b)
			if err != nil {
				return "", err
			}
			res.Features = f
			c := f.Counts()
			return fmt.Sprintf("%d holes, %d slots, %d inserts, %d bars",
				c[string(locate.GroupHoles)], c[string(locate.GroupSlots)],
				c[string(locate.GroupInserts)], c[string(locate.GroupRebars)]), nil
		}},
		{"assemble", false, func() (string, error) {
			t, err := assembly.Assemble(res.Features)
			if err != nil {
				return "", err
			}
			res.Tree = t
			return fmt.Sprintf("%d nodes", t.NodeCount()), nil
		}},
		{"mesh", opts.SkipBRep, func() (string, error) {
			k := opts.Kernel
			if k == nil {
				k = sdfx.New()
			}
			if opts.Workers > 0 {
				k.SetParallel(opts.Workers)
			}
			sel := opts.Selector
			if sel == nil {
				sel = assembly.FullModel
			}
			meshes, err := tessellate.Tessellate(res.Tree, k, sel, opts.Cells)
			if err != nil {
				return "", err
			}
			res.Meshes = meshes
			tris := lo.SumBy(meshes, func(m *kernel.Mesh) int { return m.TriangleCount() })
			return fmt.Sprintf("%d parts, %d triangles", len(meshes), tris), nil
		}},
		{"step", opts.SkipBRep, func() (string, error) {
			so := opts.STEP
			if so.Assembly == "" {
				so.Assembly = res.Tree.Root.Name
			}
			f, err := step.Build(res.Meshes, so)
			if err != nil {
				return "", err
			}
			res.STEP = f
			return fmt.Sprintf("%d entities", f.Len()), nil
		}},
		{"ifc", false, func() (string, error) {
			f, err := ifc.Emit(res.Features, opts.IFC)
			if err != nil {
				return "", err
			}
			res.IFC = f
			return fmt.Sprintf("%d entities", f.Len()), nil
		}},
		{"schedule", false, func() (string, error) {
			s, err := schedule.Build(res.Features)
			if err != nil {
				return "", err
			}
			res.Schedule = s
			return fmt.Sprintf("%d marks, %.1f kg", len(s.Rows), s.TotalMass()), nil
		}},
	}

	for _, st := range stages {
		if st.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		start := time.Now()
		summary, err := st.run()
		if err != nil {
			logger.Printf("%s failed: %v", st.name, err)
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		if summary == "" {
			logger.Printf("%s ok (%s)", st.name, time.Since(start).Round(time.Millisecond))
		} else {
			logger.Printf("%s: %s (%s)", st.name, summary, time.Since(start).Round(time.Millisecond))
		}
	}
	return res, nil
}

// BuildAll builds several bundles one after another and collects every
// failure. Successful results keep the order of bs; a failed bundle leaves
// a nil entry.
func BuildAll(ctx context.Context, bs []*params.Bundle, opts Options) ([]*Result, error) {
	out := make([]*Result, len(bs))
	var errs []error
	for i, b := range bs {
		r, err := Build(ctx, b, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		out[i] = r
	}
	return out, errors.Join(errs...)
}

func stageLogger(base *log.Logger, name string) *log.Logger {
	if base == nil {
		base = log.Default()
	}
	if name == "" {
		name = "stair"
	}
	return log.New(base.Writer(), base.Prefix()+"["+name+"] ", base.Flags())
}
