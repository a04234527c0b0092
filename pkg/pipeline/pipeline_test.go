package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chazu/stairkit/pkg/assembly"
	"github.com/chazu/stairkit/pkg/ifc"
	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/kernel/sdfx"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/pipeline"
	"github.com/chazu/stairkit/pkg/schedule"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// triangleKernel builds solids with sdfx but meshes every part as a single
// triangle, which keeps the B-Rep stages fast.
type triangleKernel struct {
	*sdfx.SdfxKernel
	meshed atomic.Int32
}

func (k *triangleKernel) ToMesh(s kernel.Solid, cells int) (*kernel.Mesh, error) {
	k.meshed.Add(1)
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
	}, nil
}

func testOptions(logs io.Writer) pipeline.Options {
	return pipeline.Options{
		IFC: ifc.Options{
			FileName: "test.ifc",
			Time:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			IDs:      ifc.SeededIDs("pipeline"),
		},
		Logger: log.New(logs, "", 0),
	}
}

func TestBuildSkipBRep(t *testing.T) {
	var logs bytes.Buffer
	opts := testOptions(&logs)
	opts.SkipBRep = true

	b := params.Default()
	b.Rebar.Mode = params.RebarFull
	res, err := pipeline.Build(context.Background(), b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Features == nil || res.Tree == nil || res.IFC == nil || res.Schedule == nil {
		t.Fatalf("missing products: %+v", res)
	}
	if res.STEP != nil || res.Meshes != nil {
		t.Error("SkipBRep still produced B-Rep output")
	}
	if res.Schedule.BarCount() != len(res.Features.Rebars) {
		t.Errorf("schedule has %d bars, features %d", res.Schedule.BarCount(), len(res.Features.Rebars))
	}

	out := logs.String()
	for _, want := range []string{"[ST-1760-1200] validate ok", "[ST-1760-1200] locate:", "ifc:", "schedule:"} {
		if !strings.Contains(out, want) {
			t.Errorf("log lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "mesh") {
		t.Errorf("skipped stage logged:\n%s", out)
	}
}

func TestBuildBRep(t *testing.T) {
	k := &triangleKernel{SdfxKernel: sdfx.New()}
	opts := testOptions(io.Discard)
	opts.Kernel = k
	opts.Workers = 2

	res, err := pipeline.Build(context.Background(), params.Default(), opts)
	if err != nil {
		t.Fatal(err)
	}
	parts := res.Tree.Select(assembly.FullModel)
	if len(res.Meshes) != len(parts) || int(k.meshed.Load()) != len(parts) {
		t.Errorf("meshed %d (%d meshes) of %d parts", k.meshed.Load(), len(res.Meshes), len(parts))
	}
	if res.STEP == nil {
		t.Fatal("no STEP file")
	}
	if !strings.Contains(res.STEP.String(), "'ST-1760-1200'") {
		t.Error("STEP root product is not named after the stair")
	}
}

// The default stair through the sdfx kernel: every part, bars included,
// must mesh into the STEP file.
func TestBuildDefaultWithSdfx(t *testing.T) {
	if testing.Short() {
		t.Skip("meshes the full model")
	}
	for _, mode := range []params.RebarMode{params.RebarNone, params.RebarFull} {
		t.Run(mode.String(), func(t *testing.T) {
			opts := testOptions(io.Discard)
			opts.Kernel = sdfx.New()
			opts.Workers = 4
			opts.Cells = 32

			b := params.Default()
			b.Rebar.Mode = mode
			res, err := pipeline.Build(context.Background(), b, opts)
			if err != nil {
				t.Fatal(err)
			}
			parts := res.Tree.Select(assembly.FullModel)
			if len(res.Meshes) != len(parts) {
				t.Fatalf("meshes = %d, parts = %d", len(res.Meshes), len(parts))
			}
			for _, m := range res.Meshes {
				if m.IsEmpty() {
					t.Errorf("%s meshed to nothing", m.PartName)
				}
			}
			if res.STEP == nil {
				t.Error("no STEP file")
			}
		})
	}
}

func TestBuildSelector(t *testing.T) {
	k := &triangleKernel{SdfxKernel: sdfx.New()}
	opts := testOptions(io.Discard)
	opts.Kernel = k
	opts.Selector = assembly.ConcreteOnly

	res, err := pipeline.Build(context.Background(), params.Default(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Meshes) != 1 || res.Meshes[0].PartName != assembly.NameConcrete {
		t.Errorf("meshes = %d", len(res.Meshes))
	}
}

func TestBuildInvalidBundle(t *testing.T) {
	var logs bytes.Buffer
	opts := testOptions(&logs)
	opts.SkipBRep = true

	b := params.Default()
	b.Geometry.StepsNumber = 0
	_, err := pipeline.Build(context.Background(), b, opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, stairerr.ErrParameterOutOfRange) {
		t.Errorf("err = %v", err)
	}
	if !strings.HasPrefix(err.Error(), "validate: ") {
		t.Errorf("err = %q, want the stage name first", err)
	}
	if !strings.Contains(logs.String(), "validate failed") {
		t.Errorf("log = %q", logs.String())
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Build(ctx, params.Default(), testOptions(io.Discard))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestBuildAll(t *testing.T) {
	good := params.Default()
	bad := params.Default()
	bad.Name = "ST-broken"
	bad.Geometry.Width = -1

	opts := testOptions(io.Discard)
	opts.SkipBRep = true
	out, err := pipeline.BuildAll(context.Background(), []*params.Bundle{good, bad}, opts)
	if err == nil || !strings.Contains(err.Error(), "ST-broken") {
		t.Fatalf("err = %v", err)
	}
	if len(out) != 2 || out[0] == nil || out[1] != nil {
		t.Errorf("results = %v", out)
	}
}

// --- Output files ---

func TestWriteFiles(t *testing.T) {
	opts := testOptions(io.Discard)
	opts.SkipBRep = true
	res, err := pipeline.Build(context.Background(), params.Default(), opts)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	outs := res.Outputs(schedule.PDFOptions{Author: "A. Designer", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})
	paths, err := pipeline.WriteFiles(dir, "ST-1", outs)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ST-1.ifc", "ST-1.xlsx", "ST-1.pdf", "ST-1.schedule.json"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("path %d = %s, want %s", i, p, want[i])
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(want) {
		t.Errorf("directory holds %d entries, want %d (temporary files left behind?)", len(entries), len(want))
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("ISO-10303-21;")) {
		t.Errorf("IFC file starts %q", data[:20])
	}
}

func TestWriteFilesIsAtomic(t *testing.T) {
	dir := t.TempDir()
	outs := []pipeline.Output{
		{Ext: ".a", Write: func(w io.Writer) error { _, err := io.WriteString(w, "a"); return err }},
		{Ext: ".b", Write: func(w io.Writer) error { return errors.New("disk on fire") }},
	}
	_, err := pipeline.WriteFiles(dir, "x", outs)
	if err == nil || !strings.Contains(err.Error(), "x.b") {
		t.Fatalf("err = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("failed write left %v", names)
	}
}
