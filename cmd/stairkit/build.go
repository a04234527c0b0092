package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/stairkit/pkg/assembly"
	"github.com/chazu/stairkit/pkg/ifc"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/pipeline"
	"github.com/chazu/stairkit/pkg/schedule"
	"github.com/chazu/stairkit/pkg/step"
)

var (
	buildOutDir        string
	buildNoBRep        bool
	buildCells         int
	buildWorkers       int
	buildSchema        string
	buildSelect        string
	buildAuthor        []string
	buildOrganization  []string
	buildAuthorization string
	buildTime          string
	buildSeed          string
)

var buildCmd = &cobra.Command{
	Use:   "build PARAMS...",
	Short: "Build the IFC, STEP and schedule files of one or more stairs",
	Long: `Build every output of each parameter file.

A stair's files are named after the bundle name and written to the output
directory only when all of its stages succeed.

Examples:
  stairkit build examples/st-1760-1200.json
  stairkit build -o out --no-brep examples/*.yaml
  stairkit build --time 2024-05-01T12:00:00Z --seed st1 examples/sliding.stair`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	f := buildCmd.Flags()
	f.StringVarP(&buildOutDir, "output", "o", ".", "output directory")
	f.BoolVar(&buildNoBRep, "no-brep", false, "skip meshing and the STEP file")
	f.IntVar(&buildCells, "cells", 0, "meshing resolution (cells along the longest side); 0 uses the kernel default")
	f.IntVar(&buildWorkers, "workers", 0, "parts meshed at once; 0 keeps the kernel default")
	f.StringVar(&buildSchema, "schema", "AP203", "STEP schema (AP203 or AP214)")
	f.StringVar(&buildSelect, "select", "full", "parts written to STEP: full, concrete, rebar, inserts or group:NAME")
	f.StringSliceVar(&buildAuthor, "author", nil, "IFC header author (default $"+EnvAuthor+")")
	f.StringSliceVar(&buildOrganization, "organization", nil, "IFC header organization (default $"+EnvOrganization+")")
	f.StringVar(&buildAuthorization, "authorization", "", "IFC header authorization contact (default $"+EnvAuthorization+")")
	f.StringVar(&buildTime, "time", "", "fixed RFC 3339 timestamp for reproducible files")
	f.StringVar(&buildSeed, "seed", "", "derive GlobalIds from this seed instead of at random")
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, pdf, err := buildOptions()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	failed := 0
	for _, path := range args {
		b, err := params.Load(path)
		if err != nil {
			logger.Printf("%v", err)
			failed++
			continue
		}
		o := opts
		o.IFC.FileName = b.Name + pipeline.ExtIFC
		o.STEP.Name = b.Name + pipeline.ExtSTEP
		if buildSeed != "" {
			o.IFC.IDs = ifc.SeededIDs(buildSeed + "/" + b.Name)
		}
		res, err := pipeline.Build(ctx, b, o)
		if err != nil {
			logger.Printf("%s: %v", path, err)
			failed++
			continue
		}
		paths, err := pipeline.WriteFiles(buildOutDir, b.Name, res.Outputs(pdf))
		if err != nil {
			logger.Printf("%s: %v", path, err)
			failed++
			continue
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stairs failed", failed, len(args))
	}
	return nil
}

func buildOptions() (pipeline.Options, schedule.PDFOptions, error) {
	var (
		opts pipeline.Options
		pdf  schedule.PDFOptions
	)
	schema, err := step.ParseSchema(buildSchema)
	if err != nil {
		return opts, pdf, err
	}
	sel, err := parseSelector(buildSelect)
	if err != nil {
		return opts, pdf, err
	}
	var stamp time.Time
	if buildTime != "" {
		if stamp, err = time.Parse(time.RFC3339, buildTime); err != nil {
			return opts, pdf, fmt.Errorf("--time: %w", err)
		}
	}

	author := buildAuthor
	if len(author) == 0 {
		author = envList(EnvAuthor)
	}
	org := buildOrganization
	if len(org) == 0 {
		org = envList(EnvOrganization)
	}
	authz := buildAuthorization
	if authz == "" {
		authz = os.Getenv(EnvAuthorization)
	}

	opts = pipeline.Options{
		Workers:  buildWorkers,
		Cells:    buildCells,
		Selector: sel,
		SkipBRep: buildNoBRep,
		IFC: ifc.Options{
			Author:        author,
			Organization:  org,
			Authorization: authz,
			Version:       Version,
			Time:          stamp,
		},
		STEP: step.Options{
			Schema:       schema,
			Author:       author,
			Organization: org,
		},
		Logger: logger,
	}
	if !stamp.IsZero() {
		opts.STEP.TimeStamp = stamp.UTC().Format("2006-01-02T15:04:05")
	}
	pdf = schedule.PDFOptions{Author: strings.Join(author, ", "), Date: stamp}
	return opts, pdf, nil
}

// parseSelector maps a --select value to an assembly selector.
func parseSelector(s string) (assembly.Selector, error) {
	switch s {
	case "", "full":
		return assembly.FullModel, nil
	case "concrete":
		return assembly.ConcreteOnly, nil
	case "rebar":
		return assembly.RebarCageOnly, nil
	case "inserts":
		return assembly.InsertsOnly, nil
	}
	if name, ok := strings.CutPrefix(s, "group:"); ok && name != "" {
		return assembly.Group(name), nil
	}
	return nil, fmt.Errorf("unknown selection %q (want full, concrete, rebar, inserts or group:NAME)", s)
}
