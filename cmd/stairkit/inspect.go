package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/schedule"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect PARAMS",
	Short: "Print the derived features of a stair without building solids",
	Long: `Locate every feature of a stair and print a summary: feature counts,
the concrete volume, inserts and the bar schedule.

Examples:
  stairkit inspect examples/st-1760-1200.json
  stairkit inspect --json examples/sliding.stair`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the summary as JSON")
}

// Summary is the result of inspect.
type Summary struct {
	Name     string             `json:"name"`
	Concrete string             `json:"concrete"`
	Steel    string             `json:"steel"`
	Volume   float64            `json:"volume"` // m³
	Counts   map[string]int     `json:"counts"`
	Inserts  []InsertSummary    `json:"inserts"`
	Schedule *schedule.Schedule `json:"schedule"`
	Mass     float64            `json:"mass"` // kg of steel
}

// InsertSummary names one embedded part.
type InsertSummary struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Part string `json:"part"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	b, err := params.Load(args[0])
	if err != nil {
		return err
	}
	s, err := summarize(b)
	if err != nil {
		return err
	}
	if inspectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	printSummary(cmd.OutOrStdout(), s)
	return nil
}

func summarize(b *params.Bundle) (*Summary, error) {
	f, err := locate.Locate(b)
	if err != nil {
		return nil, err
	}
	sched, err := schedule.Build(f)
	if err != nil {
		return nil, err
	}
	s := &Summary{
		Name:     f.Name,
		Concrete: f.Concrete,
		Steel:    f.Steel,
		Volume:   f.BodyVolume() * 1e-9,
		Counts:   f.Counts(),
		Schedule: sched,
		Mass:     sched.TotalMass(),
	}
	for _, in := range f.Inserts {
		s.Inserts = append(s.Inserts, InsertSummary{Name: in.Name, Role: string(in.Role), Part: in.PartName()})
	}
	return s, nil
}

func printSummary(out io.Writer, s *Summary) {
	fmt.Fprintf(out, "Stair %s  (%s, %s)\n\n", s.Name, s.Concrete, s.Steel)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Concrete volume\t%.3f m³\n", s.Volume)
	for _, g := range locate.Groups() {
		fmt.Fprintf(w, "%s\t%d\n", g, s.Counts[string(g)])
	}
	fmt.Fprintf(w, "Steel mass\t%.1f kg\n", s.Mass)
	w.Flush()

	if len(s.Inserts) > 0 {
		fmt.Fprintln(out, "\nINSERTS")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Name\tRole\tPart")
		for _, in := range s.Inserts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", in.Name, in.Role, in.Part)
		}
		w.Flush()
	}

	if len(s.Schedule.Rows) > 0 {
		fmt.Fprintln(out, "\nBAR SCHEDULE")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Mark\tGroup\tDia\tShape\tNo.\tLength\tMass\t")
		for _, r := range s.Schedule.Rows {
			fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%d\t%g\t%.2f\t\n", r.Mark, r.Group, r.Diameter, r.Shape, r.Count, r.Length, r.Mass)
		}
		w.Flush()
	}
}
