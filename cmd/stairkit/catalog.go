package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/stairkit/pkg/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [FAMILY]",
	Short: "List the insert parts in the catalogue",
	Long: `List the products of every insert family, or of one family:
round-head, anchor, rail-embed or hook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	families := catalog.Families()
	if len(args) == 1 {
		f, err := parseFamily(args[0])
		if err != nil {
			return err
		}
		families = []catalog.Family{f}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Family\tPart\tRabbet depth\tEmbed depth")
	for _, f := range families {
		for _, name := range catalog.Names(f) {
			p, err := catalog.Lookup(f, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%g\t%g\n", f, name, p.RabbetDepth(), p.EmbedDepth())
		}
	}
	return w.Flush()
}

func parseFamily(s string) (catalog.Family, error) {
	for _, f := range catalog.Families() {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown part family %q", s)
}
