package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/export"
	"github.com/chazu/tinsnip/pkg/unfold"
)

func newUnfoldCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "unfold <part>",
		Short: "Print the flat pattern and bend table of a part",
		Long: `Compute the flat pattern of a part and print its overall size,
its regions and the bend table.

Examples:
  tinsnip unfold examples/tray.tinsnip
  tinsnip unfold part.json5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.computeFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Pattern)
			}
			printPattern(out, res.Pattern)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the flat pattern as JSON")
	return cmd
}

func printPattern(out io.Writer, p unfold.FlatPattern) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "FLAT PATTERN:")
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Overall width:\t%.2f mm\n", p.OverallWidth)
	fmt.Fprintf(w, "  Overall height:\t%.2f mm\n", p.OverallHeight)
	fmt.Fprintf(w, "  Regions:\t%d\n", len(p.Regions))
	fmt.Fprintf(w, "  Cutouts:\t%d\n", len(p.Cutouts))
	w.Flush()
	fmt.Fprintln(out)

	fmt.Fprintln(out, "REGIONS:")
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ID\tType\tVertices\n")
	for _, r := range p.Regions {
		fmt.Fprintf(w, "  %s\t%s\t%d\n", r.ID, r.Type, len(r.Polygon))
	}
	w.Flush()
	fmt.Fprintln(out)

	rows := export.BendTable(p)
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out, "BENDS:")
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Label\tAngle\tRadius\tDirection\tLength\n")
	for _, r := range rows {
		fmt.Fprintf(w, "  %s\t%.1f°\t%.2f\t%s\t%.2f\n", r.Label, r.Angle, r.Radius, r.Direction, r.Length)
	}
	w.Flush()
	fmt.Fprintln(out)
}
