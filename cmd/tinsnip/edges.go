package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/topology"
)

func newEdgesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "edges <part>",
		Short: "List the edges a flange can be placed on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.computeFile(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Edge\tFace\tLength\tFacing\tOpposite\n")
			for _, e := range res.Edges {
				opp, ok := topology.OppositeEdgeID(e.ID)
				if !ok {
					opp = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", e.ID, e.FaceID, e.Length(), topology.UserFacingDirection(e.ID), opp)
			}
			return w.Flush()
		},
	}
}
