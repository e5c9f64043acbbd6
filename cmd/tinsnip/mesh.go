package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/kernel/sdfx"
)

func newMeshCmd(c *cli) *cobra.Command {
	var stlPath string
	cmd := &cobra.Command{
		Use:   "mesh <part>",
		Short: "Mesh a part and optionally write it as STL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.computeFile(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Feature\tKind\tVertices\tTriangles\n")
			for _, m := range res.Meshes {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", m.Feature, m.Kind, m.VertexCount(), m.TriangleCount())
			}
			w.Flush()

			if stlPath == "" {
				return nil
			}
			if err := sdfx.New().SaveSTL(stlPath, res.Meshes); err != nil {
				return err
			}
			c.log.Info().Str("path", stlPath).Int("meshes", len(res.Meshes)).Msg("wrote STL")
			return nil
		},
	}
	cmd.Flags().StringVar(&stlPath, "stl", "", "write all meshes to this binary STL file")
	return cmd
}
