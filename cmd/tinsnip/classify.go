package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/sketch"
)

func newClassifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <part> <x1> <y1> <x2> <y2>",
		Short: "Check whether a line on the base face can be a fold line",
		Long: `Treat the line through (x1, y1) and (x2, y2), in base-face coordinates,
as infinite and report where it crosses the face. The line qualifies as a
fold line only when it enters and leaves through two different sides.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args[1:] {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("classify: coordinate %q: %w", a, err)
				}
				v[i] = f
			}
			s, _, err := c.loadSnapshot(args[0])
			if err != nil {
				return err
			}
			face := s.BaseFace()
			line := sketch.Line{Start: geom.Pt(v[0], v[1]), End: geom.Pt(v[2], v[3])}
			fl, ok := sketch.ClassifySketchLineAsFold(line, face.Width(), face.Height())
			if !ok {
				return fmt.Errorf("classify: line does not cross the %gx%g face between two sides", face.Width(), face.Height())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fold line (%.3f, %.3f) -> (%.3f, %.3f)\n", fl.Start.X, fl.Start.Y, fl.End.X, fl.End.Y)
			return nil
		},
	}
}
