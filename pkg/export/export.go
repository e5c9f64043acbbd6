// Package export encodes a flat pattern for manufacturing: SVG and DXF
// drawings, a bend table as CSV, a printable PDF sheet and a plotted
// preview image. Encoders assume a well-formed pattern and do not check
// winding or self-intersection.
package export

import (
	"github.com/samber/lo"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
	"github.com/chazu/tinsnip/pkg/unfold"
)

// Layer names shared by the DXF encoders.
const (
	LayerOutline = "OUTLINE"
	LayerBend    = "BEND"
)

// Options controls page layout. Lengths are millimeters.
type Options struct {
	Margin        float64
	PreviewWidth  float64
	PreviewHeight float64
}

// DefaultOptions returns the layout used when no configuration is given.
func DefaultOptions() Options {
	return Options{Margin: 10, PreviewWidth: 160, PreviewHeight: 120}
}

// BendRow is one line of the bend table.
type BendRow struct {
	Label     string         `json:"label"`
	Angle     float64        `json:"angle"`
	Radius    float64        `json:"radius"`
	Direction part.Direction `json:"direction"`
	Length    float64        `json:"length"`
}

// BendTable returns one row per bend, read from the second line of each
// bend-line pair. Direction comes from the sign of the angle only.
func BendTable(p unfold.FlatPattern) []BendRow {
	return lo.Map(p.Bends(), func(b unfold.BendLine, _ int) BendRow {
		dir := part.Down
		if b.Angle > 0 {
			dir = part.Up
		}
		return BendRow{Label: b.Label, Angle: b.Angle, Radius: b.Radius, Direction: dir, Length: b.Length()}
	})
}

// outlines returns every closed loop to cut: region outlines then cutouts.
func outlines(p unfold.FlatPattern) []geom.Polygon {
	polys := lo.Map(p.Regions, func(r unfold.FlatRegion, _ int) geom.Polygon { return r.Polygon })
	for _, c := range p.Cutouts {
		if c.Kind != sketch.CutoutCircle {
			polys = append(polys, c.Polygon)
		}
	}
	return polys
}

func circles(p unfold.FlatPattern) []sketch.Cutout {
	return lo.Filter(p.Cutouts, func(c sketch.Cutout, _ int) bool { return c.Kind == sketch.CutoutCircle })
}

// frame returns the pattern bounds grown by margin. An empty pattern gets a
// margin-sized frame around the origin.
func frame(p unfold.FlatPattern, margin float64) geom.BBox {
	b := p.BoundingBox
	if b.IsEmpty() {
		b = geom.BBox{}
	}
	return b.Expand(margin)
}
