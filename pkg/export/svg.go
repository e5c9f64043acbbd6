package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/unfold"
)

// svgScale is the number of SVG user units per millimeter. svgo takes
// integer coordinates, so drawings are laid out in hundredths of a mm.
const svgScale = 100

const (
	outlineStyle = "fill:none;stroke:#000000;stroke-width:25"
	bendStyle    = "stroke:#d03030;stroke-width:20;stroke-dasharray:200,100"
	labelStyle   = "font-family:sans-serif;font-size:350;fill:#d03030;text-anchor:middle"
)

func su(v float64) int { return int(math.Round(v * svgScale)) }

// svgPoint maps pattern coordinates (Y up) to SVG coordinates (Y down).
func svgPoint(p geom.Point2D) (int, int) { return su(p.X), su(-p.Y) }

// SVG renders p as an SVG document sized in millimeters.
func SVG(p unfold.FlatPattern, opts Options) string {
	var buf bytes.Buffer
	WriteSVG(&buf, p, opts)
	return buf.String()
}

// WriteSVG writes the SVG document for p to w. The viewBox covers the
// pattern bounds plus opts.Margin; regions and non-circular cutouts are
// closed paths, bend lines are dashed and every bend is labelled once.
func WriteSVG(w io.Writer, p unfold.FlatPattern, opts Options) {
	box := frame(p, opts.Margin)
	canvas := svg.New(w)
	canvas.StartviewUnit(
		int(math.Ceil(box.Width())), int(math.Ceil(box.Height())), "mm",
		su(box.Min.X), su(-box.Max.Y), su(box.Width()), su(box.Height()),
	)

	canvas.Gid("outline")
	for _, poly := range outlines(p) {
		canvas.Path(pathData(poly), outlineStyle)
	}
	for _, c := range circles(p) {
		x, y := svgPoint(c.Center)
		canvas.Circle(x, y, su(c.Radius), outlineStyle)
	}
	canvas.Gend()

	canvas.Gid("bends")
	for i, b := range p.BendLines {
		x1, y1 := svgPoint(b.Start)
		x2, y2 := svgPoint(b.End)
		canvas.Line(x1, y1, x2, y2, bendStyle)
		if i%2 == 1 {
			mx, my := svgPoint(b.Start.Lerp(b.End, 0.5))
			canvas.Text(mx, my-su(1), fmt.Sprintf("%s %+.0f°", b.Label, b.Angle), labelStyle)
		}
	}
	canvas.Gend()
	canvas.End()
}

func pathData(poly geom.Polygon) string {
	var sb strings.Builder
	for i, v := range poly {
		x, y := svgPoint(v)
		if i == 0 {
			fmt.Fprintf(&sb, "M%d %d", x, y)
			continue
		}
		fmt.Fprintf(&sb, " L%d %d", x, y)
	}
	sb.WriteString(" Z")
	return sb.String()
}
