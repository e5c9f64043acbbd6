package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/unfold"
)

// dxfWriter emits DXF group-code/value pairs.
type dxfWriter struct {
	sb strings.Builder
}

func (w *dxfWriter) pair(code int, value string) {
	fmt.Fprintf(&w.sb, "%d\n%s\n", code, value)
}

func (w *dxfWriter) num(code int, v float64) {
	w.pair(code, strconv.FormatFloat(v, 'f', 6, 64))
}

func (w *dxfWriter) layer(name string, colour int) {
	w.pair(0, "LAYER")
	w.pair(2, name)
	w.pair(70, "0")
	w.pair(62, strconv.Itoa(colour))
	w.pair(6, "CONTINUOUS")
}

func (w *dxfWriter) line(layer string, a, b geom.Point2D) {
	w.pair(0, "LINE")
	w.pair(8, layer)
	w.num(10, a.X)
	w.num(20, a.Y)
	w.num(30, 0)
	w.num(11, b.X)
	w.num(21, b.Y)
	w.num(31, 0)
}

func (w *dxfWriter) circle(layer string, c geom.Point2D, r float64) {
	w.pair(0, "CIRCLE")
	w.pair(8, layer)
	w.num(10, c.X)
	w.num(20, c.Y)
	w.num(30, 0)
	w.num(40, r)
}

// DXF renders p as an AutoCAD R12 ASCII drawing with an OUTLINE layer for
// cut edges and a BEND layer for bend lines. Circular cutouts are CIRCLE
// entities; everything else is LINE segments.
func DXF(p unfold.FlatPattern) string {
	var w dxfWriter
	w.pair(0, "SECTION")
	w.pair(2, "HEADER")
	w.pair(9, "$ACADVER")
	w.pair(1, "AC1009")
	w.pair(0, "ENDSEC")

	w.pair(0, "SECTION")
	w.pair(2, "TABLES")
	w.pair(0, "TABLE")
	w.pair(2, "LAYER")
	w.pair(70, "2")
	w.layer(LayerOutline, 7)
	w.layer(LayerBend, 1)
	w.pair(0, "ENDTAB")
	w.pair(0, "ENDSEC")

	w.pair(0, "SECTION")
	w.pair(2, "ENTITIES")
	for _, poly := range outlines(p) {
		for i := range poly {
			a, b := poly.Edge(i)
			w.line(LayerOutline, a, b)
		}
	}
	for _, c := range circles(p) {
		w.circle(LayerOutline, c.Center, c.Radius)
	}
	for _, b := range p.BendLines {
		w.line(LayerBend, b.Start, b.End)
	}
	w.pair(0, "ENDSEC")
	w.pair(0, "EOF")
	return w.sb.String()
}

// SaveDXF2000 writes p to path as a DXF 2000 drawing with the same layers
// as DXF.
func SaveDXF2000(p unfold.FlatPattern, path string) error {
	d := dxf.NewDrawing()
	d.AddLayer(LayerOutline, dxf.DefaultColor, dxf.DefaultLineType, true)
	d.AddLayer(LayerBend, color.Red, dxf.DefaultLineType, false)

	if err := d.ChangeLayer(LayerOutline); err != nil {
		return fmt.Errorf("export: dxf layer: %w", err)
	}
	for _, poly := range outlines(p) {
		for i := range poly {
			a, b := poly.Edge(i)
			if _, err := d.Line(a.X, a.Y, 0, b.X, b.Y, 0); err != nil {
				return fmt.Errorf("export: dxf outline: %w", err)
			}
		}
	}
	for _, c := range circles(p) {
		if _, err := d.Circle(c.Center.X, c.Center.Y, 0, c.Radius); err != nil {
			return fmt.Errorf("export: dxf cutout: %w", err)
		}
	}

	if err := d.ChangeLayer(LayerBend); err != nil {
		return fmt.Errorf("export: dxf layer: %w", err)
	}
	for _, b := range p.BendLines {
		if _, err := d.Line(b.Start.X, b.Start.Y, 0, b.End.X, b.End.Y, 0); err != nil {
			return fmt.Errorf("export: dxf bend line: %w", err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
