package export

import (
	"fmt"
	"io"
	"math"

	"codeberg.org/go-pdf/fpdf"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/unfold"
)

// A4 portrait in millimeters.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	drawHeight = 170.0
)

// pdfMap fits the pattern bounds into the drawing area at the top of the
// page, keeping aspect ratio and flipping Y.
type pdfMap struct {
	box    geom.BBox
	scale  float64
	left   float64
	bottom float64
}

func newPDFMap(p unfold.FlatPattern, margin float64) pdfMap {
	box := p.BoundingBox
	if box.IsEmpty() {
		box = geom.BBox{Max: geom.Pt(1, 1)}
	}
	areaW := pageWidth - 2*margin
	areaH := drawHeight - margin
	scale := math.Min(areaW/math.Max(box.Width(), geom.Epsilon), areaH/math.Max(box.Height(), geom.Epsilon))
	scale = math.Min(scale, 1)
	return pdfMap{
		box:    box,
		scale:  scale,
		left:   margin + (areaW-box.Width()*scale)/2,
		bottom: margin + areaH,
	}
}

func (m pdfMap) at(p geom.Point2D) (float64, float64) {
	return m.left + (p.X-m.box.Min.X)*m.scale, m.bottom - (p.Y-m.box.Min.Y)*m.scale
}

// PDF writes a single A4 page to w: the pattern drawn to fit the upper part
// of the page (1:1 when it fits) and the bend table below it. Long tables
// are set in smaller rows rather than spilling onto a second page.
func PDF(w io.Writer, p unfold.FlatPattern, opts Options) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Flat pattern", true)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	m := newPDFMap(p, opts.Margin)

	doc.SetFont("Helvetica", "B", 12)
	doc.Text(opts.Margin, opts.Margin-3, fmt.Sprintf("Flat pattern %.2f x %.2f mm (scale %.3g)", p.OverallWidth, p.OverallHeight, m.scale))

	doc.SetDrawColor(0, 0, 0)
	doc.SetLineWidth(0.3)
	for _, poly := range outlines(p) {
		pts := make([]fpdf.PointType, len(poly))
		for i, v := range poly {
			x, y := m.at(v)
			pts[i] = fpdf.PointType{X: x, Y: y}
		}
		doc.Polygon(pts, "D")
	}
	for _, c := range circles(p) {
		x, y := m.at(c.Center)
		doc.Circle(x, y, c.Radius*m.scale, "D")
	}

	doc.SetDrawColor(208, 48, 48)
	doc.SetLineWidth(0.2)
	doc.SetDashPattern([]float64{2, 1}, 0)
	doc.SetFont("Helvetica", "", 8)
	doc.SetTextColor(208, 48, 48)
	for i, b := range p.BendLines {
		x1, y1 := m.at(b.Start)
		x2, y2 := m.at(b.End)
		doc.Line(x1, y1, x2, y2)
		if i%2 == 1 {
			mx, my := m.at(b.Start.Lerp(b.End, 0.5))
			doc.Text(mx+1, my-1, b.Label)
		}
	}
	doc.SetDashPattern([]float64{}, 0)
	doc.SetTextColor(0, 0, 0)

	writeBendTable(doc, BendTable(p), opts.Margin, drawHeight+10)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("export: pdf: %w", err)
	}
	return nil
}

// Bend table row heights in millimeters.
const (
	headerRow = 7.0
	tableRow  = 6.0
)

// bendRowHeight shrinks the table rows so n of them fit between top and
// bottom below the header row.
func bendRowHeight(n int, top, bottom float64) float64 {
	if n == 0 {
		return tableRow
	}
	return math.Min(tableRow, (bottom-top-headerRow)/float64(n))
}

func writeBendTable(doc *fpdf.Fpdf, rows []BendRow, left, top float64) {
	widths := []float64{25, 30, 30, 30, 35}
	rowH := bendRowHeight(len(rows), top, pageHeight-left)
	doc.SetXY(left, top)
	doc.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Bend", "Angle (°)", "Radius", "Direction", "Length"} {
		doc.CellFormat(widths[i], headerRow, doc.UnicodeTranslatorFromDescriptor("")(h), "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)
	// Font size follows the row height: 10pt in a 6mm row.
	doc.SetFont("Helvetica", "", 10*rowH/tableRow)
	for _, r := range rows {
		doc.SetX(left)
		cells := []string{
			r.Label,
			fmt.Sprintf("%.1f", r.Angle),
			fmt.Sprintf("%.2f", r.Radius),
			string(r.Direction),
			fmt.Sprintf("%.2f", r.Length),
		}
		for i, c := range cells {
			doc.CellFormat(widths[i], rowH, c, "1", 0, "R", false, 0, "")
		}
		doc.Ln(-1)
	}
}
