package export

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/unfold"
)

var (
	outlineColor = color.RGBA{A: 255}
	fillColor    = color.RGBA{R: 200, G: 210, B: 225, A: 255}
	bendColor    = color.RGBA{R: 208, G: 48, B: 48, A: 255}
)

func xys(poly geom.Polygon) plotter.XYs {
	pts := make(plotter.XYs, len(poly))
	for i, v := range poly {
		pts[i].X, pts[i].Y = v.X, v.Y
	}
	return pts
}

// previewPlot builds the plot shared by Preview and WritePreview: filled
// regions, cutouts, dashed bend lines and one label per bend, with equal
// axis ranges so the pattern is not distorted.
func previewPlot(p unfold.FlatPattern, opts Options) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Flat pattern %.2f x %.2f mm", p.OverallWidth, p.OverallHeight)
	pl.X.Label.Text = "mm"
	pl.Y.Label.Text = "mm"

	for _, r := range p.Regions {
		poly, err := plotter.NewPolygon(xys(r.Polygon))
		if err != nil {
			return nil, fmt.Errorf("export: preview region %s: %w", r.ID, err)
		}
		poly.Color = fillColor
		poly.LineStyle.Color = outlineColor
		poly.LineStyle.Width = vg.Points(0.8)
		pl.Add(poly)
	}
	for _, c := range p.Cutouts {
		poly, err := plotter.NewPolygon(xys(c.Polygon))
		if err != nil {
			return nil, fmt.Errorf("export: preview cutout: %w", err)
		}
		poly.Color = color.White
		poly.LineStyle.Color = outlineColor
		pl.Add(poly)
	}

	var (
		labelAt plotter.XYs
		labels  []string
	)
	for i, b := range p.BendLines {
		ln, err := plotter.NewLine(xys(geom.Polygon{b.Start, b.End}))
		if err != nil {
			return nil, fmt.Errorf("export: preview bend %s: %w", b.Label, err)
		}
		ln.LineStyle.Color = bendColor
		ln.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		pl.Add(ln)
		if i%2 == 1 {
			mid := b.Start.Lerp(b.End, 0.5)
			labelAt = append(labelAt, plotter.XY{X: mid.X, Y: mid.Y})
			labels = append(labels, b.Label)
		}
	}
	if len(labels) > 0 {
		lb, err := plotter.NewLabels(plotter.XYLabels{XYs: labelAt, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("export: preview labels: %w", err)
		}
		pl.Add(lb)
	}

	box := frame(p, opts.Margin)
	side := max(box.Width(), box.Height())
	cx, cy := (box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2
	pl.X.Min, pl.X.Max = cx-side/2, cx+side/2
	pl.Y.Min, pl.Y.Max = cy-side/2, cy+side/2
	return pl, nil
}

// Preview saves a plot of p to path. The image format follows the file
// extension (png, svg, pdf, ...).
func Preview(p unfold.FlatPattern, path string, opts Options) error {
	pl, err := previewPlot(p, opts)
	if err != nil {
		return err
	}
	w, h := vg.Length(opts.PreviewWidth)*vg.Millimeter, vg.Length(opts.PreviewHeight)*vg.Millimeter
	if err := pl.Save(w, h, path); err != nil {
		return fmt.Errorf("export: preview %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WritePreview writes a plot of p in the given format ("png", "svg") to w.
func WritePreview(w io.Writer, p unfold.FlatPattern, format string, opts Options) error {
	pl, err := previewPlot(p, opts)
	if err != nil {
		return err
	}
	wt, err := pl.WriterTo(vg.Length(opts.PreviewWidth)*vg.Millimeter, vg.Length(opts.PreviewHeight)*vg.Millimeter, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("export: preview: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("export: preview: %w", err)
	}
	return nil
}
