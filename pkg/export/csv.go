package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/chazu/tinsnip/pkg/unfold"
)

var csvHeader = []string{"label", "angle", "radius", "direction", "length"}

// CSV renders the bend table of p with a header row.
func CSV(p unfold.FlatPattern) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("export: csv: %w", err)
	}
	for _, r := range BendTable(p) {
		rec := []string{
			r.Label,
			strconv.FormatFloat(r.Angle, 'f', 1, 64),
			strconv.FormatFloat(r.Radius, 'f', 2, 64),
			string(r.Direction),
			strconv.FormatFloat(r.Length, 'f', 2, 64),
		}
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("export: csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: csv: %w", err)
	}
	return buf.String(), nil
}
