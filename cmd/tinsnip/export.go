package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/config"
	"github.com/chazu/tinsnip/pkg/export"
	"github.com/chazu/tinsnip/pkg/unfold"
)

func newExportCmd(c *cli) *cobra.Command {
	var format, output, dxfVersion string
	cmd := &cobra.Command{
		Use:   "export <part>",
		Short: "Export the flat pattern of a part",
		Long: `Export the flat pattern as svg, dxf, csv (bend table), pdf or png.
Without --output, text formats are written to stdout. The format defaults
to the extension of --output.

Examples:
  tinsnip export examples/tray.tinsnip -o tray.dxf
  tinsnip export examples/tray.tinsnip -f csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := c.computeFile(args[0])
			if err != nil {
				return err
			}
			return c.writeExport(cmd.OutOrStdout(), res.Pattern, format, output, dxfVersion)
		},
	}
	addExportFlags(cmd, &format, &output, &dxfVersion)
	return cmd
}

func addExportFlags(cmd *cobra.Command, format, output, dxfVersion *string) {
	cmd.Flags().StringVarP(format, "format", "f", "", "svg, dxf, csv, pdf or png")
	cmd.Flags().StringVarP(output, "output", "o", "", "output file")
	cmd.Flags().StringVar(dxfVersion, "dxf-version", "", "r12 or 2000 (default from config)")
}

// writeExport encodes p and writes it to output, or to stdout when output
// is empty.
func (c *cli) writeExport(stdout io.Writer, p unfold.FlatPattern, format, output, dxfVersion string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	format = strings.ToLower(format)
	if dxfVersion == "" {
		dxfVersion = c.cfg.Export.DXFVersion
	}
	opts := c.cfg.ExportOptions()

	var buf bytes.Buffer
	switch format {
	case "svg":
		export.WriteSVG(&buf, p, opts)
	case "dxf":
		if dxfVersion == config.DXF2000 {
			if output == "" {
				return fmt.Errorf("export: dxf 2000 needs --output")
			}
			if err := export.SaveDXF2000(p, output); err != nil {
				return err
			}
			c.log.Info().Str("format", "dxf2000").Str("path", output).Msg("exported")
			return nil
		}
		buf.WriteString(export.DXF(p))
	case "csv":
		s, err := export.CSV(p)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case "pdf":
		if err := export.PDF(&buf, p, opts); err != nil {
			return err
		}
	case "png":
		if err := export.WritePreview(&buf, p, "png", opts); err != nil {
			return err
		}
	case "":
		return fmt.Errorf("export: no format: pass --format or an --output with an extension")
	default:
		return fmt.Errorf("export: unknown format %q", format)
	}

	if output == "" {
		if format == "pdf" || format == "png" {
			return fmt.Errorf("export: %s is binary, pass --output", format)
		}
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", output, err)
	}
	c.log.Info().Str("format", format).Str("path", output).Int("bytes", buf.Len()).Msg("exported")
	return nil
}
