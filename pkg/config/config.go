// Package config loads tinsnip's JSON5 configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/titanous/json5"

	"github.com/chazu/tinsnip/pkg/engine"
	"github.com/chazu/tinsnip/pkg/export"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "TINSNIP_CONFIG"

// DXF versions accepted by export.dxf_version.
const (
	DXFR12  = "r12"
	DXF2000 = "2000"
)

// ExportConfig holds the export defaults.
type ExportConfig struct {
	MarginMM        float64 `json:"margin_mm"`
	PreviewWidthMM  float64 `json:"preview_width_mm"`
	PreviewHeightMM float64 `json:"preview_height_mm"`
	DXFVersion      string  `json:"dxf_version"`
}

// Config holds tinsnip's runtime configuration.
type Config struct {
	Thickness      float64      `json:"thickness"`
	KFactor        float64      `json:"k_factor"`
	BendRadius     float64      `json:"bend_radius"`
	DBPath         string       `json:"db_path"`
	EvalTimeoutSec int          `json:"eval_timeout_sec"`
	LogLevel       string       `json:"log_level"`
	Export         ExportConfig `json:"export"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads a JSON5 config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve loads the file named by path, falling back to $TINSNIP_CONFIG and
// then to Default.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	def := engine.DefaultConfig()
	if c.Thickness == 0 {
		c.Thickness = def.Thickness
	}
	if c.KFactor == 0 {
		c.KFactor = def.KFactor
	}
	if c.BendRadius == 0 {
		c.BendRadius = def.BendRadius
	}
	if c.DBPath == "" {
		c.DBPath = "tinsnip.db"
	}
	if c.EvalTimeoutSec == 0 {
		c.EvalTimeoutSec = int(engine.DefaultTimeout / time.Second)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	opts := export.DefaultOptions()
	if c.Export.MarginMM == 0 {
		c.Export.MarginMM = opts.Margin
	}
	if c.Export.PreviewWidthMM == 0 {
		c.Export.PreviewWidthMM = opts.PreviewWidth
	}
	if c.Export.PreviewHeightMM == 0 {
		c.Export.PreviewHeightMM = opts.PreviewHeight
	}
	if c.Export.DXFVersion == "" {
		c.Export.DXFVersion = DXFR12
	}
	c.Export.DXFVersion = strings.ToLower(c.Export.DXFVersion)
}

func (c *Config) validate() error {
	var problems []string

	if c.Thickness < 0 {
		problems = append(problems, "thickness must be positive")
	}
	if c.KFactor < 0 || c.KFactor > 1 {
		problems = append(problems, "k_factor must be in [0, 1]")
	}
	if c.BendRadius < 0 {
		problems = append(problems, "bend_radius must be positive")
	}
	if c.EvalTimeoutSec < 0 {
		problems = append(problems, "eval_timeout_sec must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is not a level", c.LogLevel))
	}
	if c.Export.MarginMM < 0 {
		problems = append(problems, "export.margin_mm must not be negative")
	}
	if c.Export.PreviewWidthMM < 0 || c.Export.PreviewHeightMM < 0 {
		problems = append(problems, "export preview size must be positive")
	}
	if c.Export.DXFVersion != DXFR12 && c.Export.DXFVersion != DXF2000 {
		problems = append(problems, fmt.Sprintf("export.dxf_version %q must be r12 or 2000", c.Export.DXFVersion))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the configured zerolog level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// EngineConfig returns the script evaluator settings.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Thickness:  c.Thickness,
		KFactor:    c.KFactor,
		BendRadius: c.BendRadius,
		Timeout:    time.Duration(c.EvalTimeoutSec) * time.Second,
	}
}

// ExportOptions returns the export settings.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Margin:        c.Export.MarginMM,
		PreviewWidth:  c.Export.PreviewWidthMM,
		PreviewHeight: c.Export.PreviewHeightMM,
	}
}
