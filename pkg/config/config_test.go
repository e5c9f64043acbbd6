package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tinsnip.json5")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 1.0, c.Thickness)
	assert.Equal(t, 0.44, c.KFactor)
	assert.Equal(t, 1.0, c.BendRadius)
	assert.Equal(t, "tinsnip.db", c.DBPath)
	assert.Equal(t, 5, c.EvalTimeoutSec)
	assert.Equal(t, DXFR12, c.Export.DXFVersion)
	assert.Equal(t, 10.0, c.Export.MarginMM)
	assert.NoError(t, c.validate())
}

func TestLoadJSON5(t *testing.T) {
	path := writeConfig(t, `{
		// 1.5 mm aluminium
		thickness: 1.5,
		k_factor: 0.33,
		db_path: "/tmp/parts.db",
		log_level: "debug",
		export: {
			margin_mm: 5,
			dxf_version: "2000",
		},
	}`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, c.Thickness)
	assert.Equal(t, 0.33, c.KFactor)
	assert.Equal(t, 1.0, c.BendRadius)
	assert.Equal(t, "/tmp/parts.db", c.DBPath)
	assert.Equal(t, zerolog.DebugLevel, c.Level())
	assert.Equal(t, 5.0, c.Export.MarginMM)
	assert.Equal(t, 160.0, c.Export.PreviewWidthMM)
	assert.Equal(t, DXF2000, c.Export.DXFVersion)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{not json`))
	assert.Error(t, err)
}

func TestValidateAggregatesProblems(t *testing.T) {
	path := writeConfig(t, `{k_factor: 2, log_level: "loud", export: {dxf_version: "r14"}}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k_factor")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "dxf_version")
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvVar, "")
	c, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	path := writeConfig(t, `{thickness: 2}`)
	t.Setenv(EnvVar, path)
	c, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Thickness)

	other := writeConfig(t, `{thickness: 3}`)
	c, err = Resolve(other)
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.Thickness)
}

func TestConversions(t *testing.T) {
	c := Default()
	c.EvalTimeoutSec = 2
	ec := c.EngineConfig()
	assert.Equal(t, 2*time.Second, ec.Timeout)
	assert.Equal(t, c.KFactor, ec.KFactor)

	opts := c.ExportOptions()
	assert.Equal(t, c.Export.PreviewHeightMM, opts.PreviewHeight)
}
