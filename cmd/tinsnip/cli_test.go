package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/tinsnip/pkg/config"
)

const tray = "../../examples/tray.tinsnip"

// setup points the CLI at a config whose database lives in a temp dir.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "tinsnip.json5")
	content := fmt.Sprintf("{db_path: %q, log_level: \"warn\"}", filepath.Join(dir, "history.db"))
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))
	t.Setenv(config.EnvVar, cfg)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tinsnip v"+Version)
}

func TestUnfoldScript(t *testing.T) {
	setup(t)
	out, err := run(t, "unfold", tray)
	require.NoError(t, err)
	assert.Contains(t, out, "FLAT PATTERN:")
	assert.Contains(t, out, "Regions:")
	assert.Contains(t, out, "B4")
	assert.Contains(t, out, "front")
}

func TestUnfoldJSONSnapshot(t *testing.T) {
	dir := setup(t)
	snap := writeFile(t, dir, "plate.json5", `{
		// 100x60 plate with one flange
		profile: [{x: 0, y: 0}, {x: 100, y: 0}, {x: 100, y: 60}, {x: 0, y: 60}],
		thickness: 1,
		kFactor: 0.44,
		flanges: [
			{id: "f1", edgeId: "edge_top_0", height: 20, angle: 90, direction: "up", bendRadius: 1},
		],
		faceSketches: [
			{faceId: "base", entities: [{type: "circle", id: "c1", center: {x: 50, y: 30}, radius: 4}]},
		],
	}`)
	out, err := run(t, "unfold", snap, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"bendLines"`)
	assert.Contains(t, out, `"label": "B1"`)
	assert.Contains(t, out, `"type": "circle"`)
}

func TestUnfoldErrors(t *testing.T) {
	dir := setup(t)
	_, err := run(t, "unfold", filepath.Join(dir, "missing.tinsnip"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.tinsnip", `(sheet :thickness 1)`)
	_, err = run(t, "unfold", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile")

	invalid := writeFile(t, dir, "thin.tinsnip", `(sheet :thickness -1) (profile (rect 0 0 10 10))`)
	_, err = run(t, "unfold", invalid)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "export", tray, "-f", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5)

	svg := filepath.Join(dir, "tray.svg")
	_, err = run(t, "export", tray, "-o", svg)
	require.NoError(t, err)
	data, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	out, err = run(t, "export", tray, "-f", "dxf")
	require.NoError(t, err)
	assert.Contains(t, out, "AC1009")

	dxf := filepath.Join(dir, "tray.dxf")
	_, err = run(t, "export", tray, "-o", dxf, "--dxf-version", "2000")
	require.NoError(t, err)
	assert.FileExists(t, dxf)

	pdf := filepath.Join(dir, "tray.pdf")
	_, err = run(t, "export", tray, "-o", pdf)
	require.NoError(t, err)
	data, err = os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = run(t, "export", tray, "-f", "png")
	assert.Error(t, err, "binary formats need an output file")
	_, err = run(t, "export", tray)
	assert.Error(t, err, "no format given")
}

func TestMeshSTL(t *testing.T) {
	dir := setup(t)
	stl := filepath.Join(dir, "tray.stl")
	out, err := run(t, "mesh", tray, "--stl", stl)
	require.NoError(t, err)
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "flange")
	info, err := os.Stat(stl)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(84))
}

func TestEdges(t *testing.T) {
	setup(t)
	out, err := run(t, "edges", tray)
	require.NoError(t, err)
	assert.Contains(t, out, "edge_top_0")
	assert.Contains(t, out, "flange_tip_outer_front")
	assert.Contains(t, out, "flange_tip_inner_front")
}

func TestClassify(t *testing.T) {
	setup(t)
	out, err := run(t, "classify", tray, "0", "40", "120", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "(0.000, 40.000) -> (120.000, 40.000)")

	_, err = run(t, "classify", tray, "0", "0", "10", "0")
	assert.Error(t, err)
	_, err = run(t, "classify", tray, "a", "0", "10", "0")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	dir := setup(t)
	v1 := writeFile(t, dir, "v1.tinsnip", `(profile (rect 0 0 100 60)) (flange "f1" :edge (edge 0) :height 20)`)
	v2 := writeFile(t, dir, "v2.tinsnip", `(profile (rect 0 0 100 60)) (flange "f1" :edge (edge 0) :height 30)`)

	out, err := run(t, "history", "save", "plate", v1, "-m", "first")
	require.NoError(t, err)
	assert.Contains(t, out, "plate revision 1")

	out, err = run(t, "history", "save", "plate", v2, "-m", "taller")
	require.NoError(t, err)
	assert.Contains(t, out, "plate revision 2")

	// Saving unchanged content does not add a revision.
	out, err = run(t, "history", "save", "plate", v2)
	require.NoError(t, err)
	assert.Contains(t, out, "plate revision 2")

	out, err = run(t, "history", "list", "plate")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "taller")

	out, err = run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "plate")

	out, err = run(t, "history", "show", "plate", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"height": 20`)

	out, err = run(t, "history", "export", "plate", "1", "-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "B1")

	_, err = run(t, "history", "show", "plate", "9")
	assert.Error(t, err)
}
