package main

import (
	"os"
	"testing"

	"github.com/chazu/tinsnip/pkg/kernel"
)

// evaluateExample runs an example script through the same path the Wails
// Evaluate binding takes, without the Wails runtime.
func evaluateExample(t *testing.T, app *App, name string) EvalResult {
	t.Helper()
	source, err := os.ReadFile("examples/" + name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	return result
}

// TestE2ETrayExample exercises the full pipeline: script → engine →
// snapshot → topology → meshes and flat pattern.
func TestE2ETrayExample(t *testing.T) {
	result := evaluateExample(t, NewApp(), "tray.tinsnip")

	// Expect 5 meshes: base plus four walls.
	if len(result.Meshes) != 5 {
		t.Fatalf("expected 5 meshes, got %d", len(result.Meshes))
	}

	expected := map[string]bool{
		"base":  false,
		"front": false,
		"right": false,
		"back":  false,
		"left":  false,
	}
	for _, m := range result.Meshes {
		if _, ok := expected[m.Feature]; !ok {
			t.Errorf("unexpected feature: %q", m.Feature)
			continue
		}
		expected[m.Feature] = true

		if len(m.Vertices) == 0 {
			t.Errorf("feature %q: no vertices", m.Feature)
		}
		if len(m.Normals) != len(m.Vertices) {
			t.Errorf("feature %q: %d normals for %d vertex floats", m.Feature, len(m.Normals), len(m.Vertices))
		}
		if len(m.Indices) == 0 {
			t.Errorf("feature %q: no indices", m.Feature)
		}
		if m.Color == "" {
			t.Errorf("feature %q: no color assigned", m.Feature)
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("missing mesh for feature %q", name)
		}
	}

	if result.Pattern == nil {
		t.Fatal("expected a flat pattern")
	}
	if n := len(result.Pattern.Regions); n != 5 {
		t.Errorf("expected 5 flat regions, got %d", n)
	}
	if n := len(result.Bends); n != 4 {
		t.Errorf("expected 4 bends, got %d", n)
	}
	if len(result.Unresolved) != 0 {
		t.Errorf("unexpected unresolved features: %v", result.Unresolved)
	}
}

func TestE2EBracketExample(t *testing.T) {
	result := evaluateExample(t, NewApp(), "bracket.tinsnip")

	kinds := map[string]int{}
	for _, m := range result.Meshes {
		kinds[m.Kind]++
	}
	if kinds[string(kernel.MeshFold)] == 0 {
		t.Errorf("expected a fold mesh, got kinds %v", kinds)
	}
	if kinds[string(kernel.MeshFlange)] != 2 {
		t.Errorf("expected 2 flange meshes, got %d", kinds[string(kernel.MeshFlange)])
	}
	if n := len(result.Bends); n != 3 {
		t.Errorf("expected 3 bends, got %d", n)
	}

	var foot bool
	for _, b := range result.Bends {
		if b.Angle < 0 {
			foot = true
		}
	}
	if !foot {
		t.Error("expected the downward foot to have a negative bend angle")
	}
}

func TestE2EPanelExample(t *testing.T) {
	result := evaluateExample(t, NewApp(), "panel.tinsnip")

	// The window plus two sketched screw holes.
	if n := len(result.Pattern.Cutouts); n != 3 {
		t.Errorf("expected 3 cutouts, got %d", n)
	}
	if n := len(result.Meshes); n != 4 {
		t.Errorf("expected 4 meshes, got %d", n)
	}
}

// TestE2EEmptySource ensures the pipeline handles an empty editor gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if result.Pattern != nil {
		t.Error("expected no flat pattern for empty source")
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(profile (rect 0 0 10 10)")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESinglePlate ensures a bare profile renders one base mesh.
func TestE2ESinglePlate(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(profile (rect 0 0 600 300))`)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].Feature != "base" {
		t.Errorf("expected feature 'base', got %q", result.Meshes[0].Feature)
	}
	// A sheet form is missing, so defaults apply with a warning.
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the missing sheet form")
	}
}
