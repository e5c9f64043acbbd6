package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

const plateSource = `
;; 100x60 plate, one flange on the first edge
(sheet :thickness 1 :k-factor 0.44)
(profile (rect 0 0 100 60))
(flange "f1" :edge "edge_top_0" :height 20 :angle 90 :radius 1)
`

func mustEvaluate(t *testing.T, source string) *EvalResult {
	t.Helper()
	res, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected eval errors: %v", res.Errors)
	}
	if res.Snapshot == nil {
		t.Fatal("expected non-nil snapshot")
	}
	return res
}

func TestEvaluateEmptyString(t *testing.T) {
	for _, src := range []string{"", "   \n\t  \n  "} {
		res, err := NewEngine().Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if res.Snapshot != nil {
			t.Fatal("expected nil snapshot for empty script")
		}
		if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "profile") {
			t.Errorf("expected a single missing-profile error, got %v", res.Errors)
		}
	}
}

func TestEvaluatePlate(t *testing.T) {
	res := mustEvaluate(t, plateSource)
	s := res.Snapshot

	if len(s.Profile) != 4 {
		t.Fatalf("expected 4 profile points, got %d", len(s.Profile))
	}
	if s.Thickness != 1 || s.KFactor != 0.44 {
		t.Errorf("material = (%g, %g), want (1, 0.44)", s.Thickness, s.KFactor)
	}
	if len(s.Flanges) != 1 {
		t.Fatalf("expected 1 flange, got %d", len(s.Flanges))
	}
	f := s.Flanges[0]
	if f.ID != "f1" || f.EdgeID != "edge_top_0" || f.Height != 20 || f.Angle != 90 || f.BendRadius != 1 {
		t.Errorf("unexpected flange %+v", f)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestEvaluateWithoutSheetWarns(t *testing.T) {
	res := mustEvaluate(t, `(profile (rect 0 0 10 10))`)
	if res.Snapshot.Thickness != DefaultConfig().Thickness {
		t.Errorf("thickness = %g, want default %g", res.Snapshot.Thickness, DefaultConfig().Thickness)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "sheet") {
		t.Errorf("expected a sheet warning, got %v", res.Warnings)
	}
}

func TestEvaluateConfigDefaults(t *testing.T) {
	eng := New(Config{Thickness: 2, KFactor: 0.3, BendRadius: 4})
	res, err := eng.Evaluate(`(profile (rect 0 0 50 50)) (flange :edge "edge_top_1" :height 10)`)
	if err != nil || !res.OK() {
		t.Fatalf("evaluate: %v %v", err, res.Errors)
	}
	s := res.Snapshot
	if s.Thickness != 2 || s.KFactor != 0.3 {
		t.Errorf("material = (%g, %g), want (2, 0.3)", s.Thickness, s.KFactor)
	}
	if got := s.Flanges[0]; got.BendRadius != 4 || got.ID != "f1" {
		t.Errorf("flange = %+v, want radius 4 and generated id f1", got)
	}
	if eng.cfg.Timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", eng.cfg.Timeout, DefaultTimeout)
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	source := `
(def w 120)
(def h (* w 0.5))
(profile (rect 0 0 w h))
`
	res := mustEvaluate(t, source)
	b := res.Snapshot.BaseFace()
	if b.Width() != 120 || b.Height() != 60 {
		t.Errorf("face = %gx%g, want 120x60", b.Width(), b.Height())
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	res, err := NewEngine().Evaluate("(profile (rect 0 0 10 10)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res.Snapshot != nil {
		t.Fatal("expected nil snapshot on syntax error")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if res.Errors[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	res, err := NewEngine().Evaluate("(profile (rect 0 0 undefined-width 10))")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res.Snapshot != nil {
		t.Fatal("expected nil snapshot on eval error")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateOpenProfile(t *testing.T) {
	res, err := NewEngine().Evaluate(`(profile (line 0 0 10 0) (line 10 0 10 10))`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if res.OK() {
		t.Fatal("expected an open profile to be rejected")
	}
	if !strings.Contains(res.Errors[0].Message, "closed loop") {
		t.Errorf("unexpected error %q", res.Errors[0].Message)
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	res, err := NewEngine().Evaluate("(sheet :thickness 1)\n(profile (rect 0 0 10 10)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected at least one eval error")
	}
	e := res.Errors[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	// Line info depends on the zygomys error format.
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	source := `(profile (line 0 0 10 0) (line 10 0 10 10) (line 10 10 0 10) (line 0 10 0 0))`

	first, err := eng.Evaluate(source)
	if err != nil || !first.OK() {
		t.Fatalf("evaluate: %v", err)
	}
	for i := 0; i < 5; i++ {
		res, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if !reflect.DeepEqual(first.Snapshot, res.Snapshot) {
			t.Errorf("iteration %d: snapshot differs", i)
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	e := New(Config{Timeout: 50 * time.Millisecond})
	gen := e.begin()
	ch := make(chan outcome) // never sends

	start := time.Now()
	_, err := e.await(ch, gen)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !strings.Contains(err.Error(), "50ms") {
		t.Errorf("expected the timeout in the message, got: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	e := NewEngine()
	stale := e.begin()
	e.begin()

	ch := make(chan outcome, 1)
	ch <- outcome{result: &EvalResult{}}

	if _, err := e.await(ch, stale); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected superseded error, got %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: flange f1: :edge is required", 3, ":edge is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
