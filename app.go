package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/chazu/tinsnip/pkg/compute"
	"github.com/chazu/tinsnip/pkg/config"
	"github.com/chazu/tinsnip/pkg/engine"
	"github.com/chazu/tinsnip/pkg/export"
	"github.com/chazu/tinsnip/pkg/geom"
	"github.com/chazu/tinsnip/pkg/kernel"
	"github.com/chazu/tinsnip/pkg/kernel/sdfx"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/sketch"
	"github.com/chazu/tinsnip/pkg/store"
	"github.com/chazu/tinsnip/pkg/topology"
	"github.com/chazu/tinsnip/pkg/unfold"
)

// colorPalette is a default palette used to assign distinct colors to features.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	engine *engine.Engine
	kernel kernel.Kernel
	log    zerolog.Logger

	mu       sync.Mutex
	snapshot *part.Snapshot
	result   *compute.Result
	source   string
	history  *store.Revisions
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Feature  string    `json:"feature"`
	Kind     string    `json:"kind"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Feature string `json:"feature,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes     []MeshData            `json:"meshes"`
	Edges      []topology.PartEdge   `json:"edges"`
	Pattern    *unfold.FlatPattern   `json:"flatPattern"`
	Bends      []export.BendRow      `json:"bends"`
	Unresolved []topology.Unresolved `json:"unresolved"`
	Errors     []EvalErrorData       `json:"errors"`
	Warnings   []EvalErrorData       `json:"warnings"`
}

func newEvalResult() EvalResult {
	return EvalResult{
		Meshes:     []MeshData{},
		Edges:      []topology.PartEdge{},
		Bends:      []export.BendRow{},
		Unresolved: []topology.Unresolved{},
		Errors:     []EvalErrorData{},
		Warnings:   []EvalErrorData{},
	}
}

// ExportData is an exported file. Binary formats are base64 encoded.
type ExportData struct {
	Format   string `json:"format"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Base64   bool   `json:"base64"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(config.Default())
}

// NewAppWithConfig creates an App with an engine and the sdfx kernel.
func NewAppWithConfig(cfg *config.Config) *App {
	return &App{
		cfg:    cfg,
		engine: engine.New(cfg.EngineConfig()),
		kernel: sdfx.New(),
		log:    zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(cfg.Level()).With().Timestamp().Logger(),
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown closes the revision store if it was opened.
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Error().Err(err).Msg("close revision store")
		}
		a.history = nil
	}
}

// Evaluate takes a part script and returns meshes, edges, the flat pattern
// and errors. This is the primary binding called by the frontend editor.
// An empty editor yields an empty result rather than an error.
func (a *App) Evaluate(source string) EvalResult {
	result := newEvalResult()
	if strings.TrimSpace(source) == "" {
		a.remember(nil, nil, source)
		return result
	}

	// Step 1: Evaluate the script into a snapshot.
	res, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, superseded)
		if errors.Is(err, engine.ErrSuperseded) {
			// The newer evaluation owns the stored state.
			a.log.Debug().Msg("evaluation superseded")
		} else {
			a.log.Error().Err(err).Msg("evaluate")
			a.remember(nil, nil, source)
		}
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Feature: w.Feature, Message: w.Message})
	}

	// Step 2: Convert eval errors to the frontend format.
	if !res.OK() {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		a.remember(nil, nil, source)
		return result
	}

	// Step 3: Run the engine on the snapshot.
	a.computeInto(&result, *res.Snapshot, source)
	return result
}

// Compute runs the engine on a snapshot given as JSON, the form the sketch
// editor sends.
func (a *App) Compute(snapshotJSON string) EvalResult {
	result := newEvalResult()
	var s part.Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &s); err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "decode snapshot: " + err.Error()})
		a.remember(nil, nil, "")
		return result
	}
	a.computeInto(&result, s, "")
	return result
}

// computeInto fills result from s and stores it for Export. A failed
// computation clears the stored part so Export never serves a stale pattern.
func (a *App) computeInto(result *EvalResult, s part.Snapshot, source string) {
	res, err := compute.Compute(s, a.kernel)
	if err != nil {
		a.remember(nil, nil, source)
		var invalid *compute.InvalidSnapshotError
		if errors.As(err, &invalid) {
			for _, v := range invalid.Errors {
				a.log.Warn().Str("feature", v.Feature).Msg(v.Message)
				result.Errors = append(result.Errors, EvalErrorData{Feature: v.Feature, Message: v.Message})
			}
			return
		}
		a.log.Error().Err(err).Msg("compute")
		result.Errors = append(result.Errors, EvalErrorData{Message: "compute failed: " + err.Error()})
		return
	}

	for _, v := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Feature: v.Feature, Message: v.Message})
	}
	for _, u := range res.Unresolved {
		a.log.Warn().Str("feature", u.Feature).Str("parent", u.Parent).Str("reason", string(u.Reason)).Msg("unresolved feature")
	}

	// Convert kernel meshes to the frontend MeshData format.
	for i, m := range res.Meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Feature:  m.Feature,
			Kind:     string(m.Kind),
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	result.Edges = append(result.Edges, res.Edges...)
	result.Unresolved = append(result.Unresolved, res.Unresolved...)
	result.Pattern = &res.Pattern
	result.Bends = append(result.Bends, export.BendTable(res.Pattern)...)

	a.remember(&s, res, source)
}

func (a *App) remember(s *part.Snapshot, res *compute.Result, source string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot, a.result, a.source = s, res, source
}

func (a *App) current() (*part.Snapshot, *compute.Result, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot, a.result, a.source
}

// Export encodes the flat pattern of the last evaluation, which must have
// succeeded.
// Formats: svg, dxf, dxf2000, csv, pdf, png.
func (a *App) Export(format string) (ExportData, error) {
	_, res, _ := a.current()
	if res == nil {
		return ExportData{}, errors.New("nothing to export: evaluate a part first")
	}
	p := res.Pattern
	opts := a.cfg.ExportOptions()
	format = strings.ToLower(format)
	if format == "dxf" && a.cfg.Export.DXFVersion == config.DXF2000 {
		format = "dxf2000"
	}

	out := ExportData{Format: format, Filename: "flat-pattern." + strings.TrimSuffix(format, "2000")}
	switch format {
	case "svg":
		out.Content = export.SVG(p, opts)
	case "dxf":
		out.Content = export.DXF(p)
	case "dxf2000":
		// yofu writes to a path only.
		f, err := os.CreateTemp("", "tinsnip-*.dxf")
		if err != nil {
			return ExportData{}, fmt.Errorf("export dxf: %w", err)
		}
		f.Close()
		defer os.Remove(f.Name())
		if err := export.SaveDXF2000(p, f.Name()); err != nil {
			return ExportData{}, err
		}
		data, err := os.ReadFile(f.Name())
		if err != nil {
			return ExportData{}, fmt.Errorf("export dxf: %w", err)
		}
		out.Content = string(data)
	case "csv":
		s, err := export.CSV(p)
		if err != nil {
			return ExportData{}, err
		}
		out.Content = s
	case "pdf", "png":
		var buf bytes.Buffer
		var err error
		if format == "pdf" {
			err = export.PDF(&buf, p, opts)
		} else {
			err = export.WritePreview(&buf, p, "png", opts)
		}
		if err != nil {
			return ExportData{}, err
		}
		out.Content = base64.StdEncoding.EncodeToString(buf.Bytes())
		out.Base64 = true
	default:
		return ExportData{}, fmt.Errorf("unknown export format %q", format)
	}
	a.log.Info().Str("format", format).Int("bytes", len(out.Content)).Msg("export")
	return out, nil
}

// ClassifyFoldLine checks a line drawn on the base face of the last
// evaluated part. Coordinates are face-local. It returns nil when the line
// does not cross the face between two sides.
func (a *App) ClassifyFoldLine(x1, y1, x2, y2 float64) *sketch.FoldLine {
	s, _, _ := a.current()
	if s == nil {
		return nil
	}
	face := s.BaseFace()
	line := sketch.Line{Start: geom.Pt(x1, y1), End: geom.Pt(x2, y2)}
	fl, ok := sketch.ClassifySketchLineAsFold(line, face.Width(), face.Height())
	if !ok {
		return nil
	}
	return &fl
}

// OppositeEdge returns the edge on the other surface of the sheet, or ""
// for side edges.
func (a *App) OppositeEdge(id string) string {
	opp, _ := topology.OppositeEdgeID(id)
	return opp
}

// SelectableEdges returns the edges of the last evaluated part that a new
// flange can be placed on: every edge not already hosting one.
func (a *App) SelectableEdges() []topology.PartEdge {
	s, res, _ := a.current()
	if res == nil {
		return []topology.PartEdge{}
	}
	used := lo.SliceToMap(part.Normalize(*s).Flanges, func(f part.Flange) (string, bool) { return f.EdgeID, true })
	return lo.Filter(res.Edges, func(e topology.PartEdge, _ int) bool { return !used[e.ID] })
}

func (a *App) revisions() (*store.Revisions, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.history != nil {
		return a.history, nil
	}
	r, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.history = r
	return r, nil
}

// SaveRevision stores the last evaluated part under name.
func (a *App) SaveRevision(name, message string) (*store.Revision, error) {
	s, _, source := a.current()
	if s == nil {
		return nil, errors.New("nothing to save: evaluate a part first")
	}
	r, err := a.revisions()
	if err != nil {
		return nil, err
	}
	rev, err := r.Save(a.context(), name, message, source, *s)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("part", name).Int("seq", rev.Seq).Msg("saved revision")
	return rev, nil
}

// History lists the saved revisions of name, oldest first.
func (a *App) History(name string) ([]store.Revision, error) {
	r, err := a.revisions()
	if err != nil {
		return nil, err
	}
	return r.List(a.context(), name)
}

// Restore recomputes revision seq of name and makes it the current part.
func (a *App) Restore(name string, seq int) EvalResult {
	result := newEvalResult()
	rev, err := a.revision(name, seq)
	if err != nil {
		a.log.Error().Err(err).Str("part", name).Int("seq", seq).Msg("restore")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	a.computeInto(&result, rev.Snapshot, rev.Source)
	return result
}

func (a *App) revision(name string, seq int) (*store.Revision, error) {
	r, err := a.revisions()
	if err != nil {
		return nil, err
	}
	rev, err := r.Get(a.context(), name, seq)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, fmt.Errorf("no revision %d of %q", seq, name)
	}
	return rev, nil
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}
