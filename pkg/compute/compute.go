// Package compute runs the whole engine on one snapshot: validation, the
// edge topology, the 3D meshes and the flat pattern.
package compute

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/tinsnip/pkg/kernel"
	"github.com/chazu/tinsnip/pkg/kernel/sdfx"
	"github.com/chazu/tinsnip/pkg/part"
	"github.com/chazu/tinsnip/pkg/tessellate"
	"github.com/chazu/tinsnip/pkg/topology"
	"github.com/chazu/tinsnip/pkg/unfold"
)

// Result is everything derived from a snapshot. It is rebuilt from scratch
// on every call.
type Result struct {
	Edges      []topology.PartEdge    `json:"edges"`
	Meshes     []*kernel.Mesh         `json:"meshes"`
	Pattern    unfold.FlatPattern     `json:"flatPattern"`
	Unresolved []topology.Unresolved  `json:"unresolved,omitempty"`
	Warnings   []part.ValidationError `json:"warnings,omitempty"`
	Model      *topology.Model        `json:"-"`
}

// InvalidSnapshotError carries the blocking validation findings.
type InvalidSnapshotError struct {
	Errors []part.ValidationError
}

func (e *InvalidSnapshotError) Error() string {
	msgs := lo.Map(e.Errors, func(v part.ValidationError, _ int) string { return v.Error() })
	return fmt.Sprintf("compute: invalid snapshot: %s", strings.Join(msgs, "; "))
}

// Compute validates s and, if no error-severity findings exist, builds the
// edge model, tessellates it with k and unfolds the flat pattern. A nil
// kernel selects the sdfx kernel.
func Compute(s part.Snapshot, k kernel.Kernel) (*Result, error) {
	s = part.Normalize(s)
	v := part.ValidateAll(s)
	if !v.OK() {
		return nil, &InvalidSnapshotError{Errors: v.Errors}
	}
	if k == nil {
		k = sdfx.New()
	}

	m := topology.Build(s)
	if errs := baseEdgeErrors(s, m); len(errs) > 0 {
		return nil, &InvalidSnapshotError{Errors: errs}
	}
	meshes, err := tessellate.Tessellate(s, m, k)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	return &Result{
		Edges:      m.Edges(),
		Meshes:     meshes,
		Pattern:    unfold.ComputeFlatPattern(s),
		Unresolved: m.Unresolved(),
		Warnings:   v.Warnings,
		Model:      m,
	}, nil
}

// baseEdgeErrors reports flanges on base edges the fold-clipped profile does
// not have. Folds change the edge count, so the range is only known once the
// model is built.
func baseEdgeErrors(s part.Snapshot, m *topology.Model) []part.ValidationError {
	var errs []part.ValidationError
	for _, f := range s.Flanges {
		key, err := part.ParseEdgeID(f.EdgeID)
		if err != nil || !key.Kind.IsBase() {
			continue
		}
		if key.Index >= len(m.Fixed) {
			errs = append(errs, part.ValidationError{
				Feature:  f.ID,
				Message:  fmt.Sprintf("parent edge %s does not exist (profile has %d edges)", f.EdgeID, len(m.Fixed)),
				Severity: part.SeverityError,
			})
		}
	}
	return errs
}
