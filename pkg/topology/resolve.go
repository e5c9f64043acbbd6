package topology

import (
	"sort"

	"github.com/chazu/tinsnip/pkg/part"
)

// Reason says why a feature could not be placed.
type Reason string

const (
	ReasonMissingParent   Reason = "missing-parent"
	ReasonCycle           Reason = "cycle"
	ReasonEdgeOccupied    Reason = "edge-occupied"
	ReasonUnsupportedFace Reason = "unsupported-face"
	ReasonNoMaterial      Reason = "no-material"
	ReasonFoldLine        Reason = "fold-line"
)

// Unresolved reports a flange or fold left out of the model.
type Unresolved struct {
	Feature string `json:"feature"`
	Parent  string `json:"parent"`
	Reason  Reason `json:"reason"`
}

// Feature is one entry of a resolution order.
type Feature struct {
	ID     string
	Fold   bool
	Parent string // parent edge id for flanges, face id for folds
}

func sortedFolds(folds []part.Fold) []part.Fold {
	out := append([]part.Fold(nil), folds...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedFlanges(flanges []part.Flange) []part.Flange {
	out := append([]part.Flange(nil), flanges...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// featureRef names a flange or a fold; the two share no id space.
type featureRef struct {
	id   string
	fold bool
}

func (r featureRef) face() string {
	if r.fold {
		return part.FoldFaceID(r.id)
	}
	return part.FlangeFaceID(r.id)
}

// ResolveOrder returns the features of s in an order where every feature
// follows the one it grows from. A fold follows the owner of the face it is
// drawn on. A flange follows the owner of its parent edge and every fold on
// that owner's face, nested folds included, since those folds may carry the
// parent edge. Base-face folds come first; the rest are visited
// depth-first by id, so the result does not depend on input order.
//
// Features that can never be placed are returned as unresolved: an edge
// claimed by several flanges goes to the smallest id, folds on faces that
// name nothing are unsupported, features whose parent is missing or itself
// unresolved are dropped, and parent cycles are reported.
func ResolveOrder(s part.Snapshot) ([]Feature, []Unresolved) {
	s = part.Normalize(s)
	var order []Feature
	var unresolved []Unresolved

	folds := map[string]part.Fold{}
	foldsOn := map[string][]string{} // face id -> fold ids
	for _, f := range sortedFolds(s.Folds) {
		if _, _, err := part.ParseFaceID(f.Face()); err != nil {
			unresolved = append(unresolved, Unresolved{Feature: f.ID, Parent: f.FaceID, Reason: ReasonUnsupportedFace})
			continue
		}
		folds[f.ID] = f
		foldsOn[f.Face()] = append(foldsOn[f.Face()], f.ID)
	}

	flanges := map[string]part.Flange{}
	claimed := map[string]string{} // edge id -> flange id
	var live []part.Flange
	for _, f := range sortedFlanges(s.Flanges) {
		if owner, taken := claimed[f.EdgeID]; taken {
			unresolved = append(unresolved, Unresolved{Feature: f.ID, Parent: owner, Reason: ReasonEdgeOccupied})
			continue
		}
		claimed[f.EdgeID] = f.ID
		flanges[f.ID] = f
		live = append(live, f)
	}

	const (
		white = iota
		gray
		black
		failed
	)
	state := map[featureRef]int{}
	inCycle := map[featureRef]bool{}
	var stack []featureRef
	var visit, settle func(r featureRef) bool

	// settle places r and then every fold drawn on its face.
	settle = func(r featureRef) bool {
		if !visit(r) {
			return false
		}
		for _, id := range foldsOn[r.face()] {
			settle(featureRef{id: id, fold: true})
		}
		return true
	}
	visit = func(r featureRef) bool {
		switch state[r] {
		case black:
			return true
		case failed:
			return false
		case gray:
			// Everything on the stack from r upward closes the loop.
			for i := len(stack) - 1; i >= 0; i-- {
				inCycle[stack[i]] = true
				if stack[i] == r {
					break
				}
			}
			return false
		}
		state[r] = gray
		stack = append(stack, r)
		var parent string
		var owner *featureRef
		var reason Reason
		ok := true
		if r.fold {
			parent = folds[r.id].Face()
			owner, reason, ok = faceOwner(parent, folds, flanges)
			if ok && owner != nil && !visit(*owner) {
				reason, ok = ReasonMissingParent, false
			}
		} else {
			parent = flanges[r.id].EdgeID
			owner, reason, ok = edgeOwner(parent, folds, flanges)
			if ok && owner != nil && !settle(*owner) {
				reason, ok = ReasonMissingParent, false
			}
		}
		stack = stack[:len(stack)-1]
		if !ok {
			if inCycle[r] {
				reason = ReasonCycle
			}
			state[r] = failed
			unresolved = append(unresolved, Unresolved{Feature: r.id, Parent: parent, Reason: reason})
			return false
		}
		state[r] = black
		order = append(order, Feature{ID: r.id, Fold: r.fold, Parent: parent})
		return true
	}

	for _, id := range foldsOn[part.BaseFaceID] {
		settle(featureRef{id: id, fold: true})
	}
	for _, f := range sortedFolds(s.Folds) {
		if _, ok := folds[f.ID]; ok {
			settle(featureRef{id: f.ID, fold: true})
		}
	}
	for _, f := range live {
		settle(featureRef{id: f.ID})
	}
	sort.SliceStable(unresolved, func(i, j int) bool { return unresolved[i].Feature < unresolved[j].Feature })
	return order, unresolved
}

// edgeOwner returns the feature that creates edge id, nil for base edges.
// Base edges are indexed on the fixed profile and checked at build time.
func edgeOwner(id string, folds map[string]part.Fold, flanges map[string]part.Flange) (*featureRef, Reason, bool) {
	key, err := part.ParseEdgeID(id)
	if err != nil {
		return nil, ReasonMissingParent, false
	}
	if key.Kind.IsBase() {
		return nil, "", true
	}
	return liveFeature(key.Feature, key.Kind.IsFold(), folds, flanges)
}

// faceOwner returns the feature that creates face id, nil for the base.
func faceOwner(id string, folds map[string]part.Fold, flanges map[string]part.Flange) (*featureRef, Reason, bool) {
	feature, fold, err := part.ParseFaceID(id)
	if err != nil {
		return nil, ReasonUnsupportedFace, false
	}
	if feature == "" {
		return nil, "", true
	}
	return liveFeature(feature, fold, folds, flanges)
}

func liveFeature(id string, fold bool, folds map[string]part.Fold, flanges map[string]part.Flange) (*featureRef, Reason, bool) {
	if fold {
		if _, ok := folds[id]; !ok {
			return nil, ReasonMissingParent, false
		}
	} else if _, ok := flanges[id]; !ok {
		return nil, ReasonMissingParent, false
	}
	return &featureRef{id: id, fold: fold}, "", true
}
