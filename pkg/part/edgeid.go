package part

import (
	"fmt"
	"strconv"
	"strings"
)

// EdgeKind enumerates the kinds of addressable edges on a part.
type EdgeKind int

const (
	BaseTop         EdgeKind = iota // top face edge of the base profile
	BaseBottom                      // bottom face edge of the base profile
	FlangeTipOuter                  // free end of a flange, outer surface
	FlangeTipInner                  // free end of a flange, inner surface
	FlangeSideStart                 // flange side at the parent edge start
	FlangeSideEnd                   // flange side at the parent edge end
	FoldTipOuter                    // free end of a fold, outer surface
	FoldTipInner                    // free end of a fold, inner surface
	FoldSideStart                   // fold side at the fold line start
	FoldSideEnd                     // fold side at the fold line end
)

var edgePrefixes = [...]string{
	BaseTop:         "edge_top_",
	BaseBottom:      "edge_bot_",
	FlangeTipOuter:  "flange_tip_outer_",
	FlangeTipInner:  "flange_tip_inner_",
	FlangeSideStart: "flange_side_s_",
	FlangeSideEnd:   "flange_side_e_",
	FoldTipOuter:    "fold_tip_outer_",
	FoldTipInner:    "fold_tip_inner_",
	FoldSideStart:   "fold_side_s_",
	FoldSideEnd:     "fold_side_e_",
}

func (k EdgeKind) String() string {
	if k < 0 || int(k) >= len(edgePrefixes) {
		return "unknown"
	}
	return strings.TrimSuffix(edgePrefixes[k], "_")
}

// IsBase reports whether k is a base profile edge.
func (k EdgeKind) IsBase() bool { return k == BaseTop || k == BaseBottom }

// IsSide reports whether k is a side edge. Side edges have no opposite.
func (k EdgeKind) IsSide() bool {
	switch k {
	case FlangeSideStart, FlangeSideEnd, FoldSideStart, FoldSideEnd:
		return true
	}
	return false
}

// IsFold reports whether k belongs to a fold.
func (k EdgeKind) IsFold() bool { return k >= FoldTipOuter && k <= FoldSideEnd }

// FacesDown reports whether an edge of kind k lies on the underside of its
// face, as the user sees it.
func (k EdgeKind) FacesDown() bool {
	return k == BaseBottom || k == FlangeTipInner || k == FoldTipInner
}

// Opposite returns the kind on the other surface of the sheet.
func (k EdgeKind) Opposite() (EdgeKind, bool) {
	switch k {
	case BaseTop:
		return BaseBottom, true
	case BaseBottom:
		return BaseTop, true
	case FlangeTipOuter:
		return FlangeTipInner, true
	case FlangeTipInner:
		return FlangeTipOuter, true
	case FoldTipOuter:
		return FoldTipInner, true
	case FoldTipInner:
		return FoldTipOuter, true
	}
	return k, false
}

// EdgeKey is the parsed form of an edge id. Index is set for base edges,
// Feature for flange and fold edges.
type EdgeKey struct {
	Kind    EdgeKind
	Index   int
	Feature string
}

// ID renders the key in its string form.
func (k EdgeKey) ID() string {
	if k.Kind.IsBase() {
		return edgePrefixes[k.Kind] + strconv.Itoa(k.Index)
	}
	return edgePrefixes[k.Kind] + k.Feature
}

func (k EdgeKey) String() string { return k.ID() }

// Opposite returns the key of the same edge on the other surface.
func (k EdgeKey) Opposite() (EdgeKey, bool) {
	kind, ok := k.Kind.Opposite()
	if !ok {
		return EdgeKey{}, false
	}
	k.Kind = kind
	return k, true
}

// ParseEdgeID parses an edge id such as "edge_top_2" or
// "flange_tip_outer_f1".
func ParseEdgeID(id string) (EdgeKey, error) {
	for k, prefix := range edgePrefixes {
		rest, found := strings.CutPrefix(id, prefix)
		if !found {
			continue
		}
		kind := EdgeKind(k)
		if kind.IsBase() {
			i, err := strconv.Atoi(rest)
			if err != nil || i < 0 {
				return EdgeKey{}, fmt.Errorf("part: edge id %q: bad index", id)
			}
			return EdgeKey{Kind: kind, Index: i}, nil
		}
		if rest == "" {
			return EdgeKey{}, fmt.Errorf("part: edge id %q: missing feature", id)
		}
		return EdgeKey{Kind: kind, Feature: rest}, nil
	}
	return EdgeKey{}, fmt.Errorf("part: unknown edge id %q", id)
}

// TipEdgeIDs returns the four edge keys a flange or fold introduces.
func TipEdgeIDs(feature string, fold bool) [4]EdgeKey {
	if fold {
		return [4]EdgeKey{
			{Kind: FoldTipOuter, Feature: feature},
			{Kind: FoldTipInner, Feature: feature},
			{Kind: FoldSideStart, Feature: feature},
			{Kind: FoldSideEnd, Feature: feature},
		}
	}
	return [4]EdgeKey{
		{Kind: FlangeTipOuter, Feature: feature},
		{Kind: FlangeTipInner, Feature: feature},
		{Kind: FlangeSideStart, Feature: feature},
		{Kind: FlangeSideEnd, Feature: feature},
	}
}

const (
	flangeFacePrefix = "flange_"
	foldFacePrefix   = "fold_"
)

// FlangeFaceID names the flat face of a flange.
func FlangeFaceID(id string) string { return flangeFacePrefix + id }

// FoldFaceID names the face carrying the material a fold moves.
func FoldFaceID(id string) string { return foldFacePrefix + id }

// ParseFaceID returns the feature owning a face. The base face, and the
// empty id that stands for it, have no owner.
func ParseFaceID(id string) (feature string, fold bool, err error) {
	if id == "" || id == BaseFaceID {
		return "", false, nil
	}
	if rest, ok := strings.CutPrefix(id, flangeFacePrefix); ok && rest != "" {
		return rest, false, nil
	}
	if rest, ok := strings.CutPrefix(id, foldFacePrefix); ok && rest != "" {
		return rest, true, nil
	}
	return "", false, fmt.Errorf("part: unknown face id %q", id)
}
