package request

import (
	"errors"
	"fmt"

	"github.com/hupe1980/scgo/model"
)

// ErrNoDimensionSource is returned when a newly selected assay resolves no
// dimension-defining layer (counts or data).
var ErrNoDimensionSource = errors.New("no dimension-defining layer resolvable")

// ErrGraphGlobalOnly is returned when a graphs selector uses GlobalOnly;
// graphs have no global exemption.
var ErrGraphGlobalOnly = errors.New("graphs selector does not support global-only")

// UnknownIdentifierError reports a requested name absent from the
// resolution graph.
type UnknownIdentifierError struct {
	Family model.Family
	Name   string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown %s %q", familyNoun(e.Family), e.Name)
}

func familyNoun(f model.Family) string {
	switch f {
	case model.FamilyAssay:
		return "assay"
	case model.FamilyReduction:
		return "reduction"
	case model.FamilyGraph:
		return "graph"
	case model.FamilyImage:
		return "image"
	default:
		return "component"
	}
}

// UnresolvedDependencyError reports a non-global dependent whose owner is
// neither selected nor already present.
type UnresolvedDependencyError struct {
	Family model.Family
	Name   string
	Owner  string
}

func (e *UnresolvedDependencyError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("%s %q has no owner and is not global", familyNoun(e.Family), e.Name)
	}
	return fmt.Sprintf("%s %q requires assay %q, which is neither selected nor present", familyNoun(e.Family), e.Name, e.Owner)
}
