// Package request defines the partial-load request surface and normalizes
// requests into concrete materialization plans against a resolution graph.
//
// Selectors are explicit tagged unions. The zero value of every selector
// (and of Request itself) means ALL, so Normalize(g, Request{}, Presence{})
// plans a full load.
package request

type mode int

const (
	modeAll mode = iota
	modeGlobalOnly
	modeNone
	modeExplicit
)

// Selector picks identifiers within one derived family (reductions, graphs
// or images). The zero value selects ALL.
type Selector struct {
	mode  mode
	names []string
}

// All selects every identifier permitted by the association rules.
func All() Selector {
	return Selector{mode: modeAll}
}

// GlobalOnly selects only identifiers flagged global. Not valid for
// graphs, which have no global exemption.
func GlobalOnly() Selector {
	return Selector{mode: modeGlobalOnly}
}

// None selects nothing.
func None() Selector {
	return Selector{mode: modeNone}
}

// Explicit selects exactly the named identifiers.
func Explicit(names ...string) Selector {
	return Selector{mode: modeExplicit, names: names}
}

type assayMode int

const (
	assayModeAll assayMode = iota
	assayModeNone
	assayModeExplicit
	assayModeLayers
)

// AssaySelector picks assays and the layers to load per assay. The zero
// value selects every assay with all its layers.
type AssaySelector struct {
	mode   assayMode
	named  map[string][]string
	layers []string
}

// AllAssays selects every assay with all stored layers.
func AllAssays() AssaySelector {
	return AssaySelector{mode: assayModeAll}
}

// NoAssays selects no assays. Dependents whose owners are already present
// in the target dataset remain loadable.
func NoAssays() AssaySelector {
	return AssaySelector{mode: assayModeNone}
}

// Assays selects the named assays. A nil or empty layer list means all
// stored layers of that assay.
func Assays(named map[string][]string) AssaySelector {
	return AssaySelector{mode: assayModeExplicit, named: named}
}

// Layers is the shorthand selecting every assay that stores at least one
// of the named layers; assays lacking a named layer skip it silently.
func Layers(names ...string) AssaySelector {
	return AssaySelector{mode: assayModeLayers, layers: names}
}

// Request is one partial-load request. Zero value loads everything.
type Request struct {
	Assays     AssaySelector
	Reductions Selector
	Graphs     Selector
	Images     Selector
}

// Presence is a snapshot of what an existing dataset already holds. The
// zero value (fresh load) is empty. Assay values list loaded layer names.
type Presence struct {
	Assays     map[string][]string
	Reductions map[string]bool
	Graphs     map[string]bool
	Images     map[string]bool
}

// HasAssay reports whether the assay is already materialized.
func (p Presence) HasAssay(name string) bool {
	_, ok := p.Assays[name]
	return ok
}

// Plan is the concrete materialization set produced by Normalize: for each
// family the exact identifiers to read, with assay layer lists resolved.
type Plan struct {
	Assays     map[string][]string
	Reductions []string
	Graphs     []string
	Images     []string
}

// IsEmpty reports whether the plan selects nothing at all.
func (p *Plan) IsEmpty() bool {
	return len(p.Assays) == 0 && len(p.Reductions) == 0 && len(p.Graphs) == 0 && len(p.Images) == 0
}
