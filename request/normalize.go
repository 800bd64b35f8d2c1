package request

import (
	"sort"

	"github.com/hupe1980/scgo/catalog"
	"github.com/hupe1980/scgo/model"
)

// dimensionLayers are the layer kinds that may define an assay's
// authoritative cell/feature dimensionality.
var dimensionLayers = map[string]bool{
	"counts": true,
	"data":   true,
}

// IsDimensionLayer reports whether the layer kind can define an assay's
// dimensionality.
func IsDimensionLayer(name string) bool {
	return dimensionLayers[name]
}

// Normalize expands req against the resolution graph into a concrete Plan.
// present snapshots what the target dataset already holds; it is empty for
// a fresh load. Assays resolve first since they gate every dependent:
// a non-global dependent is admitted only when its owner is selected in
// this plan or already present.
func Normalize(g *catalog.Graph, req Request, present Presence) (*Plan, error) {
	assays, err := resolveAssays(g, req.Assays, present)
	if err != nil {
		return nil, err
	}

	// Allowed owners for dependents.
	allowed := make(map[string]bool, len(assays)+len(present.Assays))
	for name := range assays {
		allowed[name] = true
	}
	for name := range present.Assays {
		allowed[name] = true
	}

	reductions, err := resolveDerived(model.FamilyReduction, req.Reductions, g.Reductions, allowed, true)
	if err != nil {
		return nil, err
	}
	graphs, err := resolveDerived(model.FamilyGraph, req.Graphs, g.Graphs, allowed, false)
	if err != nil {
		return nil, err
	}
	images, err := resolveDerived(model.FamilyImage, req.Images, g.Images, allowed, true)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Assays:     assays,
		Reductions: reductions,
		Graphs:     graphs,
		Images:     images,
	}, nil
}

func resolveAssays(g *catalog.Graph, sel AssaySelector, present Presence) (map[string][]string, error) {
	selected := make(map[string][]string)

	switch sel.mode {
	case assayModeAll:
		for name, entry := range g.Assays {
			selected[name] = append([]string(nil), entry.Layers...)
		}

	case assayModeNone:
		// Nothing selected; dependents may still resolve against
		// already-present assays.

	case assayModeExplicit:
		for name, layers := range sel.named {
			entry, ok := g.Assays[name]
			if !ok {
				return nil, &UnknownIdentifierError{Family: model.FamilyAssay, Name: name}
			}
			if len(layers) == 0 {
				selected[name] = append([]string(nil), entry.Layers...)
				continue
			}
			// Layers absent from this assay are skipped silently.
			var kept []string
			for _, l := range layers {
				if entry.HasLayer(l) {
					kept = append(kept, l)
				}
			}
			if len(kept) > 0 {
				selected[name] = kept
			}
		}

	case assayModeLayers:
		for _, l := range sel.layers {
			for _, name := range g.AssaysWithLayer(l) {
				selected[name] = append(selected[name], l)
			}
		}
		// A shorthand that names a dimension-defining layer but matches
		// no assay cannot establish dimensionality anywhere; failing
		// beats silently degrading to an empty load.
		if len(selected) == 0 && hasDimensionLayer(sel.layers) {
			return nil, ErrNoDimensionSource
		}
	}

	for name, layers := range selected {
		sort.Strings(layers)
		selected[name] = layers

		// Every assay newly introduced by this plan must carry a
		// dimension-defining layer; assays already present keep their
		// established dimensionality.
		if present.HasAssay(name) {
			continue
		}
		if !hasDimensionLayer(layers) {
			return nil, ErrNoDimensionSource
		}
	}

	return selected, nil
}

func hasDimensionLayer(layers []string) bool {
	for _, l := range layers {
		if dimensionLayers[l] {
			return true
		}
	}
	return false
}

func resolveDerived(family model.Family, sel Selector, entries map[string]catalog.Entry, allowed map[string]bool, hasGlobal bool) ([]string, error) {
	if sel.mode == modeGlobalOnly && !hasGlobal {
		return nil, ErrGraphGlobalOnly
	}

	var names []string

	switch sel.mode {
	case modeAll:
		for name, e := range entries {
			if (hasGlobal && e.Global) || (e.Assay != "" && allowed[e.Assay]) {
				names = append(names, name)
			}
		}

	case modeGlobalOnly:
		for name, e := range entries {
			if e.Global {
				names = append(names, name)
			}
		}

	case modeNone:

	case modeExplicit:
		for _, name := range sel.names {
			e, ok := entries[name]
			if !ok {
				return nil, &UnknownIdentifierError{Family: family, Name: name}
			}
			if hasGlobal && e.Global {
				names = append(names, name)
				continue
			}
			if e.Assay == "" || !allowed[e.Assay] {
				return nil, &UnresolvedDependencyError{Family: family, Name: name, Owner: e.Assay}
			}
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
