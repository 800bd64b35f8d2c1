package loader

import (
	"context"

	"github.com/hupe1980/scgo/dataset"
	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/request"
)

// Append merges the plan's delta into ds. Identifiers already present are
// skipped; for assays the subtraction is per layer, so re-requesting a
// loaded assay with additional layers reads only the missing ones.
// Splicing is per-identifier atomic: a failure leaves components already
// spliced by this call in place. An empty delta is a no-op.
func (l *Loader) Append(ctx context.Context, ds *dataset.Dataset, plan *request.Plan) error {
	delta := subtract(plan, ds)
	if delta.IsEmpty() {
		return nil
	}

	if err := l.verifyDeltaOwners(ds, delta); err != nil {
		return err
	}

	for _, name := range sortedKeys(delta.Assays) {
		assay, err := l.loadAssay(ctx, name, delta.Assays[name], ds.Assays[name])
		if err != nil {
			return err
		}
		ds.Assays[name] = assay
	}

	for _, name := range delta.Reductions {
		red, err := l.loadReduction(ctx, name, ds)
		if err != nil {
			return err
		}
		ds.Reductions[name] = red
	}
	for _, name := range delta.Graphs {
		ng, err := l.loadGraph(ctx, name, ds)
		if err != nil {
			return err
		}
		ds.Graphs[name] = ng
	}
	for _, name := range delta.Images {
		img, err := l.loadImage(ctx, name)
		if err != nil {
			return err
		}
		ds.Images[name] = img
	}

	// Scalar metadata sections fill only if still absent.
	return l.loadMeta(ctx, ds)
}

// subtract removes everything ds already holds from the plan.
func subtract(plan *request.Plan, ds *dataset.Dataset) *request.Plan {
	delta := &request.Plan{Assays: make(map[string][]string)}

	for name, layers := range plan.Assays {
		existing := ds.Assays[name]
		if existing == nil {
			delta.Assays[name] = layers
			continue
		}
		var missing []string
		for _, layer := range layers {
			if _, ok := existing.Layers[layer]; !ok {
				missing = append(missing, layer)
			}
		}
		if len(missing) > 0 {
			delta.Assays[name] = missing
		}
	}

	for _, name := range plan.Reductions {
		if _, ok := ds.Reductions[name]; !ok {
			delta.Reductions = append(delta.Reductions, name)
		}
	}
	for _, name := range plan.Graphs {
		if _, ok := ds.Graphs[name]; !ok {
			delta.Graphs = append(delta.Graphs, name)
		}
	}
	for _, name := range plan.Images {
		if _, ok := ds.Images[name]; !ok {
			delta.Images = append(delta.Images, name)
		}
	}

	return delta
}

// verifyDeltaOwners checks that every non-global dependent in the delta
// has its owner either already in ds or in the delta's assay portion.
func (l *Loader) verifyDeltaOwners(ds *dataset.Dataset, delta *request.Plan) error {
	ownerOK := func(owner string) bool {
		if owner == "" {
			return false
		}
		if _, ok := ds.Assays[owner]; ok {
			return true
		}
		_, ok := delta.Assays[owner]
		return ok
	}

	for _, name := range delta.Reductions {
		e := l.graph.Reductions[name]
		if !e.Global && !ownerOK(e.Assay) {
			return &request.UnresolvedDependencyError{Family: model.FamilyReduction, Name: name, Owner: e.Assay}
		}
	}
	for _, name := range delta.Graphs {
		e := l.graph.Graphs[name]
		if !ownerOK(e.Assay) {
			return &request.UnresolvedDependencyError{Family: model.FamilyGraph, Name: name, Owner: e.Assay}
		}
	}
	for _, name := range delta.Images {
		e := l.graph.Images[name]
		if !e.Global && !ownerOK(e.Assay) {
			return &request.UnresolvedDependencyError{Family: model.FamilyImage, Name: name, Owner: e.Assay}
		}
	}
	return nil
}
