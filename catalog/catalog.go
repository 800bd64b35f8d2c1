// Package catalog builds the resolution graph of a container: which assays,
// reductions, graphs and images exist, who owns whom, and which components
// are global. The graph is pure data, immutable after Build, and safe for
// concurrent readers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/store"
)

const (
	attrAssay  = "assay"
	attrGlobal = "global"
)

// CorruptError reports malformed container metadata discovered during Build.
type CorruptError struct {
	Path   string
	Detail string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("catalog corrupt at %s: %s", e.Path, e.Detail)
}

// AssayEntry describes one assay and its stored layer names.
type AssayEntry struct {
	Name   string
	Layers []string
}

// HasLayer reports whether the assay stores a layer with the given name.
func (a AssayEntry) HasLayer(name string) bool {
	for _, l := range a.Layers {
		if l == name {
			return true
		}
	}
	return false
}

// Entry describes one derived component (reduction, graph or image).
// Assay is empty when the component declares no owner.
type Entry struct {
	Name   string
	Assay  string
	Global bool
}

// Graph is the resolution graph of one container.
type Graph struct {
	Assays     map[string]AssayEntry
	Reductions map[string]Entry
	Graphs     map[string]Entry
	Images     map[string]Entry
}

// Build enumerates the container's family roots and constructs the
// resolution graph. Missing family roots yield empty families; malformed
// attributes or dangling owner references yield a CorruptError.
func Build(ctx context.Context, st store.Store) (*Graph, error) {
	g := &Graph{
		Assays:     make(map[string]AssayEntry),
		Reductions: make(map[string]Entry),
		Graphs:     make(map[string]Entry),
		Images:     make(map[string]Entry),
	}

	assayNames, err := listFamily(ctx, st, model.FamilyAssay.String())
	if err != nil {
		return nil, err
	}
	for _, name := range assayNames {
		layers, err := listLayers(ctx, st, name)
		if err != nil {
			return nil, err
		}
		g.Assays[name] = AssayEntry{Name: name, Layers: layers}
	}

	if err := buildDerived(ctx, st, g, model.FamilyReduction, g.Reductions, false); err != nil {
		return nil, err
	}
	if err := buildDerived(ctx, st, g, model.FamilyGraph, g.Graphs, false); err != nil {
		return nil, err
	}
	if err := buildDerived(ctx, st, g, model.FamilyImage, g.Images, true); err != nil {
		return nil, err
	}

	return g, nil
}

// buildDerived populates one derived family. defaultGlobal applies when the
// global attribute is absent; graphs never honor a true value.
func buildDerived(ctx context.Context, st store.Store, g *Graph, family model.Family, into map[string]Entry, defaultGlobal bool) error {
	names, err := listFamily(ctx, st, family.String())
	if err != nil {
		return err
	}

	for _, name := range names {
		path := family.String() + "/" + name

		owner, ok, err := st.ReadAttr(ctx, path, attrAssay)
		if err != nil {
			return err
		}
		if ok && owner != "" {
			if _, exists := g.Assays[owner]; !exists {
				return &CorruptError{
					Path:   path,
					Detail: fmt.Sprintf("owner %q is not a known assay", owner),
				}
			}
		}

		global := defaultGlobal
		raw, ok, err := st.ReadAttr(ctx, path, attrGlobal)
		if err != nil {
			return err
		}
		if ok {
			// A present but unparseable flag is corruption even on
			// families that ignore it.
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return &CorruptError{
					Path:   path,
					Detail: fmt.Sprintf("global flag %q is not a boolean", raw),
				}
			}
			global = v
		}
		if family == model.FamilyGraph {
			global = false
		}

		into[name] = Entry{Name: name, Assay: owner, Global: global}
	}
	return nil
}

func listFamily(ctx context.Context, st store.Store, root string) ([]string, error) {
	names, err := st.ListChildren(ctx, root)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return names, err
}

func listLayers(ctx context.Context, st store.Store, assay string) ([]string, error) {
	layers, err := st.ListChildren(ctx, "assays/"+assay+"/layers")
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return layers, err
}

// AssaysWithLayer returns the sorted names of assays storing the given
// layer.
func (g *Graph) AssaysWithLayer(layer string) []string {
	var names []string
	for name, a := range g.Assays {
		if a.HasLayer(layer) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AssayNames returns the sorted assay names.
func (g *Graph) AssayNames() []string {
	names := make([]string, 0, len(g.Assays))
	for name := range g.Assays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the derived-component entry for (family, name).
func (g *Graph) Entry(family model.Family, name string) (Entry, bool) {
	var m map[string]Entry
	switch family {
	case model.FamilyReduction:
		m = g.Reductions
	case model.FamilyGraph:
		m = g.Graphs
	case model.FamilyImage:
		m = g.Images
	default:
		return Entry{}, false
	}
	e, ok := m[name]
	return e, ok
}
