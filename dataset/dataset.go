// Package dataset holds the in-memory object assembled by materialization:
// assays with their loaded layers, reductions, neighbor graphs, images and
// the scalar metadata sections. A dataset never contains two instances of
// the same (family, identifier); merges are additive and skip what is
// already present.
package dataset

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/request"
)

// Assay is one measurement set with its loaded layers. NCells and
// NFeatures are fixed by the first dimension-defining layer read and are
// authoritative for every dependent of this assay.
type Assay struct {
	Name      string
	Layers    map[string]*model.Matrix
	NCells    int
	NFeatures int
}

// LayerNames returns the sorted names of loaded layers.
func (a *Assay) LayerNames() []string {
	names := make([]string, 0, len(a.Layers))
	for name := range a.Layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reduction is a loaded dimensional reduction. Embeddings is cell by
// component.
type Reduction struct {
	Name       string
	Assay      string
	Global     bool
	Embeddings *model.Matrix
}

// NeighborGraph is a loaded cell-by-cell relationship graph.
type NeighborGraph struct {
	Name      string
	Assay     string
	Adjacency *model.SparseMatrix
}

// NeighborSet returns the neighbor cell indices of a cell as a bitmap.
func (g *NeighborGraph) NeighborSet(cell int) *roaring.Bitmap {
	set := roaring.New()
	indices, _ := g.Adjacency.Row(cell)
	for _, idx := range indices {
		set.Add(uint32(idx))
	}
	return set
}

// Image is loaded spatial overlay data.
type Image struct {
	Name   string
	Assay  string
	Global bool
	Data   *model.Matrix
}

// Dataset is the aggregate in-memory object. It is owned by a single
// caller during materialize and append operations.
type Dataset struct {
	Assays     map[string]*Assay
	Reductions map[string]*Reduction
	Graphs     map[string]*NeighborGraph
	Images     map[string]*Image

	CellMeta map[string]any
	Commands []string
	Misc     map[string]any
	Tools    map[string]any
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{
		Assays:     make(map[string]*Assay),
		Reductions: make(map[string]*Reduction),
		Graphs:     make(map[string]*NeighborGraph),
		Images:     make(map[string]*Image),
	}
}

// Has reports whether the dataset holds (family, name).
func (d *Dataset) Has(family model.Family, name string) bool {
	switch family {
	case model.FamilyAssay:
		_, ok := d.Assays[name]
		return ok
	case model.FamilyReduction:
		_, ok := d.Reductions[name]
		return ok
	case model.FamilyGraph:
		_, ok := d.Graphs[name]
		return ok
	case model.FamilyImage:
		_, ok := d.Images[name]
		return ok
	default:
		return false
	}
}

// Present snapshots the dataset's contents for request normalization.
func (d *Dataset) Present() request.Presence {
	p := request.Presence{
		Assays:     make(map[string][]string, len(d.Assays)),
		Reductions: make(map[string]bool, len(d.Reductions)),
		Graphs:     make(map[string]bool, len(d.Graphs)),
		Images:     make(map[string]bool, len(d.Images)),
	}
	for name, a := range d.Assays {
		p.Assays[name] = a.LayerNames()
	}
	for name := range d.Reductions {
		p.Reductions[name] = true
	}
	for name := range d.Graphs {
		p.Graphs[name] = true
	}
	for name := range d.Images {
		p.Images[name] = true
	}
	return p
}
