// Package loader materializes normalized plans into datasets and merges
// later partial loads into an existing dataset.
//
// Materialize is all-or-nothing: any failed read discards the partial
// result. Append is per-identifier atomic: a failure partway through
// leaves components spliced by the same call in place.
package loader

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/scgo/catalog"
	"github.com/hupe1980/scgo/dataset"
	"github.com/hupe1980/scgo/internal/resource"
	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/request"
	"github.com/hupe1980/scgo/store"
)

// Scalar metadata paths, read when present.
var metaPaths = []string{"meta/cells", "meta/commands", "meta/misc", "meta/tools"}

// Options configures a Loader.
type Options struct {
	// Logger receives debug-level read traces. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Resources bounds concurrent reads and throughput. Defaults to a
	// controller with default limits.
	Resources *resource.Controller
}

// Loader reads components through a store adapter, guided by the
// container's resolution graph.
type Loader struct {
	store  store.Store
	graph  *catalog.Graph
	logger *slog.Logger
	res    *resource.Controller
}

// New creates a Loader over a store and its resolution graph.
func New(st store.Store, g *catalog.Graph, optFns ...func(*Options)) *Loader {
	opts := Options{
		Logger:    slog.New(slog.DiscardHandler),
		Resources: resource.NewController(resource.Config{}),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Loader{
		store:  st,
		graph:  g,
		logger: opts.Logger,
		res:    opts.Resources,
	}
}

// Materialize performs a fresh all-or-nothing load of plan.
func (l *Loader) Materialize(ctx context.Context, plan *request.Plan) (*dataset.Dataset, error) {
	ds := dataset.New()

	// Assays first so dimensionality is known for every dependent.
	for _, name := range sortedKeys(plan.Assays) {
		assay, err := l.loadAssay(ctx, name, plan.Assays[name], nil)
		if err != nil {
			return nil, err
		}
		ds.Assays[name] = assay
	}

	for _, name := range plan.Reductions {
		red, err := l.loadReduction(ctx, name, ds)
		if err != nil {
			return nil, err
		}
		ds.Reductions[name] = red
	}
	for _, name := range plan.Graphs {
		ng, err := l.loadGraph(ctx, name, ds)
		if err != nil {
			return nil, err
		}
		ds.Graphs[name] = ng
	}
	for _, name := range plan.Images {
		img, err := l.loadImage(ctx, name)
		if err != nil {
			return nil, err
		}
		ds.Images[name] = img
	}

	if err := l.loadMeta(ctx, ds); err != nil {
		return nil, err
	}

	return ds, nil
}

// loadAssay reads the requested layers of one assay concurrently. existing
// is non-nil when layers are appended to an already-loaded assay; its
// cell count is then authoritative.
func (l *Loader) loadAssay(ctx context.Context, name string, layers []string, existing *dataset.Assay) (*dataset.Assay, error) {
	loaded := make([]*model.Matrix, len(layers))

	g, gctx := errgroup.WithContext(ctx)
	for i, layer := range layers {
		g.Go(func() error {
			m, err := l.readMatrix(gctx, "assays/"+name+"/layers/"+layer)
			if err != nil {
				return err
			}
			loaded[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assay := existing
	if assay == nil {
		assay = &dataset.Assay{Name: name, Layers: make(map[string]*model.Matrix, len(layers))}

		// The first dimension-defining layer fixes the assay's shape.
		for i, layer := range layers {
			if request.IsDimensionLayer(layer) {
				assay.NFeatures = loaded[i].Rows
				assay.NCells = loaded[i].Cols
				break
			}
		}
	}

	// Layers are feature x cell; every layer must agree on the cell axis.
	for i, layer := range layers {
		if loaded[i].Cols != assay.NCells {
			return nil, &DimensionMismatchError{
				Family: model.FamilyAssay,
				Name:   name + "/" + layer,
				Assay:  name,
				Got:    loaded[i].Cols,
				Want:   assay.NCells,
			}
		}
	}
	for i, layer := range layers {
		assay.Layers[layer] = loaded[i]
	}

	return assay, nil
}

func (l *Loader) loadReduction(ctx context.Context, name string, ds *dataset.Dataset) (*dataset.Reduction, error) {
	entry, _ := l.graph.Entry(model.FamilyReduction, name)

	m, err := l.readMatrix(ctx, "reductions/"+name+"/embeddings")
	if err != nil {
		return nil, err
	}

	// Embeddings are cell x component; validate against the owner when it
	// is loaded. Global reductions may ride without their owner.
	if owner, ok := ds.Assays[entry.Assay]; ok && m.Rows != owner.NCells {
		return nil, &DimensionMismatchError{
			Family: model.FamilyReduction,
			Name:   name,
			Assay:  entry.Assay,
			Got:    m.Rows,
			Want:   owner.NCells,
		}
	}

	return &dataset.Reduction{
		Name:       name,
		Assay:      entry.Assay,
		Global:     entry.Global,
		Embeddings: m,
	}, nil
}

func (l *Loader) loadGraph(ctx context.Context, name string, ds *dataset.Dataset) (*dataset.NeighborGraph, error) {
	entry, _ := l.graph.Entry(model.FamilyGraph, name)

	adj, err := l.readSparse(ctx, "graphs/"+name+"/adjacency")
	if err != nil {
		return nil, err
	}

	if owner, ok := ds.Assays[entry.Assay]; ok {
		if adj.Rows != owner.NCells || adj.Cols != owner.NCells {
			return nil, &DimensionMismatchError{
				Family: model.FamilyGraph,
				Name:   name,
				Assay:  entry.Assay,
				Got:    adj.Rows,
				Want:   owner.NCells,
			}
		}
	}

	return &dataset.NeighborGraph{Name: name, Assay: entry.Assay, Adjacency: adj}, nil
}

func (l *Loader) loadImage(ctx context.Context, name string) (*dataset.Image, error) {
	entry, _ := l.graph.Entry(model.FamilyImage, name)

	// Image data is not gated by owner dimensionality; the owner
	// reference is informational.
	m, err := l.readMatrix(ctx, "images/"+name+"/data")
	if err != nil {
		return nil, err
	}

	return &dataset.Image{
		Name:   name,
		Assay:  entry.Assay,
		Global: entry.Global,
		Data:   m,
	}, nil
}

// loadMeta fills scalar metadata sections that are still absent from ds.
func (l *Loader) loadMeta(ctx context.Context, ds *dataset.Dataset) error {
	for _, path := range metaPaths {
		ok, err := l.store.Exists(ctx, path)
		if err != nil {
			return &ReadError{Path: path, Err: err}
		}
		if !ok {
			continue
		}

		switch path {
		case "meta/cells":
			if ds.CellMeta != nil {
				continue
			}
			if err := l.readJSON(ctx, path, &ds.CellMeta); err != nil {
				return err
			}
		case "meta/commands":
			if ds.Commands != nil {
				continue
			}
			if err := l.readJSON(ctx, path, &ds.Commands); err != nil {
				return err
			}
		case "meta/misc":
			if ds.Misc != nil {
				continue
			}
			if err := l.readJSON(ctx, path, &ds.Misc); err != nil {
				return err
			}
		case "meta/tools":
			if ds.Tools != nil {
				continue
			}
			if err := l.readJSON(ctx, path, &ds.Tools); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) readMatrix(ctx context.Context, path string) (*model.Matrix, error) {
	if err := l.res.AcquireRead(ctx); err != nil {
		return nil, err
	}
	defer l.res.ReleaseRead()

	l.logger.DebugContext(ctx, "read matrix", slog.String("path", path))

	m, err := l.store.ReadMatrix(ctx, path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if err := l.res.AccountIO(ctx, 8*len(m.Values)); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *Loader) readSparse(ctx context.Context, path string) (*model.SparseMatrix, error) {
	if err := l.res.AcquireRead(ctx); err != nil {
		return nil, err
	}
	defer l.res.ReleaseRead()

	l.logger.DebugContext(ctx, "read sparse", slog.String("path", path))

	s, err := l.store.ReadSparse(ctx, path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if err := l.res.AccountIO(ctx, 12*len(s.Values)+8*len(s.Indptr)); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *Loader) readJSON(ctx context.Context, path string, v any) error {
	if err := l.res.AcquireRead(ctx); err != nil {
		return err
	}
	defer l.res.ReleaseRead()

	l.logger.DebugContext(ctx, "read document", slog.String("path", path))

	if err := l.store.ReadJSON(ctx, path, v); err != nil {
		return &ReadError{Path: path, Err: err}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
