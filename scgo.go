package scgo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/scgo/catalog"
	"github.com/hupe1980/scgo/dataset"
	"github.com/hupe1980/scgo/internal/resource"
	"github.com/hupe1980/scgo/loader"
	"github.com/hupe1980/scgo/request"
	"github.com/hupe1980/scgo/store"
)

// Connection is a handle to one open container. It owns the resolution
// graph built at Open and stays valid until Close. The graph is not
// live-updated; reopen the container to pick up external changes.
type Connection struct {
	store   store.Store
	graph   *catalog.Graph
	loader  *loader.Loader
	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// Open connects to a container and builds its catalog.
func Open(ctx context.Context, st store.Store, optFns ...Option) (*Connection, error) {
	opts := applyOptions(optFns)

	start := time.Now()
	g, err := catalog.Build(ctx, st)
	opts.metricsCollector.RecordCatalogBuild(time.Since(start), err)
	if err != nil {
		opts.logger.LogCatalogBuild(ctx, 0, 0, err)
		return nil, translateError(err)
	}
	opts.logger.LogCatalogBuild(ctx, len(g.Assays), len(g.Reductions)+len(g.Graphs)+len(g.Images), nil)

	l := loader.New(st, g, func(o *loader.Options) {
		o.Logger = opts.logger.Logger
		o.Resources = resource.NewController(resource.Config{
			MaxConcurrentReads: int64(opts.maxConcurrentReads),
			IOLimitBytesPerSec: opts.ioLimitBytesPerSec,
		})
	})

	return &Connection{
		store:   st,
		graph:   g,
		loader:  l,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}, nil
}

// Catalog returns the connection's resolution graph. The returned graph is
// shared and must not be mutated.
func (c *Connection) Catalog() *catalog.Graph {
	return c.graph
}

// Materialize performs a fresh, all-or-nothing load of req.
func (c *Connection) Materialize(ctx context.Context, req request.Request) (*dataset.Dataset, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	plan, err := request.Normalize(c.graph, req, request.Presence{})
	if err != nil {
		c.metrics.RecordMaterialize(0, 0, err)
		return nil, translateError(err)
	}

	start := time.Now()
	ds, err := c.loader.Materialize(ctx, plan)
	c.metrics.RecordMaterialize(planSize(plan), time.Since(start), err)
	c.logger.LogMaterialize(ctx, planSize(plan), err)
	if err != nil {
		return nil, translateError(err)
	}
	return ds, nil
}

// Append merges the delta of req into ds. Identifiers already present in
// ds are skipped; splicing is per-identifier atomic.
func (c *Connection) Append(ctx context.Context, ds *dataset.Dataset, req request.Request) error {
	if c.closed.Load() {
		return ErrClosed
	}

	plan, err := request.Normalize(c.graph, req, ds.Present())
	if err != nil {
		c.metrics.RecordAppend(0, 0, err)
		return translateError(err)
	}

	start := time.Now()
	err = c.loader.Append(ctx, ds, plan)
	c.metrics.RecordAppend(planSize(plan), time.Since(start), err)
	c.logger.LogAppend(ctx, planSize(plan), err)
	return translateError(err)
}

func planSize(p *request.Plan) int {
	return len(p.Assays) + len(p.Reductions) + len(p.Graphs) + len(p.Images)
}
