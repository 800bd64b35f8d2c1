// Package scgo is a selective loader and incremental merger for
// hierarchical single-cell omics containers.
//
// A container holds assays with layered matrices, dimensional reductions,
// neighbor graphs, spatial images and scalar metadata, all sharing one cell
// identifier axis and exposed through a path-addressed store adapter.
// scgo decides which stored components a partial-load request needs, reads
// exactly those, and merges later partial loads into the same in-memory
// dataset without duplication or dimensionality violations.
//
// # Usage
//
//	st := store.NewLocalStore("/data/pbmc")
//
//	conn, err := scgo.Open(ctx, st)
//	if err != nil { ... }
//	defer conn.Close()
//
//	ds, err := conn.Materialize(ctx, request.Request{
//	    Assays: request.Assays(map[string][]string{"SCT": {"data"}}),
//	})
//
//	// Later, pull in the rest of SCT plus its neighbor graph.
//	err = conn.Append(ctx, ds, request.Request{
//	    Assays: request.Assays(map[string][]string{"SCT": nil}),
//	    Graphs: request.Explicit("nn"),
//	})
//
// The zero request loads everything. Materialize is all-or-nothing; Append
// is per-identifier atomic and idempotent.
package scgo
