// Package testutil provides fixture builders for scgo tests.
//
// This package is intended for use in tests only. SeedCanonical writes a
// small but complete container covering every component family:
//
//	st := store.NewMemoryStore()
//	testutil.SeedCanonical(t, st)
//
// The canonical container holds assays SCT (counts, data, scale.data) and
// Spatial (counts), reductions pca (SCT, non-global) and umap (SCT,
// global), neighbor graph nn (SCT), spatial image slice1 (global), and all
// four scalar metadata sections.
package testutil
