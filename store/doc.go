// Package store defines the path-addressed hierarchical store contract that
// container loaders consume, plus in-memory and local-directory
// implementations.
//
// A store exposes a tree of nodes addressed by slash-separated paths
// (e.g. "assays/SCT/layers/counts"). Nodes carry at most one typed payload
// (dense matrix, sparse matrix, or JSON document) and a flat set of string
// attributes. The loader only reads; the write methods on concrete stores
// exist for container authoring and test fixtures.
package store
