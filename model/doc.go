// Package model defines the shared value types of a single-cell container:
// component families, dense matrices, and CSR sparse matrices.
//
// These types are pure data. All loading, resolution and merge logic lives in
// the catalog, request and loader packages.
package model
