package store

import (
	"context"
	"errors"
	"os"

	"github.com/hupe1980/scgo/model"
)

// ErrNotFound is returned when a path does not exist in the store.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrTypeMismatch is returned when a path exists but holds a payload of a
// different type than the one requested.
var ErrTypeMismatch = errors.New("payload type mismatch")

// Store is the read contract over a hierarchical container.
type Store interface {
	// Exists reports whether a node exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// ListChildren returns the names of the direct children of path,
	// sorted lexicographically. A missing path yields ErrNotFound.
	ListChildren(ctx context.Context, path string) ([]string, error)

	// ReadMatrix reads the dense matrix payload at path.
	ReadMatrix(ctx context.Context, path string) (*model.Matrix, error)

	// ReadSparse reads the CSR sparse matrix payload at path.
	ReadSparse(ctx context.Context, path string) (*model.SparseMatrix, error)

	// ReadJSON decodes the JSON document payload at path into v.
	ReadJSON(ctx context.Context, path string, v any) error

	// ReadAttr reads a node attribute. The second return is false when the
	// attribute is absent; a missing node is not an error here.
	ReadAttr(ctx context.Context, path, name string) (string, bool, error)
}

// Writer is the optional write contract implemented by authoring-capable
// stores (memory, local, object-backed).
type Writer interface {
	PutMatrix(ctx context.Context, path string, m *model.Matrix) error
	PutSparse(ctx context.Context, path string, s *model.SparseMatrix) error
	PutJSON(ctx context.Context, path string, v any) error
	SetAttr(ctx context.Context, path, name, value string) error
}
