package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scgo/internal/compress"
	"github.com/hupe1980/scgo/model"
)

func TestLocalStoreMatrixRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	m := &model.Matrix{
		Rows:     2,
		Cols:     2,
		RowNames: []string{"g1", "g2"},
		ColNames: []string{"c1", "c2"},
		Values:   []float64{1, 2, 3, 4},
	}
	require.NoError(t, s.PutMatrix(ctx, "assays/RNA/layers/counts", m))

	got, err := s.ReadMatrix(ctx, "assays/RNA/layers/counts")
	require.NoError(t, err)
	require.Equal(t, m, got)

	ok, err := s.Exists(ctx, "assays/RNA")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLocalStoreCompressionOptions(t *testing.T) {
	ctx := context.Background()

	for _, typ := range []compress.Type{compress.None, compress.LZ4, compress.ZSTD} {
		s := NewLocalStore(t.TempDir(), func(o *LocalOptions) {
			o.Compression = typ
		})

		sp := &model.SparseMatrix{
			Rows:    2,
			Cols:    2,
			Indptr:  []int64{0, 1, 2},
			Indices: []int32{0, 1},
			Values:  []float64{1, 1},
		}
		require.NoError(t, s.PutSparse(ctx, "graphs/nn/adjacency", sp))

		got, err := s.ReadSparse(ctx, "graphs/nn/adjacency")
		require.NoError(t, err)
		require.Equal(t, sp, got)
	}
}

func TestLocalStoreListChildren(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.MkNode(ctx, "assays/Spatial"))
	require.NoError(t, s.MkNode(ctx, "assays/RNA"))

	children, err := s.ListChildren(ctx, "assays")
	require.NoError(t, err)
	require.Equal(t, []string{"RNA", "Spatial"}, children)

	_, err = s.ListChildren(ctx, "reductions")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreListChildrenSkipsFiles(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.SetAttr(ctx, "images/slice1", "global", "true"))
	require.NoError(t, s.PutMatrix(ctx, "images/slice1/data", &model.Matrix{
		Rows: 1, Cols: 1, RowNames: []string{"r"}, ColNames: []string{"c"}, Values: []float64{1},
	}))

	// Payload and sidecar files are not nodes.
	children, err := s.ListChildren(ctx, "images/slice1")
	require.NoError(t, err)
	require.Equal(t, []string{"data"}, children)
}

func TestLocalStoreAttrs(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.SetAttr(ctx, "reductions/umap", "assay", "SCT"))
	require.NoError(t, s.SetAttr(ctx, "reductions/umap", "global", "true"))

	v, ok, err := s.ReadAttr(ctx, "reductions/umap", "global")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", v)

	_, ok, err = s.ReadAttr(ctx, "reductions/umap", "absent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalStoreTypeMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.PutJSON(ctx, "meta/misc", map[string]int{"n": 1}))

	_, err := s.ReadMatrix(ctx, "meta/misc")
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = s.ReadSparse(ctx, "meta/absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreAtomicWriteLeavesNoTemp(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStore(root)

	require.NoError(t, s.PutJSON(ctx, "meta/commands", map[string]string{"cmd": "cluster"}))

	entries, err := os.ReadDir(filepath.Join(root, "meta", "commands"))
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp")
	}
}
