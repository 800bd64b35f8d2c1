package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scgo/model"
)

func TestMemoryStoreNodes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Exists(ctx, "assays")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.PutMatrix(ctx, "assays/SCT/layers/counts", &model.Matrix{
		Rows:     2,
		Cols:     3,
		RowNames: []string{"g1", "g2"},
		ColNames: []string{"c1", "c2", "c3"},
		Values:   []float64{1, 0, 2, 0, 3, 0},
	}))

	// Ancestors materialize implicitly.
	for _, p := range []string{"assays", "assays/SCT", "assays/SCT/layers", "assays/SCT/layers/counts"} {
		ok, err := s.Exists(ctx, p)
		require.NoError(t, err)
		require.True(t, ok, p)
	}

	children, err := s.ListChildren(ctx, "assays/SCT/layers")
	require.NoError(t, err)
	require.Equal(t, []string{"counts"}, children)

	_, err = s.ListChildren(ctx, "reductions")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListChildrenSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.MkNode(ctx, "assays/Spatial"))
	require.NoError(t, s.MkNode(ctx, "assays/RNA"))
	require.NoError(t, s.MkNode(ctx, "assays/SCT/layers"))

	children, err := s.ListChildren(ctx, "assays")
	require.NoError(t, err)
	require.Equal(t, []string{"RNA", "SCT", "Spatial"}, children)
}

func TestMemoryStoreTypeMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.PutJSON(ctx, "meta/commands", map[string]any{"tool": "normalize"}))

	_, err := s.ReadMatrix(ctx, "meta/commands")
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = s.ReadSparse(ctx, "meta/commands")
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = s.ReadMatrix(ctx, "meta/absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAttrs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SetAttr(ctx, "reductions/pca", "assay", "SCT"))
	require.NoError(t, s.SetAttr(ctx, "reductions/pca", "global", "false"))

	v, ok, err := s.ReadAttr(ctx, "reductions/pca", "assay")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SCT", v)

	_, ok, err = s.ReadAttr(ctx, "reductions/pca", "missing")
	require.NoError(t, err)
	require.False(t, ok)

	// Absent node is not an error for attribute reads.
	_, ok, err = s.ReadAttr(ctx, "reductions/umap", "assay")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := map[string]string{"pipeline": "sctransform", "version": "2"}
	require.NoError(t, s.PutJSON(ctx, "meta/tools", in))

	var out map[string]string
	require.NoError(t, s.ReadJSON(ctx, "meta/tools", &out))
	require.Equal(t, in, out)
}

func TestMemoryStoreSparse(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sp := &model.SparseMatrix{
		Rows:    3,
		Cols:    3,
		Indptr:  []int64{0, 1, 2, 3},
		Indices: []int32{1, 2, 0},
		Values:  []float64{0.5, 0.25, 0.75},
	}
	require.NoError(t, s.PutSparse(ctx, "graphs/nn/adjacency", sp))

	got, err := s.ReadSparse(ctx, "graphs/nn/adjacency")
	require.NoError(t, err)
	require.Equal(t, sp, got)
}
