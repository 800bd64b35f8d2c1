package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/store"
)

// SeedStore is the store capability SeedCanonical needs.
type SeedStore interface {
	store.Store
	store.Writer
}

// Canonical container dimensions.
var (
	// Cells is the shared cell identifier axis.
	Cells = []string{"c1", "c2", "c3", "c4"}

	// SCTFeatures are the features of the SCT assay.
	SCTFeatures = []string{"CD3E", "GNLY", "MS4A1"}

	// ScaledFeatures is the feature subset kept by scale.data.
	ScaledFeatures = []string{"CD3E", "GNLY"}

	// SpatialFeatures are the features of the Spatial assay.
	SpatialFeatures = []string{"S1", "S2"}
)

// Dense builds a feature-by-cell (or generally row-by-column) matrix with
// deterministic values derived from the element index.
func Dense(rowNames, colNames []string) *model.Matrix {
	rows, cols := len(rowNames), len(colNames)
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = float64(i%7) + 0.5
	}
	return &model.Matrix{
		Rows:     rows,
		Cols:     cols,
		RowNames: rowNames,
		ColNames: colNames,
		Values:   values,
	}
}

// Embeddings builds a cell-by-component matrix for reduction fixtures.
func Embeddings(cells []string, components int) *model.Matrix {
	names := make([]string, components)
	for i := range names {
		names[i] = fmt.Sprintf("dim%d", i+1)
	}
	return Dense(cells, names)
}

// Adjacency builds a cell-by-cell ring adjacency in CSR form.
func Adjacency(n int) *model.SparseMatrix {
	indptr := make([]int64, n+1)
	indices := make([]int32, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		indptr[i+1] = int64(i + 1)
		indices[i] = int32((i + 1) % n)
		values[i] = 1
	}
	return &model.SparseMatrix{
		Rows:    n,
		Cols:    n,
		Indptr:  indptr,
		Indices: indices,
		Values:  values,
	}
}

// SeedCanonical writes the canonical container into st.
func SeedCanonical(tb testing.TB, st SeedStore) {
	tb.Helper()
	ctx := context.Background()

	// Assays.
	for _, layer := range []string{"counts", "data"} {
		require.NoError(tb, st.PutMatrix(ctx, "assays/SCT/layers/"+layer, Dense(SCTFeatures, Cells)))
	}
	require.NoError(tb, st.PutMatrix(ctx, "assays/SCT/layers/scale.data", Dense(ScaledFeatures, Cells)))
	require.NoError(tb, st.PutMatrix(ctx, "assays/Spatial/layers/counts", Dense(SpatialFeatures, Cells)))

	// Reductions.
	require.NoError(tb, st.SetAttr(ctx, "reductions/pca", "assay", "SCT"))
	require.NoError(tb, st.SetAttr(ctx, "reductions/pca", "global", "false"))
	require.NoError(tb, st.PutMatrix(ctx, "reductions/pca/embeddings", Embeddings(Cells, 2)))

	require.NoError(tb, st.SetAttr(ctx, "reductions/umap", "assay", "SCT"))
	require.NoError(tb, st.SetAttr(ctx, "reductions/umap", "global", "true"))
	require.NoError(tb, st.PutMatrix(ctx, "reductions/umap/embeddings", Embeddings(Cells, 2)))

	// Neighbor graph.
	require.NoError(tb, st.SetAttr(ctx, "graphs/nn", "assay", "SCT"))
	require.NoError(tb, st.PutSparse(ctx, "graphs/nn/adjacency", Adjacency(len(Cells))))

	// Spatial image.
	require.NoError(tb, st.SetAttr(ctx, "images/slice1", "global", "true"))
	require.NoError(tb, st.PutMatrix(ctx, "images/slice1/data", Dense([]string{"x", "y"}, []string{"px1", "px2"})))

	// Scalar metadata.
	require.NoError(tb, st.PutJSON(ctx, "meta/cells", map[string]any{
		"nCount_SCT": []float64{10, 20, 30, 40},
		"cluster":    []string{"T", "NK", "B", "T"},
	}))
	require.NoError(tb, st.PutJSON(ctx, "meta/commands", []string{"NormalizeData", "RunPCA", "RunUMAP"}))
	require.NoError(tb, st.PutJSON(ctx, "meta/misc", map[string]any{"note": "canonical fixture"}))
	require.NoError(tb, st.PutJSON(ctx, "meta/tools", map[string]any{"FindClusters": map[string]any{"resolution": 0.8}}))
}
