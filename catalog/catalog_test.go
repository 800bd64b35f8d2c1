package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scgo/model"
	"github.com/hupe1980/scgo/store"
	"github.com/hupe1980/scgo/testutil"
)

func TestBuildCanonical(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	testutil.SeedCanonical(t, st)

	g, err := Build(ctx, st)
	require.NoError(t, err)

	require.Len(t, g.Assays, 2)
	assert.Equal(t, []string{"counts", "data", "scale.data"}, g.Assays["SCT"].Layers)
	assert.Equal(t, []string{"counts"}, g.Assays["Spatial"].Layers)

	require.Len(t, g.Reductions, 2)
	assert.Equal(t, Entry{Name: "pca", Assay: "SCT", Global: false}, g.Reductions["pca"])
	assert.Equal(t, Entry{Name: "umap", Assay: "SCT", Global: true}, g.Reductions["umap"])

	require.Len(t, g.Graphs, 1)
	assert.Equal(t, Entry{Name: "nn", Assay: "SCT", Global: false}, g.Graphs["nn"])

	require.Len(t, g.Images, 1)
	assert.Equal(t, Entry{Name: "slice1", Assay: "", Global: true}, g.Images["slice1"])
}

func TestBuildEmptyContainer(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	g, err := Build(ctx, st)
	require.NoError(t, err)
	assert.Empty(t, g.Assays)
	assert.Empty(t, g.Reductions)
	assert.Empty(t, g.Graphs)
	assert.Empty(t, g.Images)
}

func TestBuildDefaults(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	require.NoError(t, st.PutMatrix(ctx, "assays/RNA/layers/counts", testutil.Dense([]string{"g"}, []string{"c"})))

	// No attributes at all: reductions default to non-global with no
	// owner, images default to global.
	require.NoError(t, st.PutMatrix(ctx, "reductions/tsne/embeddings", testutil.Embeddings([]string{"c"}, 1)))
	require.NoError(t, st.PutMatrix(ctx, "images/fov1/data", testutil.Dense([]string{"x"}, []string{"p"})))

	g, err := Build(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, Entry{Name: "tsne"}, g.Reductions["tsne"])
	assert.Equal(t, Entry{Name: "fov1", Global: true}, g.Images["fov1"])
}

func TestBuildGraphIgnoresGlobalFlag(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	require.NoError(t, st.PutMatrix(ctx, "assays/RNA/layers/counts", testutil.Dense([]string{"g"}, []string{"c"})))
	require.NoError(t, st.SetAttr(ctx, "graphs/snn", "assay", "RNA"))
	require.NoError(t, st.SetAttr(ctx, "graphs/snn", "global", "true"))
	require.NoError(t, st.PutSparse(ctx, "graphs/snn/adjacency", testutil.Adjacency(1)))

	g, err := Build(ctx, st)
	require.NoError(t, err)

	// Graphs have no global exemption regardless of stored flag.
	assert.False(t, g.Graphs["snn"].Global)
}

func TestBuildDanglingOwner(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	require.NoError(t, st.SetAttr(ctx, "reductions/pca", "assay", "Ghost"))
	require.NoError(t, st.PutMatrix(ctx, "reductions/pca/embeddings", testutil.Embeddings([]string{"c"}, 1)))

	_, err := Build(ctx, st)

	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, "reductions/pca", corrupt.Path)
}

func TestBuildMalformedGlobalFlag(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	require.NoError(t, st.PutMatrix(ctx, "assays/RNA/layers/counts", testutil.Dense([]string{"g"}, []string{"c"})))
	require.NoError(t, st.SetAttr(ctx, "graphs/nn", "assay", "RNA"))
	require.NoError(t, st.SetAttr(ctx, "graphs/nn", "global", "maybe"))
	require.NoError(t, st.PutSparse(ctx, "graphs/nn/adjacency", testutil.Adjacency(1)))

	_, err := Build(ctx, st)

	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Detail, "maybe")
}

func TestGraphLookups(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	testutil.SeedCanonical(t, st)

	g, err := Build(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, []string{"SCT", "Spatial"}, g.AssayNames())
	assert.Equal(t, []string{"SCT", "Spatial"}, g.AssaysWithLayer("counts"))
	assert.Equal(t, []string{"SCT"}, g.AssaysWithLayer("scale.data"))
	assert.Empty(t, g.AssaysWithLayer("tpm"))

	e, ok := g.Entry(model.FamilyGraph, "nn")
	require.True(t, ok)
	assert.Equal(t, "SCT", e.Assay)

	_, ok = g.Entry(model.FamilyReduction, "missing")
	assert.False(t, ok)
}
