package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryGraph(t *testing.T) (*MemoryClient, Graph) {
	t.Helper()
	ctx := context.Background()
	c := NewMemoryClient(nil)
	db, err := c.Database(ctx, "kn")
	require.NoError(t, err)
	g, err := db.Graph(ctx, "ontologies")
	require.NoError(t, err)
	return c, g
}

func TestMemoryUpsertVertex(t *testing.T) {
	ctx := context.Background()
	_, g := newMemoryGraph(t)
	require.NoError(t, g.EnsureVertexCollection(ctx, "CL"))

	out, err := g.UpsertVertex(ctx, "CL", "0000235", map[string]any{"label": "macrophage"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	out, err = g.UpsertVertex(ctx, "CL", "0000235", map[string]any{"definition": "A cell"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out)

	doc, ok := g.(*MemoryGraph).Vertex("CL", "0000235")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"_key": "0000235", "label": "macrophage", "definition": "A cell"}, doc)
}

func TestMemoryUpsertRequiresCollection(t *testing.T) {
	_, g := newMemoryGraph(t)
	_, err := g.UpsertVertex(context.Background(), "GO", "1", nil)
	assert.ErrorIs(t, err, ErrCollectionMissing)
}

func TestMemoryUpsertEdgeSkipsDangling(t *testing.T) {
	ctx := context.Background()
	_, g := newMemoryGraph(t)
	require.NoError(t, g.EnsureVertexCollection(ctx, "CL"))
	require.NoError(t, g.EnsureEdgeCollection(ctx, "CL-CL", "CL", "CL"))
	_, err := g.UpsertVertex(ctx, "CL", "1", nil)
	require.NoError(t, err)

	out, err := g.UpsertEdge(ctx, "CL-CL", "1-2", "CL/1", "CL/2", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedDangling, out)
	assert.Equal(t, 0, g.(*MemoryGraph).EdgeCount())

	_, err = g.UpsertVertex(ctx, "CL", "2", nil)
	require.NoError(t, err)
	out, err = g.UpsertEdge(ctx, "CL-CL", "1-2", "CL/1", "CL/2", map[string]any{"Label": []string{"SUB_CLASS_OF"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	doc, ok := g.(*MemoryGraph).Edge("CL-CL", "1-2")
	require.True(t, ok)
	assert.Equal(t, "CL/1", doc["_from"])
	assert.Equal(t, "CL/2", doc["_to"])
}

func TestMemoryDropDatabase(t *testing.T) {
	ctx := context.Background()
	c, g := newMemoryGraph(t)
	require.NoError(t, g.EnsureVertexCollection(ctx, "CL"))
	_, err := g.UpsertVertex(ctx, "CL", "1", nil)
	require.NoError(t, err)

	require.NoError(t, c.DropDatabase(ctx, "kn"))
	_, ok := c.MemoryDatabase("kn")
	assert.False(t, ok)

	db, err := c.Database(ctx, "kn")
	require.NoError(t, err)
	fresh, err := db.Graph(ctx, "ontologies")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.(*MemoryGraph).VertexCount())
}

func TestSplitHandle(t *testing.T) {
	tests := []struct {
		handle     string
		collection string
		key        string
		ok         bool
	}{
		{"CL/0000235", "CL", "0000235", true},
		{"CL", "", "", false},
		{"/1", "", "", false},
		{"CL/", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			c, k, ok := SplitHandle(tt.handle)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.collection, c)
			assert.Equal(t, tt.key, k)
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", OutcomeInserted.String())
	assert.Equal(t, "skipped_dangling", OutcomeSkippedDangling.String())
}
