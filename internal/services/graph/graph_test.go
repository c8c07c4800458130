package graph

import (
	"math"
	"testing"

	"SpillNet/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrix() *models.SpilloverMatrix {
	return &models.SpilloverMatrix{
		Labels: []string{"a", "b", "c"},
		Values: [][]float64{
			{5, 12.5, 0},
			{3, 0, -1},
			{0, 7, 0},
		},
	}
}

func TestBuild(t *testing.T) {
	g := Build(matrix())

	assert.Equal(t, []string{"a", "b", "c"}, g.Nodes)
	require.Len(t, g.Edges, 3)
	assert.Equal(t, models.Edge{Source: "a", Target: "b", Weight: 12.5}, g.Edges[0])
	assert.Equal(t, models.Edge{Source: "b", Target: "a", Weight: 3}, g.Edges[1])
	assert.Equal(t, models.Edge{Source: "c", Target: "b", Weight: 7}, g.Edges[2])

	for _, e := range g.Edges {
		assert.NotEqual(t, e.Source, e.Target)
		assert.Greater(t, e.Weight, 0.0)
	}
	assert.True(t, g.HasEdge("a", "b"))
	assert.False(t, g.HasEdge("b", "c"))
	assert.False(t, g.HasEdge("a", "a"))
}

func TestBuildEmpty(t *testing.T) {
	g := Build(&models.SpilloverMatrix{
		Labels: []string{"a", "b"},
		Values: [][]float64{{0, 0}, {0, 0}},
	})
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)
}

func TestNewTopology(t *testing.T) {
	g := Build(matrix())
	top, err := NewTopology(g, g.Nodes)
	require.NoError(t, err)
	require.Equal(t, 3, top.Size())

	// b receives from a and c; a receives from b; c receives nothing
	assert.Equal(t, []int{0, 1}, top.In[0])
	assert.Equal(t, []int{1, 0, 2}, top.In[1])
	assert.Equal(t, []int{2}, top.In[2])

	assert.InDelta(t, 1/math.Sqrt(6), top.Norm[0][1], 1e-12)
	assert.InDelta(t, 1.0, top.Norm[2][0], 1e-12)

	a := top.Normalized()
	assert.InDelta(t, 1.0/3, a.At(1, 1), 1e-12)
	assert.InDelta(t, 1/math.Sqrt(3), a.At(1, 2), 1e-12)
	assert.Equal(t, 0.0, a.At(2, 1))
}

func TestNewTopologyReordered(t *testing.T) {
	g := Build(matrix())
	top, err := NewTopology(g, []string{"c", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, top.In[1])
}

func TestNewTopologyErrors(t *testing.T) {
	g := Build(matrix())

	_, err := NewTopology(g, []string{"a", "b"})
	assert.Error(t, err)

	_, err = NewTopology(g, []string{"a", "a", "b", "c"})
	assert.Error(t, err)

	_, err = NewTopology(nil, []string{"a"})
	assert.Error(t, err)
}
