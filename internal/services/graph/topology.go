package graph

import (
	"fmt"
	"math"

	"SpillNet/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// Topology is the index form of a market graph consumed by message passing layers.
// In[i] lists the sources aggregated into node i, including i itself; Norm[i][k] is
// the symmetric GCN coefficient of the edge In[i][k] -> i.
type Topology struct {
	Order []string
	In    [][]int
	Norm  [][]float64
}

// NewTopology indexes g by order. Edge weights only decide presence; self loops in
// g are ignored since one is always added.
func NewTopology(g *models.MarketGraph, order []string) (*Topology, error) {
	if g == nil {
		return nil, fmt.Errorf("new topology: nil graph")
	}
	index := make(map[string]int, len(order))
	for i, name := range order {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("new topology: duplicate node %q", name)
		}
		index[name] = i
	}

	n := len(order)
	seen := make([]map[int]bool, n)
	in := make([][]int, n)
	for i := range in {
		seen[i] = map[int]bool{i: true}
		in[i] = []int{i}
	}
	for _, e := range g.Edges {
		src, ok := index[e.Source]
		if !ok {
			return nil, fmt.Errorf("new topology: unknown source %q", e.Source)
		}
		dst, ok := index[e.Target]
		if !ok {
			return nil, fmt.Errorf("new topology: unknown target %q", e.Target)
		}
		if seen[dst][src] {
			continue
		}
		seen[dst][src] = true
		in[dst] = append(in[dst], src)
	}

	norm := make([][]float64, n)
	for i, sources := range in {
		norm[i] = make([]float64, len(sources))
		for k, j := range sources {
			norm[i][k] = 1 / math.Sqrt(float64(len(in[i])*len(in[j])))
		}
	}
	return &Topology{Order: append([]string(nil), order...), In: in, Norm: norm}, nil
}

// Size is the number of nodes.
func (t *Topology) Size() int { return len(t.Order) }

// Normalized returns the dense propagation matrix A_hat with A_hat[i][j] the GCN
// coefficient of j -> i and zero where no edge exists.
func (t *Topology) Normalized() *mat.Dense {
	n := t.Size()
	a := mat.NewDense(n, n, nil)
	for i, sources := range t.In {
		for k, j := range sources {
			a.Set(i, j, t.Norm[i][k])
		}
	}
	return a
}
