package graph

import "SpillNet/internal/domain/models"

// Build turns a spillover matrix into a directed market graph. Edges carry the
// matrix entry as weight and are kept only when strictly positive.
func Build(m *models.SpilloverMatrix) *models.MarketGraph {
	g := &models.MarketGraph{
		Nodes: append([]string(nil), m.Labels...),
		Edges: make([]models.Edge, 0, len(m.Labels)*len(m.Labels)),
	}
	for i, src := range m.Labels {
		for j, dst := range m.Labels {
			if i == j {
				continue
			}
			if w := m.Values[i][j]; w > 0 {
				g.Edges = append(g.Edges, models.Edge{Source: src, Target: dst, Weight: w})
			}
		}
	}
	return g
}
