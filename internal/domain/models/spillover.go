package models

// SpilloverMatrix is a directed percentage matrix. Values[i][j] is the share (0..100)
// of market j's forecast error variance caused by shocks in market i.
// Rows are sources, columns are targets, and the diagonal is zero.
type SpilloverMatrix struct {
	Labels  []string    `json:"labels"`
	Values  [][]float64 `json:"matrix"`
	Lags    int         `json:"lags"`
	Horizon int         `json:"horizon"`
}

func (m *SpilloverMatrix) Size() int { return len(m.Labels) }

func (m *SpilloverMatrix) At(i, j int) float64 { return m.Values[i][j] }

// Index returns the row of label or -1.
func (m *SpilloverMatrix) Index(label string) int {
	for i, l := range m.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// DirectionalSpillover aggregates a market's row and column of the matrix.
type DirectionalSpillover struct {
	Market string  `json:"market"`
	To     float64 `json:"to"`
	From   float64 `json:"from"`
	Net    float64 `json:"net"`
}

// SpilloverSummary is the per-partition result reported by a run.
type SpilloverSummary struct {
	Partition   Partition              `json:"partition"`
	Matrix      *SpilloverMatrix       `json:"matrix"`
	TotalIndex  float64                `json:"totalIndex"`
	Directional []DirectionalSpillover `json:"directional"`
	Graph       *MarketGraph           `json:"graph"`
}

// Edge is a directed weighted link source -> target.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// MarketGraph has one node per market and only strictly positive, non-self edges.
type MarketGraph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

func (g *MarketGraph) HasEdge(source, target string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}
