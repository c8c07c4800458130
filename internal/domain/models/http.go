package models

// Requests for the dashboard HTTP endpoints.

type SeriesRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=500"`
}

type PartitionRequest struct {
	Partition string `query:"partition" json:"partition" default:"train" validate:"oneof=train validation test"`
}

// VolatilityResponse mirrors the volatility endpoint payload.
type VolatilityResponse struct {
	Ticker     string    `json:"ticker"`
	Data       []float64 `json:"data"`
	Dates      []string  `json:"dates"`
	Mean       float64   `json:"mean"`
	Std        float64   `json:"std"`
	DataPoints int       `json:"dataPoints"`
}

type PricesResponse struct {
	Ticker string    `json:"ticker"`
	Data   []float64 `json:"data"`
	Dates  []string  `json:"dates"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Latest float64   `json:"latest"`
}

type SummaryStatistics struct {
	Ticker     string  `json:"ticker"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	DataPoints int     `json:"dataPoints"`
}

type CorrelationResponse struct {
	Tickers []string    `json:"tickers"`
	Matrix  [][]float64 `json:"matrix"`
}
