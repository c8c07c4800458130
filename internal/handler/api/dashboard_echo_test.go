package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SpillNet/internal/domain/models"
	"SpillNet/internal/repository"
	"SpillNet/internal/services/marketdata"
	"SpillNet/internal/usecase"
	"SpillNet/pkg/cache"
	xhttp "SpillNet/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var markets = []string{"^GSPC", "^GDAXI", "^HSI"}

func newTestServer(t *testing.T, points int) *xhttp.Server {
	t.Helper()
	s, _ := newTestDashboard(t, points)
	return s
}

func newTestDashboard(t *testing.T, points int) (*xhttp.Server, *usecase.DashboardUseCase) {
	t.Helper()
	src := marketdata.NewSyntheticSource(42, points, markets)
	ingest := usecase.NewIngestUseCase(src, repository.NewMemoryStore(), nil, nil, usecase.IngestConfig{
		Markets: markets,
		From:    time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	uc := usecase.NewDashboardUseCase(ingest, cache.NewMemo(cache.NewMemoryCache()), usecase.DefaultAnalysisConfig(), nil)
	return xhttp.NewServer(NewDashboardEchoHandler(nil, uc)), uc
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, s *xhttp.Server, target string, dest interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.Status)
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return rec.Code
}

func TestDashboard_HealthAndMarkets(t *testing.T) {
	s := newTestServer(t, 300)
	var health map[string]string
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz", &health))
	assert.Equal(t, "ok", health["status"])

	var got []string
	assert.Equal(t, http.StatusOK, get(t, s, "/api/markets", &got))
	assert.Equal(t, markets, got)
}

func TestDashboard_Volatility(t *testing.T) {
	s := newTestServer(t, 800)

	var v struct {
		Ticker     string    `json:"ticker"`
		Data       []float64 `json:"data"`
		Dates      []string  `json:"dates"`
		DataPoints int       `json:"dataPoints"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/volatility/%5EGSPC", &v))
	assert.Equal(t, "^GSPC", v.Ticker)
	assert.Len(t, v.Data, 500)
	assert.Equal(t, 778, v.DataPoints)

	require.Equal(t, http.StatusOK, get(t, s, "/api/volatility/%5EGSPC?limit=25", &v))
	assert.Len(t, v.Data, 25)
	assert.Len(t, v.Dates, 25)
}

func TestDashboard_Errors(t *testing.T) {
	s := newTestServer(t, 300)

	var errs []map[string]interface{}
	require.Equal(t, http.StatusNotFound, get(t, s, "/api/volatility/UNKNOWN", &errs))
	assert.Equal(t, "ERR_NOT_FOUND", errs[0]["code"])
	assert.Equal(t, "Invalid ticker", errs[0]["message"])

	require.Equal(t, http.StatusNotFound, get(t, s, "/api/prices/UNKNOWN", &errs))

	require.Equal(t, http.StatusBadRequest, get(t, s, "/api/volatility/%5EHSI?limit=501", &errs))
	assert.Equal(t, "ERR_LTE", errs[0]["code"])

	require.Equal(t, http.StatusBadRequest, get(t, s, "/api/spillover?partition=holdout", &errs))
	assert.Equal(t, "ERR_ONEOF", errs[0]["code"])
}

func TestDashboard_Prices(t *testing.T) {
	s := newTestServer(t, 300)
	var p struct {
		Data   []float64 `json:"data"`
		Min    float64   `json:"min"`
		Max    float64   `json:"max"`
		Latest float64   `json:"latest"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/prices/%5EGDAXI?limit=40", &p))
	require.Len(t, p.Data, 40)
	assert.Equal(t, 100.0, p.Data[0])
	assert.Equal(t, p.Data[39], p.Latest)
	assert.LessOrEqual(t, p.Min, p.Max)
}

func TestDashboard_StatisticsAndCorrelations(t *testing.T) {
	s := newTestServer(t, 300)

	var stats []map[string]interface{}
	require.Equal(t, http.StatusOK, get(t, s, "/api/statistics", &stats))
	require.Len(t, stats, 3)
	assert.Equal(t, "^GSPC", stats[0]["ticker"])
	assert.Equal(t, float64(278), stats[0]["dataPoints"])

	var corr struct {
		Tickers []string    `json:"tickers"`
		Matrix  [][]float64 `json:"matrix"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/correlations", &corr))
	assert.Equal(t, markets, corr.Tickers)
	for i := range corr.Matrix {
		assert.Equal(t, 1.0, corr.Matrix[i][i])
	}
}

func TestDashboard_SpilloverAndGraph(t *testing.T) {
	s := newTestServer(t, 500)

	var sp struct {
		Partition  string  `json:"partition"`
		TotalIndex float64 `json:"totalIndex"`
		Matrix     struct {
			Labels []string    `json:"labels"`
			Values [][]float64 `json:"matrix"`
		} `json:"matrix"`
		Directional []map[string]interface{} `json:"directional"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/spillover", &sp))
	assert.Equal(t, "train", sp.Partition)
	assert.Equal(t, markets, sp.Matrix.Labels)
	assert.Greater(t, sp.TotalIndex, 0.0)
	assert.Len(t, sp.Directional, 3)

	var g struct {
		Nodes []string `json:"nodes"`
		Edges []struct {
			Source string  `json:"source"`
			Target string  `json:"target"`
			Weight float64 `json:"weight"`
		} `json:"edges"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/graph?partition=test", &g))
	assert.Equal(t, markets, g.Nodes)
	for _, e := range g.Edges {
		assert.NotEqual(t, e.Source, e.Target)
		assert.Greater(t, e.Weight, 0.0)
	}
}

func TestDashboard_LatestRun(t *testing.T) {
	s, uc := newTestDashboard(t, 100)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/runs/latest", nil))

	uc.RecordReport(&models.RunReport{RunID: "run-1", Markets: markets, FinishedAt: time.Now().UTC()})
	var r struct {
		RunID   string   `json:"runId"`
		Markets []string `json:"markets"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/runs/latest", &r))
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, markets, r.Markets)
}
