package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes struct{}

type echoRequest struct {
	Name  string `param:"name" validate:"required"`
	Limit int    `query:"limit" default:"10" validate:"gte=1,lte=100"`
	Mode  string `query:"mode" default:"fast" validate:"oneof=fast slow"`
}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/echo/:name", func(c echo.Context) error {
		req := new(echoRequest)
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		if req.Name == "missing" {
			return AppErrorResponse(c, NotFoundError("Invalid ticker"))
		}
		return SuccessResponse(c, req)
	})
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})
	e.GET("/plain-error", func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("db down"))
	})
}

func serve(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body APIResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServer_SuccessAppliesDefaults(t *testing.T) {
	s := NewServer(routes{})
	rec, body := serve(t, s, "/echo/abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, "OK", body.Message)

	data := body.Data.(map[string]interface{})
	assert.Equal(t, "abc", data["Name"])
	assert.Equal(t, float64(10), data["Limit"])
	assert.Equal(t, "fast", data["Mode"])
}

func TestServer_ValidationErrors(t *testing.T) {
	s := NewServer(routes{})
	rec, body := serve(t, s, "/echo/abc?limit=500&mode=medium")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errs := body.Data.([]interface{})
	require.Len(t, errs, 2)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "ERR_LTE", first["code"])
	assert.Equal(t, "Limit", first["field"])
	second := errs[1].(map[string]interface{})
	assert.Equal(t, "ERR_ONEOF", second["code"])
	assert.Equal(t, "Mode must be one of: fast, slow", second["message"])
}

func TestServer_AppErrorStatus(t *testing.T) {
	s := NewServer(routes{})
	rec, body := serve(t, s, "/echo/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, body.Status)
	errs := body.Data.([]interface{})
	assert.Equal(t, "Invalid ticker", errs[0].(map[string]interface{})["message"])

	rec, body = serve(t, s, "/plain-error")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went wrong", body.Data)
}

func TestServer_RecoversPanics(t *testing.T) {
	s := NewServer(routes{})
	rec, body := serve(t, s, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", body.Message)
}

func TestServer_MetricsUseRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(routes{}, WithRegistry(reg))
	serve(t, s, "/echo/a")
	serve(t, s, "/echo/b")
	serve(t, s, "/boom")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `http_requests_total{method="GET",route="/echo/:name",status="200"} 2`)
	assert.Contains(t, out, `http_requests_total{method="GET",route="/boom",status="500"} 1`)
	assert.NotContains(t, out, `route="/echo/a"`)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := NewServer(routes{})
	req := httptest.NewRequest(http.MethodOptions, "/echo/a", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, HEAD, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestServer_CORSRefusesWritePreflight(t *testing.T) {
	s := NewServer(routes{})
	req := httptest.NewRequest(http.MethodOptions, "/echo/a", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestServer_CORSConfiguredOrigins(t *testing.T) {
	s := NewServer(routes{}, WithCORS("https://dash.example.com"))

	tests := []struct {
		origin string
		want   string
	}{
		{"https://dash.example.com", "https://dash.example.com"},
		{"https://evil.example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/echo/a", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Values("Vary"), "Origin")
		})
	}
}

func TestServer_CORSDisabled(t *testing.T) {
	s := NewServer(routes{}, WithCORS())
	req := httptest.NewRequest(http.MethodGet, "/echo/a", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "spillnet-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("spillnet-test"))
	var dest map[string]interface{}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"interval": {"1d"}},
	}, &dest)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTeapot, se.Code)
	assert.Equal(t, "short and stout", se.Body)
}

func TestClient_DecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]int
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]int{"doubled": in["n"] * 2})
	}))
	defer srv.Close()

	var out map[string]int
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   map[string]int{"n": 21},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out["doubled"])
}

func TestAppError(t *testing.T) {
	err := NotFoundErrorf("ticker %s", "X").WithParam("ticker", "X")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "X", err.Params["ticker"])

	inner := errors.New("inner")
	wrapped := InternalError("outer").WithError(inner)
	assert.ErrorIs(t, wrapped, inner)
	assert.Equal(t, "outer: inner", wrapped.Error())
}
