package api

import (
	"errors"
	"net/http"

	models "SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	"SpillNet/internal/services/spillover"
	"SpillNet/internal/usecase"
	xhttp "SpillNet/pkg/http"
	xlogger "SpillNet/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardEchoHandler serves the read-only analysis API.
type DashboardEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.DashboardUseCase
}

func NewDashboardEchoHandler(logger *xlogger.Logger, uc *usecase.DashboardUseCase) *DashboardEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardEchoHandler{logger: logger, uc: uc}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/markets", h.Markets)
	g.GET("/volatility/:ticker", h.Volatility)
	g.GET("/prices/:ticker", h.Prices)
	g.GET("/statistics", h.Statistics)
	g.GET("/correlations", h.Correlations)
	g.GET("/spillover", h.Spillover)
	g.GET("/graph", h.Graph)
	g.GET("/runs/latest", h.LatestRun)
}

func (h *DashboardEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *DashboardEchoHandler) Markets(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.uc.Markets())
}

func (h *DashboardEchoHandler) Volatility(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Volatility(c.Request().Context(), req.Ticker, req.Limit)
	if err != nil {
		return h.fail(c, "volatility", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Prices(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Prices(c.Request().Context(), req.Ticker, req.Limit)
	if err != nil {
		return h.fail(c, "prices", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// LatestRun returns the newest run report received from the report topic.
func (h *DashboardEchoHandler) LatestRun(c echo.Context) error {
	res, err := h.uc.LatestReport()
	if err != nil {
		return h.fail(c, "runs.latest", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Statistics(c echo.Context) error {
	res, err := h.uc.Statistics(c.Request().Context())
	if err != nil {
		return h.fail(c, "statistics", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Correlations(c echo.Context) error {
	res, err := h.uc.Correlations(c.Request().Context())
	if err != nil {
		return h.fail(c, "correlations", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Spillover(c echo.Context) error {
	req := &models.PartitionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Spillover(c.Request().Context(), models.Partition(req.Partition))
	if err != nil {
		return h.fail(c, "spillover", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Graph(c echo.Context) error {
	req := &models.PartitionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Graph(c.Request().Context(), models.Partition(req.Partition))
	if err != nil {
		return h.fail(c, "graph", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// fail maps usecase errors onto API errors; anything unrecognised is a logged 500.
func (h *DashboardEchoHandler) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrUnknownMarket):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("Invalid ticker").WithParam("ticker", c.Param("ticker")))
	case errors.Is(err, domrepo.ErrNoData), errors.Is(err, usecase.ErrNoMarkets):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("No data available"))
	case errors.Is(err, spillover.ErrInsufficientObservations), errors.Is(err, spillover.ErrSingularSystem):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_UNPROCESSABLE", "partition", err.Error(), http.StatusUnprocessableEntity))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
