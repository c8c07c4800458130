package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	xhttp "SpillNet/pkg/http"
	applogger "SpillNet/pkg/logger"
	xutil "SpillNet/pkg/util"

	"golang.org/x/time/rate"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// chartResponse is the subset of the v8 chart payload used here. Quote values are
// pointers because Yahoo sends null for missing points.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol       string `json:"symbol"`
				ExchangeName string `json:"exchangeName"`
				Gmtoffset    int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooSource downloads daily bars from the Yahoo Finance chart endpoint.
type YahooSource struct {
	client  *xhttp.Client
	baseURL string
	limiter *rate.Limiter
	logger  *applogger.Logger
}

var _ domrepo.MarketDataSource = (*YahooSource)(nil)

type YahooOption func(*YahooSource)

func WithBaseURL(u string) YahooOption {
	return func(s *YahooSource) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithRequestRate caps outgoing requests per second; zero disables pacing.
func WithRequestRate(perSecond float64) YahooOption {
	return func(s *YahooSource) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithYahooLogger(l *applogger.Logger) YahooOption {
	return func(s *YahooSource) { s.logger = l }
}

func NewYahooSource(client *xhttp.Client, opts ...YahooOption) *YahooSource {
	s := &YahooSource{
		client:  client,
		baseURL: DefaultYahooBaseURL,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		logger:  applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) Fetch(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}

	var resp chartResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/" + url.PathEscape(ticker),
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0",
			"Accept":     "application/json",
		},
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"events":   {"history"},
			"period1":  {strconv.FormatInt(xutil.Day(from).Unix(), 10)},
			"period2":  {strconv.FormatInt(xutil.Day(to).AddDate(0, 0, 1).Unix(), 10)},
		},
	}, &resp)
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, domrepo.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}

	bars, dropped, err := parseChart(ticker, &resp)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		s.logger.Debug("dropped null points", applogger.String("ticker", ticker), applogger.Int("count", dropped))
	}
	return bars, nil
}

// parseChart converts the payload to bars keyed by exchange-local calendar day,
// dropping points with any null field.
func parseChart(ticker string, resp *chartResponse) ([]models.PriceBar, int, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, 0, fmt.Errorf("yahoo %s: api error %s: %s", ticker, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, 0, fmt.Errorf("yahoo %s: %w", ticker, domrepo.ErrNoData)
	}
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, 0, fmt.Errorf("yahoo %s: %w", ticker, domrepo.ErrNoData)
	}
	q := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(q.Open) != n || len(q.High) != n || len(q.Low) != n || len(q.Close) != n || len(q.Volume) != n {
		return nil, 0, fmt.Errorf("yahoo %s: misaligned quote arrays", ticker)
	}

	bars := make([]models.PriceBar, 0, n)
	dropped := 0
	for i, ts := range result.Timestamp {
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil || q.Volume[i] == nil {
			dropped++
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   xutil.Day(time.Unix(ts+result.Meta.Gmtoffset, 0)),
			Open:   *q.Open[i],
			High:   *q.High[i],
			Low:    *q.Low[i],
			Close:  *q.Close[i],
			Volume: *q.Volume[i],
		})
	}
	if len(bars) == 0 {
		return nil, dropped, fmt.Errorf("yahoo %s: %w", ticker, domrepo.ErrNoData)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, dropped, nil
}
