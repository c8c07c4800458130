package marketdata

import (
	"fmt"
	"math"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	xutil "SpillNet/pkg/util"
)

// Fill reindexes raw bars onto every Monday-Friday day in [from, to] and fills gaps
// forward, then backward for a leading gap. Missing cells may also be NaN inside a
// present bar. Bars outside the range or on weekends are ignored.
func Fill(ticker string, bars []models.PriceBar, from, to time.Time, cal *TradingCalendar) (models.PriceSeries, models.FillReport, error) {
	days := xutil.BusinessDays(from, to)
	report := models.FillReport{
		Ticker:      ticker,
		Exchange:    cal.Exchange(),
		TradingDays: len(days),
		FilledCells: make(map[string]int, len(models.Columns)),
	}
	for _, col := range models.Columns {
		report.FilledCells[col] = 0
	}
	if len(days) == 0 {
		return models.PriceSeries{Ticker: ticker}, report, fmt.Errorf("fill %s: empty date range: %w", ticker, domrepo.ErrNoData)
	}

	byDay := make(map[time.Time]models.PriceBar, len(bars))
	for _, b := range bars {
		d := xutil.Day(b.Date)
		if d.Before(days[0]) || d.After(days[len(days)-1]) || !xutil.IsWeekday(d) {
			continue
		}
		byDay[d] = b
	}
	report.SourceRows = len(byDay)
	if len(byDay) == 0 {
		return models.PriceSeries{Ticker: ticker}, report, fmt.Errorf("fill %s: %w", ticker, domrepo.ErrNoData)
	}

	nan := math.NaN()
	grid := make([][5]float64, len(days))
	for i, d := range days {
		b, ok := byDay[d]
		if !ok {
			grid[i] = [5]float64{nan, nan, nan, nan, nan}
			report.FilledDays++
			if !cal.IsTradingDay(d) {
				report.HolidayFills++
			}
			continue
		}
		grid[i] = [5]float64{b.Open, b.High, b.Low, b.Close, b.Volume}
	}

	for c, col := range models.Columns {
		first := -1
		last := nan
		for i := range grid {
			v := grid[i][c]
			if math.IsNaN(v) {
				if !math.IsNaN(last) {
					grid[i][c] = last
					report.FilledCells[col]++
				}
				continue
			}
			if first < 0 {
				first = i
			}
			last = v
		}
		if first < 0 {
			return models.PriceSeries{Ticker: ticker}, report, fmt.Errorf("fill %s: column %s has no values: %w", ticker, col, domrepo.ErrNoData)
		}
		for i := 0; i < first; i++ {
			grid[i][c] = grid[first][c]
			report.FilledCells[col]++
		}
	}

	series := models.PriceSeries{Ticker: ticker, Bars: make([]models.PriceBar, len(days))}
	for i, d := range days {
		g := grid[i]
		series.Bars[i] = models.PriceBar{Date: d, Open: g[0], High: g[1], Low: g[2], Close: g[3], Volume: g[4]}
	}
	return series, report, nil
}
