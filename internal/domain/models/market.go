package models

import "time"

// PriceBar is one filled daily OHLCV row.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the bars of one market ordered by strictly increasing date.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

// Fill columns reported in FillReport.FilledCells.
const (
	ColumnOpen   = "Open"
	ColumnHigh   = "High"
	ColumnLow    = "Low"
	ColumnClose  = "Close"
	ColumnVolume = "Volume"
)

// Columns is the artifact column order after Date.
var Columns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// FillReport describes how much of a filled series was synthesised by forward/backward fill.
type FillReport struct {
	Ticker       string         `json:"ticker"`
	Exchange     string         `json:"exchange"`
	TradingDays  int            `json:"tradingDays"`
	SourceRows   int            `json:"sourceRows"`
	FilledDays   int            `json:"filledDays"`
	HolidayFills int            `json:"holidayFills"`
	FilledCells  map[string]int `json:"filledCells"`
}
