package marketdata

import (
	"time"

	xutil "SpillNet/pkg/util"

	"github.com/scmhub/calendar"
)

// exchangeMIC maps index tickers to the ISO 10383 code of their home exchange.
var exchangeMIC = map[string]string{
	"^GSPC":  "xnys",
	"^GDAXI": "xfra",
	"^FCHI":  "xpar",
	"^FTSE":  "xlon",
	"^NSEI":  "xnse",
	"^N225":  "xtks",
	"^KS11":  "xkrx",
	"^HSI":   "xhkg",
}

// WeekdayExchange names the fallback calendar used when no exchange calendar is known.
const WeekdayExchange = "weekdays"

// TradingCalendar answers whether an exchange trades on a given day.
type TradingCalendar struct {
	mic string
	cal *calendar.Calendar
}

// CalendarFor returns the exchange calendar of ticker, or a Monday-Friday calendar
// when the exchange is unknown or unsupported.
func CalendarFor(ticker string) *TradingCalendar {
	mic, ok := exchangeMIC[ticker]
	if !ok {
		return &TradingCalendar{mic: WeekdayExchange}
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return &TradingCalendar{mic: WeekdayExchange}
	}
	return &TradingCalendar{mic: mic, cal: cal}
}

func (c *TradingCalendar) Exchange() string { return c.mic }

// IsTradingDay reports whether the calendar day of d is a session day.
func (c *TradingCalendar) IsTradingDay(d time.Time) bool {
	if c == nil || c.cal == nil {
		return xutil.IsWeekday(d)
	}
	y, m, day := d.UTC().Date()
	loc := c.cal.Loc
	if loc == nil {
		loc = time.UTC
	}
	return c.cal.IsBusinessDay(time.Date(y, m, day, 12, 0, 0, 0, loc))
}
