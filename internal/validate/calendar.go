package validate

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// micBySuffix maps Yahoo exchange suffixes to ISO 10383 market codes.
// Symbols without a suffix trade in New York.
var micBySuffix = map[string]string{
	"":    "xnys",
	".NS": "xnse",
	".BO": "xbom",
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

// tradingCalendar tells whether an exchange was open on a date. Exchanges
// without a known calendar trade Monday to Friday.
type tradingCalendar struct {
	cal *calendar.Calendar
	loc *time.Location
}

func calendarFor(symbol string) tradingCalendar {
	suffix := ""
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		suffix = symbol[i:]
	}
	mic, ok := micBySuffix[suffix]
	if !ok {
		return tradingCalendar{loc: time.UTC}
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return tradingCalendar{loc: time.UTC}
	}
	loc := cal.Loc
	if loc == nil {
		loc = time.UTC
	}
	return tradingCalendar{cal: cal, loc: loc}
}

// isTradingDay reports whether the exchange was open on the given local
// calendar date.
func (tc tradingCalendar) isTradingDay(year int, month time.Month, day int) bool {
	d := time.Date(year, month, day, 12, 0, 0, 0, tc.loc)
	if tc.cal == nil {
		return d.Weekday() != time.Saturday && d.Weekday() != time.Sunday
	}
	return tc.cal.IsBusinessDay(d)
}

// symbolOf returns the symbol part of a table name like "AAA.NS_historical".
func symbolOf(name string) string {
	if i := strings.Index(name, "_"); i > 0 {
		return name[:i]
	}
	return name
}
