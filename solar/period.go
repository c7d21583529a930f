package solar

import (
	"strings"
	"time"
)

// =============================================================================
// ANALYSIS PERIOD - Lookback used by trend classification and BI
// =============================================================================

// Period selects how far back BI analysis looks from "now".
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// DefaultPeriod is used when the caller does not choose one.
const DefaultPeriod = PeriodMonth

// ParsePeriod accepts week|month|quarter|year; empty maps to DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return DefaultPeriod, nil
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	}
	return "", &InvalidValueError{Field: "period", Value: s, Err: ErrInvalidPeriod}
}

// Since returns the lookback start for now.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodQuarter:
		return now.AddDate(0, -3, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// Window returns [Since(now), now).
func (p Period) Window(now time.Time) Window {
	return Window{From: p.Since(now), To: now}
}
