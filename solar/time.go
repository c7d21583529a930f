package solar

import "time"

// =============================================================================
// CLOCK
// =============================================================================

// Clock returns "now". Injected so windows are testable.
type Clock func() time.Time

// SystemClock returns wall-clock time in loc (UTC when nil).
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// =============================================================================
// WINDOW - Half-open aggregation interval [From, To)
// =============================================================================

type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

func (w Window) String() string {
	return "[" + w.From.Format(time.RFC3339) + ", " + w.To.Format(time.RFC3339) + ")"
}

// Calendar boundaries are taken in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// Today, MonthToDate and YearToDate end at now (exclusive).
func Today(now time.Time) Window       { return Window{From: StartOfDay(now), To: now} }
func MonthToDate(now time.Time) Window { return Window{From: StartOfMonth(now), To: now} }
func YearToDate(now time.Time) Window  { return Window{From: StartOfYear(now), To: now} }

// DaysIn splits w at local midnights. The first and last entries may be
// partial days; the ones in between are whole.
func DaysIn(w Window) []Window {
	var days []Window
	cur := w.From
	for cur.Before(w.To) {
		next := StartOfDay(cur).AddDate(0, 0, 1)
		if next.After(w.To) {
			next = w.To
		}
		days = append(days, Window{From: cur, To: next})
		cur = next
	}
	return days
}

// IsWholeDay reports whether w spans exactly one local calendar day.
func (w Window) IsWholeDay() bool {
	return w.From.Equal(StartOfDay(w.From)) && w.To.Equal(StartOfDay(w.From).AddDate(0, 0, 1))
}
