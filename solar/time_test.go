package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("BRT", -3*60*60)

func TestWindows_UseClockLocation(t *testing.T) {
	// 01:30 UTC on Mar 1 is still Feb 28 in Fortaleza.
	now := time.Date(2025, time.March, 1, 1, 30, 0, 0, time.UTC).In(brt)

	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, brt), Today(now).From)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, brt), MonthToDate(now).From)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, brt), YearToDate(now).From)
	assert.Equal(t, now, YearToDate(now).To)
}

func TestWindow_IsHalfOpen(t *testing.T) {
	from := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	w := Window{From: from, To: from.Add(time.Hour)}

	assert.True(t, w.Contains(from))
	assert.True(t, w.Contains(from.Add(59*time.Minute)))
	assert.False(t, w.Contains(from.Add(time.Hour)))
	assert.False(t, w.Contains(from.Add(-time.Nanosecond)))
}

func TestDaysIn_PartitionsWindow(t *testing.T) {
	// GIVEN: A window from mid-morning to mid-afternoon three days later
	// WHEN: Splitting it at local midnights
	// THEN: Parts are contiguous, only the inner ones are whole days

	w := Window{
		From: time.Date(2025, time.March, 10, 9, 15, 0, 0, brt),
		To:   time.Date(2025, time.March, 13, 15, 0, 0, 0, brt),
	}
	days := DaysIn(w)
	require.Len(t, days, 4)

	assert.Equal(t, w.From, days[0].From)
	assert.Equal(t, w.To, days[3].To)
	for i := 1; i < len(days); i++ {
		assert.Equal(t, days[i-1].To, days[i].From, "parts must be contiguous")
	}
	assert.False(t, days[0].IsWholeDay())
	assert.True(t, days[1].IsWholeDay())
	assert.True(t, days[2].IsWholeDay())
	assert.False(t, days[3].IsWholeDay())

	assert.Empty(t, DaysIn(Window{From: w.To, To: w.From}))
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, time.May, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in    string
		want  Period
		since time.Time
	}{
		{"", PeriodMonth, now.AddDate(0, -1, 0)},
		{"week", PeriodWeek, time.Date(2025, time.May, 24, 12, 0, 0, 0, time.UTC)},
		{" Quarter ", PeriodQuarter, now.AddDate(0, -3, 0)},
		{"YEAR", PeriodYear, time.Date(2024, time.May, 31, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePeriod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.since, p.Since(now))
			assert.Equal(t, Window{From: tt.since, To: now}, p.Window(now))
		})
	}

	_, err := ParsePeriod("decade")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.True(t, IsClientError(err))
}
