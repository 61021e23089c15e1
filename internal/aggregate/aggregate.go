// Package aggregate computes earnings summaries over a user's ledger.
// Everything here is a pure function of the record and a date range; each
// entry's stored earnings_at_rate is summed as-is, so past reports stay
// stable when the user's rate changes.
package aggregate

import (
	"fmt"
	"time"

	"github.com/wagetrack/wagetrack/internal/model"
)

// DaySummary is one date's slice of a summary. Dates without a session
// appear with zero values.
type DaySummary struct {
	Date     string  `json:"date"`
	Minutes  int     `json:"minutes"`
	Earnings float64 `json:"earnings"`
}

// Summary is the aggregation result for a date range.
type Summary struct {
	TotalMinutes  int          `json:"total_minutes"`
	TotalEarnings float64      `json:"total_earnings"`
	Days          []DaySummary `json:"days"`
}

// DaysWorked counts dates with at least one logged minute.
func (s Summary) DaysWorked() int {
	n := 0
	for _, d := range s.Days {
		if d.Minutes > 0 {
			n++
		}
	}
	return n
}

// Summarize aggregates rec's sessions over r.
func Summarize(rec *model.UserRecord, r Range) Summary {
	var sum Summary
	for _, d := range r.Dates() {
		key := d.Format(model.DateKey)
		ds := DaySummary{Date: key}
		if ses := rec.Session(key); ses != nil {
			ds.Minutes = ses.TotalMinutes
			ds.Earnings = ses.TotalEarnings
		}
		sum.TotalMinutes += ds.Minutes
		sum.TotalEarnings += ds.Earnings
		sum.Days = append(sum.Days, ds)
	}
	return sum
}

// WeekSummary is one Monday-to-Sunday slice of a calendar month.
type WeekSummary struct {
	Start    time.Time
	End      time.Time
	Minutes  int
	Earnings float64
}

// SummarizeWeeks breaks the named calendar month into Monday-based weeks,
// clipping the first and last week to the month boundaries and the final
// week to now when the month is the current one.
func SummarizeWeeks(rec *model.UserRecord, year int, month time.Month, now time.Time) []WeekSummary {
	monthRange := CalendarMonth(year, month, now.Location())
	end := monthRange.To
	if today := StartOfDay(now); today.Before(end) && !today.Before(monthRange.From) {
		end = today
	}

	var weeks []WeekSummary
	for monday := mondayOf(monthRange.From); !monday.After(end); monday = monday.AddDate(0, 0, 7) {
		start := monday
		if start.Before(monthRange.From) {
			start = monthRange.From
		}
		sunday := monday.AddDate(0, 0, 6)
		if sunday.After(end) {
			sunday = end
		}
		ws := WeekSummary{Start: start, End: sunday}
		s := Summarize(rec, Range{From: start, To: sunday})
		ws.Minutes = s.TotalMinutes
		ws.Earnings = s.TotalEarnings
		weeks = append(weeks, ws)
	}
	return weeks
}

// mondayOf returns the Monday of the week containing t.
func mondayOf(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // ISO: Sunday is day 7
	}
	return StartOfDay(t.AddDate(0, 0, -(wd - 1)))
}

// RoundMinutes converts a duration to whole minutes, rounding to the
// nearest minute.
func RoundMinutes(d time.Duration) int {
	return int((d + 30*time.Second) / time.Minute)
}

// FormatMinutes renders minutes as "8h 30m", "45m" or "0m".
func FormatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
