package aggregate

import "time"

// Range is a closed, contiguous set of calendar dates. From and To are
// normalized to midnight in their location.
type Range struct {
	From time.Time
	To   time.Time
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day returns the single-date range containing t.
func Day(t time.Time) Range {
	d := StartOfDay(t)
	return Range{From: d, To: d}
}

// Today returns today's single-date range.
func Today(now time.Time) Range { return Day(now) }

// Yesterday returns yesterday's single-date range.
func Yesterday(now time.Time) Range { return Day(now.AddDate(0, 0, -1)) }

// LastNDays returns the n calendar dates ending today inclusive.
func LastNDays(now time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	to := StartOfDay(now)
	return Range{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

// Week is the 7 calendar dates ending today inclusive.
func Week(now time.Time) Range { return LastNDays(now, 7) }

// Month is the 30 calendar dates ending today inclusive. For a specific
// named month use CalendarMonth.
func Month(now time.Time) Range { return LastNDays(now, 30) }

// CalendarMonth returns the full named calendar month.
func CalendarMonth(year int, month time.Month, loc *time.Location) Range {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Range{From: from, To: from.AddDate(0, 1, -1)}
}

// CalendarYear returns the full named calendar year.
func CalendarYear(year int, loc *time.Location) Range {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Range{From: from, To: time.Date(year, time.December, 31, 0, 0, 0, 0, loc)}
}

// Dates returns every date in the range in ascending order.
func (r Range) Dates() []time.Time {
	var out []time.Time
	for d := StartOfDay(r.From); !d.After(r.To); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Len returns the number of dates in the range.
func (r Range) Len() int {
	return len(r.Dates())
}

// String renders the range as "YYYY-MM-DD – YYYY-MM-DD".
func (r Range) String() string {
	const layout = "2006-01-02"
	if SameDay(r.From, r.To) {
		return r.From.Format(layout)
	}
	return r.From.Format(layout) + " – " + r.To.Format(layout)
}
