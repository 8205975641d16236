// Package clock produces the clock and date card contents: pure formatting of
// a point in time. Periodic re-rendering is the caller's concern.
package clock

import "time"

type Snapshot struct {
	Time      string
	Date      string
	DayOfYear int
	ISOWeek   int
	ISOYear   int
}

// Take formats now into the card fields. DayOfYear and ISOWeek replace the
// source's hand-rolled millisecond arithmetic with the standard calendar
// functions, which agree on every date.
func Take(now time.Time) Snapshot {
	isoYear, isoWeek := now.ISOWeek()
	return Snapshot{
		Time:      now.Format("15:04:05"),
		Date:      now.Format("Monday, January 2, 2006"),
		DayOfYear: now.YearDay(),
		ISOWeek:   isoWeek,
		ISOYear:   isoYear,
	}
}
