package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and in file names.
const DateLayout = "2006-01-02"

// DateRange is an inclusive span of calendar days. Start is never after End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}

	return t, nil
}

// SingleDay returns the range [day, day].
func SingleDay(day time.Time) DateRange {
	d := Day(day)

	return DateRange{Start: d, End: d}
}

// Days returns the number of calendar days the range covers, both ends included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)

	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
