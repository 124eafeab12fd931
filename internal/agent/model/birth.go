package model

import (
	"fmt"
	"time"
)

// Date is a calendar date with no zone attached.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// String renders HH:MM, or HH:MM:SS when seconds are set.
func (c Clock) String() string {
	if c.Second == 0 {
		return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
	}
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// BirthQuery is the canonical, fully resolved input of a chart request.
// Offset is the UTC offset in hours that applied at the birth place on the
// birth date; it is resolved once and never recomputed.
type BirthQuery struct {
	Date      Date
	Time      Clock
	Latitude  float64
	Longitude float64
	Offset    float64
}

// WallClock returns the local birth time as a zone-less instant (UTC location).
func (q BirthQuery) WallClock() time.Time {
	return WallClock(q.Date, q.Time)
}

// WallClock combines a date and a clock into a time.Time in UTC used only as a
// carrier for the wall-clock fields.
func WallClock(d Date, c Clock) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}
