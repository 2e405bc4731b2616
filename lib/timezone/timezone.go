package timezone

import (
	"time"

	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Detroit")
	if err != nil {
		panic(err)
	}
}

// force timezone to be the portal's (Warren, MI) because our servers do not
// necessarily run there, due dates printed on the portal are local dates.
func Now() time.Time {
	return time.Now().In(Location)
}

// Date truncates a time to its calendar date. Calendar dates are always
// represented as midnight UTC so that they compare and subtract cleanly
// regardless of where they were produced.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in the portal's timezone.
func Today() time.Time {
	return Date(Now())
}

// DaysBetween returns the number of whole calendar days from `from` to `to`,
// negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}
