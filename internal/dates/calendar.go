package dates

import "time"

// IsBusinessDay reports whether d falls on a weekday. There is no holiday
// table: exchange holidays look like business days here, and the resolver's
// probe loop is what papers over them.
func IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextBusinessDay returns the first business day strictly after d.
func NextBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, 1)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PreviousBusinessDay returns the last business day strictly before d.
func PreviousBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, -1)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
