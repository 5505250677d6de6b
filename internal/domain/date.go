package domain

import "time"

// DateOf normalizes t to midnight UTC. All calendar arithmetic works on
// normalized dates so DST and wall-clock offsets can't shift a night.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween returns the number of nights in [checkIn, checkOut).
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(DateOf(checkOut).Sub(DateOf(checkIn)) / (24 * time.Hour))
}

// DaysHalfOpen lists every date in [from, to).
func DaysHalfOpen(from, to time.Time) []time.Time {
	from, to = DateOf(from), DateOf(to)
	var out []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DaysInclusive lists every date in [from, to].
func DaysInclusive(from, to time.Time) []time.Time {
	return DaysHalfOpen(from, DateOf(to).AddDate(0, 0, 1))
}

// RangesOverlap reports whether [aIn, aOut) and [bIn, bOut) share a night.
func RangesOverlap(aIn, aOut, bIn, bOut time.Time) bool {
	return DateOf(aIn).Before(DateOf(bOut)) && DateOf(bIn).Before(DateOf(aOut))
}
