package chronos

import (
	"math"
	"time"
	_ "time/tzdata"
)

// Returns current time, if [tz] is "" or "UTC", then returns as UTC
// If [tz] is "LOCAL", returns [time.Time] in current local time
//
// Othwerwise, [tz] can be any valid IANA timezone db file name.
// eg: "America/Chicago"
func Now(tz string) time.Time {
	loc, _ := time.LoadLocation(tz)
	return time.Now().In(loc)
}

func Dur(s string) time.Duration {
	t, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Millis converts [d] to the millisecond count the host expects for timeouts.
// Negative durations and the maximum duration both mean "no timeout" and map to [math.MaxUint64].
func Millis(d time.Duration) uint64 {
	if d < 0 || d == math.MaxInt64 {
		return math.MaxUint64
	}
	return uint64(d.Milliseconds())
}

// FromMillis is the inverse of [Millis].
func FromMillis(ms uint64) time.Duration {
	if ms >= uint64(math.MaxInt64/int64(time.Millisecond)) {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}
