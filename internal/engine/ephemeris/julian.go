package ephemeris

import "time"

const (
	// J2000 is the Julian Day of 2000-01-01 12:00 TT.
	J2000 = 2451545.0

	unixEpochJD   = 2440587.5
	secondsPerDay = 86400.0
)

// JulianDay converts t to a Julian Day. Times are converted to UTC first, so a
// zoned moment and its UTC equivalent yield the same value.
func JulianDay(t time.Time) float64 {
	u := t.UTC()
	secs := float64(u.Unix()) + float64(u.Nanosecond())/1e9
	return unixEpochJD + secs/secondsPerDay
}

// TimeFromJulianDay is the inverse of JulianDay, returned in UTC.
func TimeFromJulianDay(jd float64) time.Time {
	secs := (jd - unixEpochJD) * secondsPerDay
	whole := int64(secs)
	nanos := int64((secs - float64(whole)) * 1e9)
	return time.Unix(whole, nanos).UTC()
}

// centuriesSinceJ2000 returns Julian centuries from J2000, the time argument
// of the nutation series.
func centuriesSinceJ2000(jd float64) float64 {
	return (jd - J2000) / 36525.0
}
