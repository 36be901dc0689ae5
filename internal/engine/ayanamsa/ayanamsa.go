// Package ayanamsa converts Julian Days into the offset between the tropical and
// sidereal zodiacs.
package ayanamsa

const (
	// EpochJD1900 is the Julian Day of 1900-01-01 00:00 UT.
	EpochJD1900 = 2415020.5

	// DaysPerYear is the Julian year length used by the linear model.
	DaysPerYear = 365.25

	// Base is the Lahiri ayanamsa at EpochJD1900: 26° 36' 46.98".
	Base = 26.0 + 36.0/60.0 + 46.98/3600.0

	// AnnualRate is the precession rate in degrees per year (50.278650").
	AnnualRate = 50.278650 / 3600.0
)

// Lahiri returns the Lahiri ayanamsa in degrees for jd using a linear
// precession model anchored at EpochJD1900. Before the epoch the value keeps
// decreasing linearly.
func Lahiri(jd float64) float64 {
	years := (jd - EpochJD1900) / DaysPerYear
	return Base + years*AnnualRate
}
