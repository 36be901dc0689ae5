package ephemeris

import "aspectwatch/internal/engine/sky"

const (
	meanNodeAtJ2000 = 125.04
	meanNodeRate    = 19.3 // degrees per year, retrograde
)

// MeanNode returns the mean lunar ascending node (Rahu) for jd using a
// closed-form mean-motion approximation.
func MeanNode(jd float64) float64 {
	years := (jd - J2000) / 365.25
	return sky.Normalize(meanNodeAtJ2000 - years*meanNodeRate)
}

// DescendingNode returns the antipode of the ascending node (Ketu).
func DescendingNode(ascending float64) float64 {
	return sky.Normalize(ascending + 180)
}
