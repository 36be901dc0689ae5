package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"aspectwatch/internal/engine/sky"
)

// AnalyticProvider computes low-precision geocentric longitudes from mean
// orbital elements with the principal periodic perturbations of the Moon,
// Jupiter and Saturn. Nutation in longitude is applied to every body and
// annual aberration to the Sun. Accuracy is on the order of a few arcminutes
// for moments within a few centuries of 2000.
type AnalyticProvider struct{}

func NewAnalyticProvider() *AnalyticProvider {
	return &AnalyticProvider{}
}

// orbit holds mean elements at a day number d: node N, inclination i,
// argument of perihelion w, semi-major axis a, eccentricity e, mean anomaly M.
type orbit struct {
	N, i, w, a, e, M float64
}

// Day numbers are counted from 1999-12-31 00:00 (JD 2451543.5).
const elementsEpochJD = 2451543.5

func elementsFor(body sky.Body, d float64) (orbit, bool) {
	switch body {
	case sky.Sun:
		return orbit{0, 0, 282.9404 + 4.70935e-5*d, 1.0, 0.016709 - 1.151e-9*d, 356.0470 + 0.9856002585*d}, true
	case sky.Moon:
		return orbit{125.1228 - 0.0529538083*d, 5.1454, 318.0634 + 0.1643573223*d, 60.2666, 0.054900, 115.3654 + 13.0649929509*d}, true
	case sky.Mercury:
		return orbit{48.3313 + 3.24587e-5*d, 7.0047 + 5.00e-8*d, 29.1241 + 1.01444e-5*d, 0.387098, 0.205635 + 5.59e-10*d, 168.6562 + 4.0923344368*d}, true
	case sky.Venus:
		return orbit{76.6799 + 2.46590e-5*d, 3.3946 + 2.75e-8*d, 54.8910 + 1.38374e-5*d, 0.723330, 0.006773 - 1.302e-9*d, 48.0052 + 1.6021302244*d}, true
	case sky.Mars:
		return orbit{49.5574 + 2.11081e-5*d, 1.8497 - 1.78e-8*d, 286.5016 + 2.92961e-5*d, 1.523688, 0.093405 + 2.516e-9*d, 18.6021 + 0.5240207766*d}, true
	case sky.Jupiter:
		return orbit{100.4542 + 2.76854e-5*d, 1.3030 - 1.557e-7*d, 273.8777 + 1.64505e-5*d, 5.20256, 0.048498 + 4.469e-9*d, 19.8950 + 0.0830853001*d}, true
	case sky.Saturn:
		return orbit{113.6634 + 2.38980e-5*d, 2.4886 - 1.081e-7*d, 339.3939 + 2.97661e-5*d, 9.55475, 0.055546 - 9.499e-9*d, 316.9670 + 0.0334442282*d}, true
	}
	return orbit{}, false
}

func (p *AnalyticProvider) TropicalLongitude(ctx context.Context, body sky.Body, moment time.Time, _ Observer) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	jd := JulianDay(moment)
	d := jd - elementsEpochJD

	var lon float64
	switch body {
	case sky.Sun:
		sunLon, r := sunPosition(d)
		lon = sunLon - 20.4898/3600.0/r
	case sky.Moon:
		lon = moonLongitude(d)
	case sky.Mercury, sky.Venus, sky.Mars, sky.Jupiter, sky.Saturn:
		lon = planetLongitude(body, d)
	default:
		return 0, fmt.Errorf("analytic provider does not support %s", body)
	}

	return sky.Normalize(lon + nutationInLongitude(jd)), nil
}

// sunPosition returns the Sun's geometric longitude and distance (AU).
func sunPosition(d float64) (float64, float64) {
	o, _ := elementsFor(sky.Sun, d)
	v, r := solveOrbit(o)
	return sky.Normalize(v + o.w), r
}

func moonLongitude(d float64) float64 {
	o, _ := elementsFor(sky.Moon, d)
	x, y, _ := orbitToEcliptic(o)
	lon := rad2deg(math.Atan2(y, x))

	sun, _ := elementsFor(sky.Sun, d)
	ms := sky.Normalize(sun.M)
	mm := sky.Normalize(o.M)
	ls := ms + sun.w
	lm := mm + o.w + o.N
	dd := lm - ls
	f := lm - o.N

	lon += -1.274*sind(mm-2*dd) +
		0.658*sind(2*dd) -
		0.186*sind(ms) -
		0.059*sind(2*mm-2*dd) -
		0.057*sind(mm-2*dd+ms) +
		0.053*sind(mm+2*dd) +
		0.046*sind(2*dd-ms) +
		0.041*sind(mm-ms) -
		0.035*sind(dd) -
		0.031*sind(mm+ms) -
		0.015*sind(2*f-2*dd) +
		0.011*sind(mm-4*dd)
	return lon
}

func planetLongitude(body sky.Body, d float64) float64 {
	o, _ := elementsFor(body, d)
	xh, yh, zh := orbitToEcliptic(o)

	if body == sky.Jupiter || body == sky.Saturn {
		xh, yh, zh = perturbGiant(body, d, xh, yh, zh)
	}

	sunLon, rs := sunPosition(d)
	xg := xh + rs*cosd(sunLon)
	yg := yh + rs*sind(sunLon)
	return rad2deg(math.Atan2(yg, xg))
}

// perturbGiant applies the mutual Jupiter/Saturn perturbations to a
// heliocentric ecliptic vector.
func perturbGiant(body sky.Body, d, x, y, z float64) (float64, float64, float64) {
	jup, _ := elementsFor(sky.Jupiter, d)
	sat, _ := elementsFor(sky.Saturn, d)
	mj := sky.Normalize(jup.M)
	ms := sky.Normalize(sat.M)

	r := math.Sqrt(x*x + y*y + z*z)
	lon := rad2deg(math.Atan2(y, x))
	lat := rad2deg(math.Atan2(z, math.Hypot(x, y)))

	switch body {
	case sky.Jupiter:
		lon += -0.332*sind(2*mj-5*ms-67.6) -
			0.056*sind(2*mj-2*ms+21) +
			0.042*sind(3*mj-5*ms+21) -
			0.036*sind(mj-2*ms) +
			0.022*cosd(mj-ms) +
			0.023*sind(2*mj-3*ms+52) -
			0.016*sind(mj-5*ms-69)
	case sky.Saturn:
		lon += 0.812*sind(2*mj-5*ms-67.6) -
			0.229*cosd(2*mj-4*ms-2) +
			0.119*sind(mj-2*ms-3) +
			0.046*sind(2*mj-6*ms-69) +
			0.014*sind(mj-3*ms+32)
		lat += -0.020*cosd(2*mj-4*ms-2) +
			0.018*sind(2*mj-6*ms-49)
	}

	return r * cosd(lon) * cosd(lat), r * sind(lon) * cosd(lat), r * sind(lat)
}

// solveOrbit returns the true anomaly (degrees) and radius for o.
func solveOrbit(o orbit) (float64, float64) {
	m := sky.Normalize(o.M)
	e := o.e
	ecc := m + rad2deg(e*sind(m)*(1+e*cosd(m)))
	for iter := 0; iter < 20; iter++ {
		next := ecc - (ecc-rad2deg(e*sind(ecc))-m)/(1-e*cosd(ecc))
		if math.Abs(next-ecc) < 1e-9 {
			ecc = next
			break
		}
		ecc = next
	}

	xv := o.a * (cosd(ecc) - e)
	yv := o.a * math.Sqrt(1-e*e) * sind(ecc)
	return rad2deg(math.Atan2(yv, xv)), math.Hypot(xv, yv)
}

// orbitToEcliptic returns rectangular ecliptic coordinates relative to the
// orbit's focus.
func orbitToEcliptic(o orbit) (float64, float64, float64) {
	v, r := solveOrbit(o)
	u := v + o.w
	x := r * (cosd(o.N)*cosd(u) - sind(o.N)*sind(u)*cosd(o.i))
	y := r * (sind(o.N)*cosd(u) + cosd(o.N)*sind(u)*cosd(o.i))
	z := r * sind(u) * sind(o.i)
	return x, y, z
}

// nutationInLongitude returns Δψ in degrees from the four largest terms.
func nutationInLongitude(jd float64) float64 {
	t := centuriesSinceJ2000(jd)
	omega := 125.04452 - 1934.136261*t
	l := 280.4665 + 36000.7698*t
	lp := 218.3165 + 481267.8813*t
	arcsec := -17.20*sind(omega) - 1.32*sind(2*l) - 0.23*sind(2*lp) + 0.21*sind(2*omega)
	return arcsec / 3600.0
}

func sind(deg float64) float64   { return math.Sin(deg * math.Pi / 180) }
func cosd(deg float64) float64   { return math.Cos(deg * math.Pi / 180) }
func rad2deg(rad float64) float64 { return rad * 180 / math.Pi }
