// Package sky holds the body identifiers and longitude containers shared by the
// ephemeris, aspect and summary stages.
package sky

import (
	"math"
	"strings"
)

type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
	Rahu    Body = "Rahu"
	Ketu    Body = "Ketu"
)

// Bodies lists every tracked body in canonical order.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Rahu, Ketu}

// Queried lists the bodies whose longitude comes from a position provider.
// The lunar nodes are derived instead.
var Queried = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn}

func (b Body) String() string { return string(b) }

// Known reports whether b is one of the tracked bodies.
func (b Body) Known() bool {
	parsed, ok := ParseBody(string(b))
	return ok && parsed == b
}

// ParseBody resolves a case-insensitive body name.
func ParseBody(name string) (Body, bool) {
	name = strings.TrimSpace(name)
	for _, b := range Bodies {
		if strings.EqualFold(name, string(b)) {
			return b, true
		}
	}
	return "", false
}

// Position is one body's sidereal longitude in degrees, in [0,360).
type Position struct {
	Body      Body
	Longitude float64
}

// Positions is an ordered set of body longitudes. Its order is the pairing
// order used by the aspect matcher.
type Positions []Position

func (p Positions) Lookup(body Body) (float64, bool) {
	for _, pos := range p {
		if pos.Body == body {
			return pos.Longitude, true
		}
	}
	return 0, false
}

func (p Positions) Bodies() []Body {
	out := make([]Body, 0, len(p))
	for _, pos := range p {
		out = append(out, pos.Body)
	}
	return out
}

// Map returns the positions keyed by body. Iteration order is lost.
func (p Positions) Map() map[Body]float64 {
	out := make(map[Body]float64, len(p))
	for _, pos := range p {
		out[pos.Body] = pos.Longitude
	}
	return out
}

// Normalize reduces deg into [0,360).
func Normalize(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}
