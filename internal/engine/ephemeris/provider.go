package ephemeris

import (
	"context"
	"fmt"
	"time"

	"aspectwatch/internal/engine/sky"
)

// Observer is the geographic position of the viewer. Geocentric providers
// accept it but do not use it.
type Observer struct {
	Latitude  float64
	Longitude float64
}

// PositionProvider supplies tropical geocentric apparent ecliptic longitudes,
// in degrees [0,360), for the ecliptic of date.
type PositionProvider interface {
	TropicalLongitude(ctx context.Context, body sky.Body, moment time.Time, obs Observer) (float64, error)
}

// ProviderFunc adapts a function to PositionProvider.
type ProviderFunc func(ctx context.Context, body sky.Body, moment time.Time, obs Observer) (float64, error)

func (f ProviderFunc) TropicalLongitude(ctx context.Context, body sky.Body, moment time.Time, obs Observer) (float64, error) {
	return f(ctx, body, moment, obs)
}

// StaticProvider returns fixed tropical longitudes regardless of the moment.
type StaticProvider struct {
	Longitudes map[sky.Body]float64
}

func NewStaticProvider(longitudes map[sky.Body]float64) *StaticProvider {
	copied := make(map[sky.Body]float64, len(longitudes))
	for body, lon := range longitudes {
		copied[body] = lon
	}
	return &StaticProvider{Longitudes: copied}
}

func (p *StaticProvider) TropicalLongitude(ctx context.Context, body sky.Body, _ time.Time, _ Observer) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	lon, ok := p.Longitudes[body]
	if !ok {
		return 0, fmt.Errorf("no static longitude for %s", body)
	}
	return sky.Normalize(lon), nil
}
