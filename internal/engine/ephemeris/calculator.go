package ephemeris

import (
	"context"
	"time"

	"aspectwatch/internal/core/errors"
	"aspectwatch/internal/engine/ayanamsa"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Calculator turns provider output into sidereal longitudes.
type Calculator struct {
	provider PositionProvider
	observer Observer
}

func NewCalculator(provider PositionProvider, observer Observer) *Calculator {
	return &Calculator{provider: provider, observer: observer}
}

// Frame describes the time reference used for one computation.
type Frame struct {
	Moment    time.Time
	JulianDay float64
	Ayanamsa  float64
}

// FrameAt converts moment to UTC and derives its Julian Day and ayanamsa.
func FrameAt(moment time.Time) Frame {
	utc := moment.UTC()
	jd := JulianDay(utc)
	return Frame{Moment: utc, JulianDay: jd, Ayanamsa: ayanamsa.Lahiri(jd)}
}

// Compute returns sidereal longitudes for every tracked body in canonical
// order. Any provider failure aborts the computation; partial results are
// never returned.
func (c *Calculator) Compute(ctx context.Context, moment time.Time) (sky.Positions, error) {
	frame := FrameAt(moment)
	ctx, span := observability.Tracer.Start(ctx, "ephemeris.Compute",
		trace.WithAttributes(attribute.Float64("julian_day", frame.JulianDay)))
	defer span.End()

	if c.provider == nil {
		return nil, errors.New(errors.CodeInternal, "position provider is required")
	}

	positions := make(sky.Positions, 0, len(sky.Bodies))
	for _, body := range sky.Queried {
		tropical, err := c.provider.TropicalLongitude(ctx, body, frame.Moment, c.observer)
		if err != nil {
			span.RecordError(err)
			wrapped := errors.Wrap(err, errors.CodeProviderError, "position provider failed")
			wrapped = errors.AddContext(wrapped, errors.CtxBody, string(body))
			return nil, errors.AddContext(wrapped, errors.CtxMoment, frame.Moment.Format(time.RFC3339))
		}
		positions = append(positions, sky.Position{
			Body:      body,
			Longitude: sky.Normalize(tropical - frame.Ayanamsa),
		})
	}

	rahu := MeanNode(frame.JulianDay)
	positions = append(positions,
		sky.Position{Body: sky.Rahu, Longitude: rahu},
		sky.Position{Body: sky.Ketu, Longitude: DescendingNode(rahu)},
	)
	return positions, nil
}
