package formats

import (
	"fmt"
	"strings"
	"time"

	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
)

type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

// Generate writes the positions, aspects and summary sections separated by a
// blank line. Every row starts with its type.
func (t *TSVGenerator) Generate(data ReportData) (string, error) {
	sections := []string{
		t.GenerateFrame(data),
		t.GeneratePositions(data.Positions),
		t.GenerateAspects(data.Aspects),
		t.GenerateSummary(data.Summary),
	}
	return strings.Join(sections, "\n"), nil
}

func (t *TSVGenerator) GenerateFrame(data ReportData) string {
	var buf strings.Builder
	buf.WriteString("Type\tMomentUTC\tJulianDay\tAyanamsa\tOrb\tFilter\n")
	buf.WriteString(fmt.Sprintf("frame\t%s\t%.6f\t%.6f\t%.2f\t%s\n",
		data.Moment.UTC().Format(time.RFC3339),
		data.JulianDay,
		data.Ayanamsa,
		data.Orb,
		tsvField(nonEmpty(data.Filter, aspects.AllBodies)),
	))
	return buf.String()
}

func (t *TSVGenerator) GeneratePositions(rows sky.Positions) string {
	var buf strings.Builder
	buf.WriteString("Type\tBody\tLongitude\n")
	for _, p := range rows {
		buf.WriteString(fmt.Sprintf("position\t%s\t%.4f\n", p.Body, p.Longitude))
	}
	return buf.String()
}

func (t *TSVGenerator) GenerateAspects(rows []aspects.Aspect) string {
	var buf strings.Builder
	buf.WriteString("Type\tBodyA\tBodyB\tSeparation\tAngle\tAspect\tDeviation\tTrend\n")
	for _, a := range rows {
		buf.WriteString(fmt.Sprintf("aspect\t%s\t%s\t%.4f\t%g\t%s\t%.4f\t%s\n",
			a.A,
			a.B,
			a.Separation,
			a.Angle,
			tsvField(a.Name),
			a.Deviation,
			tsvField(string(a.Trend)),
		))
	}
	return buf.String()
}

func (t *TSVGenerator) GenerateSummary(rows []summary.Row) string {
	var buf strings.Builder
	buf.WriteString("Type\tBody\tTotal\tPositive\tNegative\tNeutral\n")
	for _, r := range rows {
		buf.WriteString(fmt.Sprintf("summary\t%s\t%d\t%d\t%d\t%d\n",
			r.Body, r.Total, r.Positive, r.Negative, r.Neutral))
	}
	return buf.String()
}
