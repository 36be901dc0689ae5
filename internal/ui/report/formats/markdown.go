package formats

import (
	"fmt"
	"strings"
	"time"

	"aspectwatch/internal/engine/aspects"
)

type MarkdownReportOptions struct {
	Title               string
	Version             string
	GeneratedAt         time.Time
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(data ReportData, opts MarkdownReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: " + nonEmpty(opts.Title, "Aspect Report") + "\n")
	b.WriteString("moment: " + data.Moment.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# " + nonEmpty(opts.Title, "Aspect Report") + "\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Overview](#overview)\n")
		b.WriteString("- [Positions](#positions)\n")
		b.WriteString("- [Aspects](#aspects)\n")
		if len(data.Close) > 0 {
			b.WriteString("- [Close Aspects](#close-aspects)\n")
		}
		b.WriteString("- [Summary](#summary)\n\n")
	}

	b.WriteString("## Overview\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Moment (UTC) | %s |\n", data.Moment.UTC().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("| Julian Day | %.6f |\n", data.JulianDay))
	b.WriteString(fmt.Sprintf("| Ayanamsa (Lahiri) | %.6f° |\n", data.Ayanamsa))
	b.WriteString(fmt.Sprintf("| Orb | %.2f° |\n", data.Orb))
	b.WriteString(fmt.Sprintf("| Filter | %s |\n", escapeCell(nonEmpty(data.Filter, aspects.AllBodies))))
	b.WriteString(fmt.Sprintf("| Aspects | %d |\n", len(data.Aspects)))
	b.WriteString(fmt.Sprintf("| Close Aspects | %d |\n\n", len(data.Close)))

	m.writePositions(&b, data)
	m.writeAspects(&b, "Aspects", data.Aspects, opts.CollapsibleSections)
	if len(data.Close) > 0 {
		m.writeAspects(&b, "Close Aspects", data.Close, false)
	}
	m.writeSummary(&b, data)

	return b.String(), nil
}

func (m *MarkdownGenerator) writePositions(b *strings.Builder, data ReportData) {
	b.WriteString("## Positions\n")
	b.WriteString("| Body | Degree (Sidereal) |\n")
	b.WriteString("| --- | ---: |\n")
	for _, p := range data.Positions {
		b.WriteString(fmt.Sprintf("| %s | %s |\n", p.Body, formatDegrees(p.Longitude)))
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeAspects(b *strings.Builder, title string, rows []aspects.Aspect, collapsible bool) {
	b.WriteString("## " + title + "\n")
	if len(rows) == 0 {
		b.WriteString("No aspects within orb.\n\n")
		return
	}
	if collapsible {
		b.WriteString(fmt.Sprintf("<details><summary>%d aspects</summary>\n\n", len(rows)))
	}
	b.WriteString("| Body 1 | Body 2 | Separation | Aspect | Deviation | Trend |\n")
	b.WriteString("| --- | --- | ---: | --- | ---: | --- |\n")
	for _, a := range rows {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			a.A,
			a.B,
			formatDegrees(a.Separation),
			escapeCell(a.Name),
			formatDegrees(a.Deviation),
			escapeCell(string(a.Trend)),
		))
	}
	if collapsible {
		b.WriteString("\n</details>\n")
	}
	b.WriteString("\n")
}

func (m *MarkdownGenerator) writeSummary(b *strings.Builder, data ReportData) {
	b.WriteString("## Summary\n")
	b.WriteString("| Body | Total | Positive | Negative | Neutral |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
	for _, r := range data.Summary {
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d |\n", r.Body, r.Total, r.Positive, r.Negative, r.Neutral))
	}
	b.WriteString("\n")
}
