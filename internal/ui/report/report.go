package report

import (
	"fmt"
	"strings"
	"time"

	"aspectwatch/internal/core/app"
	"aspectwatch/internal/core/config"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
	"aspectwatch/internal/shared/util"
	"aspectwatch/internal/ui/report/formats"
)

// FromSnapshot converts a snapshot into report input. The aspect list is the
// filtered one; the summary covers every body.
func FromSnapshot(snap *app.Snapshot) formats.ReportData {
	return formats.ReportData{
		Moment:    snap.Moment,
		JulianDay: snap.JulianDay,
		Ayanamsa:  snap.Ayanamsa,
		Orb:       snap.Orb,
		Filter:    snap.Filter,
		Positions: snap.Positions,
		Aspects:   snap.Filtered,
		Summary:   summary.Dense(snap.Summary, sky.Bodies),
		Close:     snap.Close,
	}
}

// Write renders the configured report files and returns the written paths.
func Write(snap *app.Snapshot, out config.Output, version string) ([]string, error) {
	if snap == nil {
		return nil, fmt.Errorf("no snapshot to report")
	}
	data := FromSnapshot(snap)
	written := make([]string, 0, 2)

	if path := strings.TrimSpace(out.TSV); path != "" {
		content, err := formats.NewTSVGenerator().Generate(data)
		if err != nil {
			return written, err
		}
		if err := util.WriteStringWithDirs(path, content, 0o644); err != nil {
			return written, fmt.Errorf("write tsv report %q: %w", path, err)
		}
		written = append(written, path)
	}

	if path := strings.TrimSpace(out.Markdown); path != "" {
		content, err := formats.NewMarkdownGenerator().Generate(data, formats.MarkdownReportOptions{
			Title:           "Aspect Report",
			Version:         version,
			GeneratedAt:     time.Now().UTC(),
			TableOfContents: true,
		})
		if err != nil {
			return written, err
		}
		if err := util.WriteStringWithDirs(path, content, 0o644); err != nil {
			return written, fmt.Errorf("write markdown report %q: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}
