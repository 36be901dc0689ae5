package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aspectwatch/internal/core/app"
	"aspectwatch/internal/core/config"
	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
)

func testSnapshot() *app.Snapshot {
	list := []aspects.Aspect{
		{A: sky.Sun, B: sky.Moon, Separation: 120, Angle: 120, Name: "Trine", Trend: aspects.Negative},
		{A: sky.Venus, B: sky.Jupiter, Separation: 120, Angle: 120, Name: "Trine", Trend: aspects.Negative},
	}
	return &app.Snapshot{
		Moment:    time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		Positions: sky.Positions{{Body: sky.Sun, Longitude: 1}},
		Aspects:   list,
		Filter:    "Moon",
		Filtered:  list[:1],
		Summary:   summary.Aggregate(list),
	}
}

func TestFromSnapshot(t *testing.T) {
	data := FromSnapshot(testSnapshot())
	if len(data.Aspects) != 1 {
		t.Fatalf("expected filtered aspects only, got %d", len(data.Aspects))
	}
	if len(data.Summary) != len(sky.Bodies) {
		t.Fatalf("expected a dense summary, got %d rows", len(data.Summary))
	}
	if data.Summary[0].Body != sky.Sun || data.Summary[0].Total != 1 {
		t.Fatalf("unexpected first summary row: %+v", data.Summary[0])
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	out := config.Output{
		TSV:      filepath.Join(dir, "reports", "aspects.tsv"),
		Markdown: filepath.Join(dir, "reports", "aspects.md"),
	}

	written, err := Write(testSnapshot(), out, "test")
	if err != nil {
		t.Fatalf("write reports: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 written files, got %v", written)
	}

	tsv, err := os.ReadFile(out.TSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tsv), "aspect\tSun\tMoon") || strings.Contains(string(tsv), "aspect\tVenus") {
		t.Fatalf("unexpected tsv content:\n%s", tsv)
	}

	md, err := os.ReadFile(out.Markdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "| Filter | Moon |") {
		t.Fatalf("unexpected markdown content:\n%s", md)
	}
}

func TestWriteSkipsUnsetTargets(t *testing.T) {
	written, err := Write(testSnapshot(), config.Output{}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 0 {
		t.Fatalf("expected nothing written, got %v", written)
	}

	if _, err := Write(nil, config.Output{}, "test"); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}
