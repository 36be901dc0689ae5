package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aspectwatch/internal/core/errors"
	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aspectwatch.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
version = 1

[session]
moment = "2024-03-20T12:00:00"
filter = "Moon"
latitude = 51.5
longitude = -0.12
nudge = "30m"

[aspects]
orb = 2.5
close_threshold = 0.5

[[aspects.rules]]
angle = 0.0
name = "Conjunction"
trend = "Positive"

[[aspects.rules]]
angle = 90.0
name = "Square"
trend = "Negative"

[[aspects.specific]]
a = "sun"
b = "Moon"
angle = 90.0
trend = "Neutral"

[[aspects.ranges]]
min = 85.0
max = 95.0
trend = "Positive"

[watch]
debounce = "1s"

[output]
tsv = "aspects.tsv"
markdown = "aspects.md"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.Filter != "Moon" {
		t.Errorf("filter = %q, want Moon", cfg.Session.Filter)
	}
	if cfg.Session.Nudge != 30*time.Minute {
		t.Errorf("nudge = %s, want 30m", cfg.Session.Nudge)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("debounce = %s, want 1s", cfg.Watch.Debounce)
	}
	if cfg.Provider.Kind != ProviderAnalytic {
		t.Errorf("provider kind = %q, want %q", cfg.Provider.Kind, ProviderAnalytic)
	}
	if cfg.CloseThreshold() != 0.5 {
		t.Errorf("close threshold = %v, want 0.5", cfg.CloseThreshold())
	}

	set, err := cfg.RuleSet()
	if err != nil {
		t.Fatalf("RuleSet failed: %v", err)
	}
	if set.Orb != 2.5 {
		t.Errorf("orb = %v, want 2.5", set.Orb)
	}
	if got := set.Table.Angles(); len(got) != 2 || got[0] != 0 || got[1] != 90 {
		t.Errorf("angles = %v, want [0 90]", got)
	}
	if len(set.Specific) != 1 || set.Specific[0].A != sky.Sun || set.Specific[0].B != sky.Moon {
		t.Errorf("specific = %+v", set.Specific)
	}
	if len(set.Ranges) != 1 || set.Ranges[0].Min != 85 || set.Ranges[0].Max != 95 {
		t.Errorf("ranges = %+v", set.Ranges)
	}

	obs := cfg.Observer()
	if obs.Latitude != 51.5 || obs.Longitude != -0.12 {
		t.Errorf("observer = %+v", obs)
	}

	moment, err := cfg.Moment(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC); !moment.Equal(want) {
		t.Errorf("moment = %s, want %s", moment, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version = 1\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.Filter != aspects.AllBodies {
		t.Errorf("filter = %q, want %q", cfg.Session.Filter, aspects.AllBodies)
	}
	if cfg.Session.Nudge != 15*time.Minute {
		t.Errorf("nudge = %s, want 15m", cfg.Session.Nudge)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("debounce = %s, want 200ms", cfg.Watch.Debounce)
	}
	if cfg.History.Enabled {
		t.Error("history must be disabled by default")
	}

	set, err := cfg.RuleSet()
	if err != nil {
		t.Fatal(err)
	}
	if set.Orb != aspects.DefaultOrb {
		t.Errorf("orb = %v, want %v", set.Orb, aspects.DefaultOrb)
	}
	if len(set.Table) != len(aspects.DefaultRules()) {
		t.Errorf("table has %d rules, want the default %d", len(set.Table), len(aspects.DefaultRules()))
	}
	if cfg.CloseThreshold() != aspects.DefaultCloseThreshold {
		t.Errorf("close threshold = %v", cfg.CloseThreshold())
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadExplicitZeroOrb(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[aspects]\norb = 0.0\n"))
	if err != nil {
		t.Fatal(err)
	}
	set, err := cfg.RuleSet()
	if err != nil {
		t.Fatal(err)
	}
	if set.Orb != 0 {
		t.Errorf("orb = %v, want explicit 0", set.Orb)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "[session\nfilter = 1", "malformed config"},
		{"unknown key", "[session]\ncolour = \"red\"\n", "session.colour"},
		{"negative orb", "[aspects]\norb = -1.0\n", "orb"},
		{"duplicate angle", "[[aspects.rules]]\nangle = 90.0\nname = \"A\"\ntrend = \"Positive\"\n[[aspects.rules]]\nangle = 90.0\nname = \"B\"\ntrend = \"Negative\"\n", "duplicate"},
		{"missing angle", "[[aspects.rules]]\nname = \"A\"\ntrend = \"Positive\"\n", "angle is required"},
		{"unknown specific body", "[[aspects.specific]]\na = \"Pluto\"\nb = \"Sun\"\nangle = 0.0\ntrend = \"Positive\"\n", "Pluto"},
		{"bad moment", "[session]\nmoment = \"yesterday\"\n", "cannot parse moment"},
		{"bad filter", "[session]\nfilter = \"[Sun\"\n", "filter"},
		{"latitude", "[session]\nlatitude = 91.0\n", "latitude"},
		{"provider kind", "[provider]\nkind = \"swiss\"\n", "provider.kind"},
		{"static missing bodies", "[provider]\nkind = \"static\"\n[provider.static]\nSun = 1.0\n", "missing bodies"},
		{"version", "version = 2\n", "unsupported config version"},
		{"tracing endpoint", "[observability]\nenabled = true\nenable_tracing = true\n", "otlp_endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not carry the path", err.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestStaticProviderConfig(t *testing.T) {
	content := `
[provider]
kind = "Static"

[provider.static]
Sun = 0.0
Moon = 120.0
Mercury = 350.0
Venus = 10.0
Mars = 90.0
Jupiter = 200.0
Saturn = 300.0
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.Kind != ProviderStatic {
		t.Errorf("kind = %q, want static", cfg.Provider.Kind)
	}
	lons, err := cfg.StaticLongitudes()
	if err != nil {
		t.Fatal(err)
	}
	if lons[sky.Moon] != 120 || len(lons) != 7 {
		t.Errorf("static longitudes = %v", lons)
	}
}

func TestParseMoment(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.FixedZone("X", 3600))
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", now.UTC()},
		{"now", now.UTC()},
		{"2024-03-20", time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)},
		{"2024-03-20T06:15", time.Date(2024, 3, 20, 6, 15, 0, 0, time.UTC)},
		{"2024-03-20 06:15:30", time.Date(2024, 3, 20, 6, 15, 30, 0, time.UTC)},
		{"2024-03-20T12:00:00+02:00", time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)},
		{"2024-03-20T12:00:00Z", time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseMoment(tt.in, now)
		if err != nil {
			t.Errorf("ParseMoment(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("ParseMoment(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMoment("20/03/2024", now); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
