package config

import (
	"fmt"
	"strings"
	"time"

	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/ephemeris"
	"aspectwatch/internal/engine/sky"
)

type Config struct {
	Version       int           `toml:"version"`
	Session       Session       `toml:"session"`
	Aspects       Aspects       `toml:"aspects"`
	Provider      Provider      `toml:"provider"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Session struct {
	Moment    string        `toml:"moment"` // empty = now; no offset = UTC
	Filter    string        `toml:"filter"` // body name or glob, "All" disables
	Latitude  float64       `toml:"latitude"`
	Longitude float64       `toml:"longitude"`
	Nudge     time.Duration `toml:"nudge"`
}

// Aspects uses pointers for numeric fields so that a missing key can be told
// apart from an explicit zero.
type Aspects struct {
	Orb            *float64        `toml:"orb"`
	CloseThreshold *float64        `toml:"close_threshold"`
	Rules          []RuleEntry     `toml:"rules"`
	Specific       []SpecificEntry `toml:"specific"`
	Ranges         []RangeEntry    `toml:"ranges"`
}

type RuleEntry struct {
	Angle *float64 `toml:"angle"`
	Name  string   `toml:"name"`
	Trend string   `toml:"trend"`
}

type SpecificEntry struct {
	A     string   `toml:"a"`
	B     string   `toml:"b"`
	Angle *float64 `toml:"angle"`
	Trend string   `toml:"trend"`
}

type RangeEntry struct {
	Min   *float64 `toml:"min"`
	Max   *float64 `toml:"max"`
	Trend string   `toml:"trend"`
}

type Provider struct {
	Kind   string             `toml:"kind"`
	Static map[string]float64 `toml:"static"`
}

const (
	ProviderAnalytic = "analytic"
	ProviderStatic   = "static"
)

type Watch struct {
	Debounce  time.Duration `toml:"debounce"`
	RateLimit float64       `toml:"rate_limit"` // triggers per second per source; negative disables
	Burst     int           `toml:"burst"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

type Output struct {
	TSV      string `toml:"tsv"`
	Markdown string `toml:"markdown"`
}

// DefaultConfig returns a fully defaulted configuration using the built-in
// rule table.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// RuleSet converts the aspects section into the matcher's rule set. An empty
// rules list selects the default table.
func (c *Config) RuleSet() (aspects.RuleSet, error) {
	set := aspects.RuleSet{Orb: aspects.DefaultOrb}
	if c.Aspects.Orb != nil {
		set.Orb = *c.Aspects.Orb
	}

	if len(c.Aspects.Rules) == 0 {
		set.Table = aspects.DefaultRules()
	} else {
		set.Table = make(aspects.RuleTable, 0, len(c.Aspects.Rules))
		for i, r := range c.Aspects.Rules {
			if r.Angle == nil {
				return aspects.RuleSet{}, fmt.Errorf("aspects.rules[%d].angle is required", i)
			}
			set.Table = append(set.Table, aspects.Rule{
				Angle: *r.Angle,
				Name:  strings.TrimSpace(r.Name),
				Trend: aspects.Trend(strings.TrimSpace(r.Trend)),
			})
		}
	}

	for i, r := range c.Aspects.Specific {
		if r.Angle == nil {
			return aspects.RuleSet{}, fmt.Errorf("aspects.specific[%d].angle is required", i)
		}
		a, ok := sky.ParseBody(r.A)
		if !ok {
			return aspects.RuleSet{}, fmt.Errorf("aspects.specific[%d].a references unknown body %q", i, r.A)
		}
		b, ok := sky.ParseBody(r.B)
		if !ok {
			return aspects.RuleSet{}, fmt.Errorf("aspects.specific[%d].b references unknown body %q", i, r.B)
		}
		set.Specific = append(set.Specific, aspects.SpecificPairRule{
			A:     a,
			B:     b,
			Angle: *r.Angle,
			Trend: aspects.Trend(strings.TrimSpace(r.Trend)),
		})
	}

	for i, r := range c.Aspects.Ranges {
		if r.Min == nil || r.Max == nil {
			return aspects.RuleSet{}, fmt.Errorf("aspects.ranges[%d] requires both min and max", i)
		}
		set.Ranges = append(set.Ranges, aspects.RangeRule{
			Min:   *r.Min,
			Max:   *r.Max,
			Trend: aspects.Trend(strings.TrimSpace(r.Trend)),
		})
	}

	return set, nil
}

// CloseThreshold returns the deviation below which aspects are flagged as close.
func (c *Config) CloseThreshold() float64 {
	if c.Aspects.CloseThreshold != nil {
		return *c.Aspects.CloseThreshold
	}
	return aspects.DefaultCloseThreshold
}

func (c *Config) Observer() ephemeris.Observer {
	return ephemeris.Observer{Latitude: c.Session.Latitude, Longitude: c.Session.Longitude}
}

// StaticLongitudes returns the provider.static table keyed by body.
func (c *Config) StaticLongitudes() (map[sky.Body]float64, error) {
	out := make(map[sky.Body]float64, len(c.Provider.Static))
	for name, lon := range c.Provider.Static {
		body, ok := sky.ParseBody(name)
		if !ok {
			return nil, fmt.Errorf("provider.static references unknown body %q", name)
		}
		out[body] = lon
	}
	return out, nil
}

// Moment resolves session.moment relative to now.
func (c *Config) Moment(now time.Time) (time.Time, error) {
	return ParseMoment(c.Session.Moment, now)
}

// Layouts without an offset are interpreted as UTC. A bare date means noon.
var momentLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// IsNowMoment reports whether value tracks the wall clock.
func IsNowMoment(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, "now")
}

// ParseMoment parses a user supplied timestamp. An empty value means now.
func ParseMoment(value string, now time.Time) (time.Time, error) {
	if IsNowMoment(value) {
		return now.UTC(), nil
	}
	value = strings.TrimSpace(value)
	for _, layout := range momentLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	if d, err := time.Parse("2006-01-02", value); err == nil {
		return d.Add(12 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse moment %q; use RFC3339 or YYYY-MM-DD[THH:MM[:SS]]", value)
}
