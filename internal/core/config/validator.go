package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"aspectwatch/internal/core/errors"
	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
)

// Validate checks every section and returns the first problem as a
// VALIDATION_ERROR.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateSession,
		validateAspects,
		validateProvider,
		validateWatch,
		validateHistory,
		validateObservability,
		validateOutput,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			if errors.IsCode(err, errors.CodeValidationError) {
				return err
			}
			return errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateSession(cfg *Config) error {
	if _, err := ParseMoment(cfg.Session.Moment, time.Now()); err != nil {
		return fmt.Errorf("session.moment: %w", err)
	}
	if _, err := aspects.NewBodyFilter(cfg.Session.Filter); err != nil {
		return err
	}
	if math.IsNaN(cfg.Session.Latitude) || cfg.Session.Latitude < -90 || cfg.Session.Latitude > 90 {
		return fmt.Errorf("session.latitude must be within [-90,90], got %v", cfg.Session.Latitude)
	}
	if math.IsNaN(cfg.Session.Longitude) || cfg.Session.Longitude < -180 || cfg.Session.Longitude > 180 {
		return fmt.Errorf("session.longitude must be within [-180,180], got %v", cfg.Session.Longitude)
	}
	if cfg.Session.Nudge < 0 {
		return fmt.Errorf("session.nudge must not be negative, got %s", cfg.Session.Nudge)
	}
	return nil
}

func validateAspects(cfg *Config) error {
	set, err := cfg.RuleSet()
	if err != nil {
		return err
	}
	if err := set.Validate(); err != nil {
		return err
	}
	if t := cfg.CloseThreshold(); math.IsNaN(t) || t < 0 {
		return fmt.Errorf("aspects.close_threshold must not be negative, got %v", t)
	}
	return nil
}

func validateProvider(cfg *Config) error {
	switch cfg.Provider.Kind {
	case ProviderAnalytic:
		return nil
	case ProviderStatic:
		longitudes, err := cfg.StaticLongitudes()
		if err != nil {
			return err
		}
		missing := make([]string, 0)
		for _, body := range sky.Queried {
			lon, ok := longitudes[body]
			if !ok {
				missing = append(missing, string(body))
				continue
			}
			if math.IsNaN(lon) || math.IsInf(lon, 0) {
				return fmt.Errorf("provider.static.%s must be a finite number", body)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("provider.static is missing bodies: %s", strings.Join(missing, ", "))
		}
		return nil
	default:
		return fmt.Errorf("provider.kind must be one of: %s, %s; got %q", ProviderAnalytic, ProviderStatic, cfg.Provider.Kind)
	}
}

func validateWatch(cfg *Config) error {
	if math.IsNaN(cfg.Watch.RateLimit) || math.IsInf(cfg.Watch.RateLimit, 0) {
		return fmt.Errorf("watch.rate_limit must be a finite number")
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be within 1..65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when tracing is enabled")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	tsv := strings.TrimSpace(cfg.Output.TSV)
	md := strings.TrimSpace(cfg.Output.Markdown)
	if tsv != "" && md != "" && filepath.Clean(tsv) == filepath.Clean(md) {
		return fmt.Errorf("output conflict: output.tsv and output.markdown share the same path %q", tsv)
	}
	return nil
}
