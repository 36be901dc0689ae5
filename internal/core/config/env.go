package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"aspectwatch/internal/core/errors"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ASPECTWATCH_[SECTION]_[KEY] (e.g., ASPECTWATCH_ASPECTS_ORB).
// A value that does not parse is a VALIDATION_ERROR naming the variable; cfg
// may be partially updated in that case and must be discarded.
func ApplyEnvOverrides(cfg *Config) error {
	overrides := []func() error{
		// Session
		func() error { return setEnvString(&cfg.Session.Moment, "ASPECTWATCH_SESSION_MOMENT") },
		func() error { return setEnvString(&cfg.Session.Filter, "ASPECTWATCH_SESSION_FILTER") },
		func() error { return setEnvFloat64(&cfg.Session.Latitude, "ASPECTWATCH_SESSION_LATITUDE") },
		func() error { return setEnvFloat64(&cfg.Session.Longitude, "ASPECTWATCH_SESSION_LONGITUDE") },
		func() error { return setEnvDuration(&cfg.Session.Nudge, "ASPECTWATCH_SESSION_NUDGE") },

		// Aspects
		func() error { return setEnvFloat64Ptr(&cfg.Aspects.Orb, "ASPECTWATCH_ASPECTS_ORB") },
		func() error {
			return setEnvFloat64Ptr(&cfg.Aspects.CloseThreshold, "ASPECTWATCH_ASPECTS_CLOSE_THRESHOLD")
		},

		// Provider
		func() error { return setEnvString(&cfg.Provider.Kind, "ASPECTWATCH_PROVIDER_KIND") },

		// Watch
		func() error { return setEnvDuration(&cfg.Watch.Debounce, "ASPECTWATCH_WATCH_DEBOUNCE") },
		func() error { return setEnvFloat64(&cfg.Watch.RateLimit, "ASPECTWATCH_WATCH_RATE_LIMIT") },
		func() error { return setEnvInt(&cfg.Watch.Burst, "ASPECTWATCH_WATCH_BURST") },

		// History
		func() error { return setEnvBool(&cfg.History.Enabled, "ASPECTWATCH_HISTORY_ENABLED") },
		func() error { return setEnvString(&cfg.History.Path, "ASPECTWATCH_HISTORY_PATH") },

		// Observability
		func() error { return setEnvBool(&cfg.Observability.Enabled, "ASPECTWATCH_OBSERVABILITY_ENABLED") },
		func() error { return setEnvInt(&cfg.Observability.Port, "ASPECTWATCH_OBSERVABILITY_PORT") },
		func() error {
			return setEnvString(&cfg.Observability.OTLPEndpoint, "ASPECTWATCH_OBSERVABILITY_OTLP_ENDPOINT")
		},
		func() error {
			return setEnvBool(&cfg.Observability.EnableTracing, "ASPECTWATCH_OBSERVABILITY_ENABLE_TRACING")
		},
	}

	for _, apply := range overrides {
		if err := apply(); err != nil {
			return err
		}
	}
	return nil
}

func invalidEnv(key, val, kind string, err error) error {
	wrapped := errors.Wrap(err, errors.CodeValidationError, "invalid "+kind+" in environment variable "+key+": "+strconv.Quote(val))
	return errors.AddContext(wrapped, errors.CtxField, key)
}

func setEnvString(target *string, key string) error {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
	return nil
}

func setEnvInt(target *int, key string) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return invalidEnv(key, val, "integer", err)
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = i
	return nil
}

func setEnvBool(target *bool, key string) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val)))
	if err != nil {
		return invalidEnv(key, val, "boolean", err)
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = b
	return nil
}

func parseEnvFloat64(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, invalidEnv(key, val, "number", err)
	}
	return f, nil
}

func setEnvFloat64(target *float64, key string) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := parseEnvFloat64(key, val)
	if err != nil {
		return err
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = f
	return nil
}

// setEnvFloat64Ptr leaves target untouched unless the variable parses.
func setEnvFloat64Ptr(target **float64, key string) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := parseEnvFloat64(key, val)
	if err != nil {
		return err
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = &f
	return nil
}

func setEnvDuration(target *time.Duration, key string) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return invalidEnv(key, val, "duration", err)
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = d
	return nil
}
