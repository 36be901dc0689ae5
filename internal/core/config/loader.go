package config

import (
	"os"
	"sort"
	"strings"
	"time"

	"aspectwatch/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads, defaults, overrides from the environment and validates the
// configuration at path. Every failure is a VALIDATION_ERROR carrying the path,
// except a missing file which is NOT_FOUND.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read config"), errors.CtxPath, path)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes TOML content into a validated configuration.
func Parse(content string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "malformed config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, errors.Newf(errors.CodeValidationError, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Session.Filter) == "" {
		cfg.Session.Filter = "All"
	}
	if cfg.Session.Nudge == 0 {
		cfg.Session.Nudge = 15 * time.Minute
	}

	if strings.TrimSpace(cfg.Provider.Kind) == "" {
		cfg.Provider.Kind = ProviderAnalytic
	}
	cfg.Provider.Kind = strings.ToLower(strings.TrimSpace(cfg.Provider.Kind))

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
	if cfg.Watch.RateLimit == 0 {
		cfg.Watch.RateLimit = 8
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 4
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/aspectwatch.db"
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
}
