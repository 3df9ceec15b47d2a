package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// KnownSourceNames lists the reference source plugins this node ships with.
// Validate warns (not errors) about an unrecognised source name, since
// third-party plugins are expected to register their own names too.
var KnownSourceNames = []string{"http", "mirror"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range [0, 65535]", cfg.Server.Port))
	}
	if cfg.Server.Password == "" {
		slog.Warn("server.password is empty; the node will accept any Authorization header")
	}

	if cfg.RoutePlanner.Enabled && len(cfg.RoutePlanner.CIDRs) == 0 {
		errs = append(errs, errors.New("route_planner.enabled is true but no cidrs are configured"))
	}

	for name := range cfg.Sources {
		if !knownSourceName(name) {
			slog.Warn("unknown source plugin name — may be a typo or a third-party plugin",
				"name", name, "known", KnownSourceNames)
		}
	}

	if cfg.Player.MaxQueueSize < 0 {
		errs = append(errs, fmt.Errorf("player.max_queue_size %d must be non-negative", cfg.Player.MaxQueueSize))
	}
	if cfg.Player.BufferDurationMs < 0 {
		errs = append(errs, fmt.Errorf("player.buffer_duration_ms %d must be non-negative", cfg.Player.BufferDurationMs))
	}
	if cfg.Player.UpdateIntervalSecs < 0 {
		errs = append(errs, fmt.Errorf("player.update_interval_secs %d must be non-negative", cfg.Player.UpdateIntervalSecs))
	}

	return errors.Join(errs...)
}

func knownSourceName(name string) bool {
	for _, n := range KnownSourceNames {
		if n == name {
			return true
		}
	}
	return false
}
