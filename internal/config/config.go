// Package config loads the service configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig configures NATS event publishing. Disabled by default;
// the service falls back to a no-op publisher.
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// SweeperConfig configures the background consistency sweeper. Interval is a
// Go duration string ("10m", "1h").
type SweeperConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
}

// IntervalDuration parses the configured sweep interval. Validation
// guarantees it parses after a successful Load.
func (s SweeperConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MetricsEnabled: true,
		},
		Database: DatabaseConfig{
			Path: "havenclean.db",
		},
		Events: EventsConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "havenclean",
		},
		Sweeper: SweeperConfig{
			Enabled:  true,
			Interval: "10m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path, starting from defaults. A missing path
// ("" or nonexistent only when path is "") means defaults plus environment.
// Values in the file may reference environment variables with $VAR syntax; a
// .env file in the working directory is loaded first without overriding the
// process environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deploy environments override the file without
// editing it. HAVENCLEAN_* variables win over both defaults and file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HAVENCLEAN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HAVENCLEAN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HAVENCLEAN_NATS_URL"); v != "" {
		cfg.Events.URL = v
		cfg.Events.Enabled = true
	}
	if v := os.Getenv("HAVENCLEAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HAVENCLEAN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HAVENCLEAN_SWEEP_INTERVAL"); v != "" {
		cfg.Sweeper.Interval = v
	}
	if v := os.Getenv("HAVENCLEAN_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.MetricsEnabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events are enabled")
	}
	if c.Sweeper.Enabled {
		d, err := time.ParseDuration(c.Sweeper.Interval)
		if err != nil {
			return fmt.Errorf("sweeper.interval is not a valid duration: %w", err)
		}
		if d < time.Minute {
			return fmt.Errorf("sweeper.interval must be at least 1m, got %s", c.Sweeper.Interval)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
