// Package config loads server settings from an optional YAML file, a .env
// file and CHESSCLOCK_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chessclock/internal/server/events"
	"chessclock/internal/server/service"
)

const envPrefix = "CHESSCLOCK_"

type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Clocks  ClocksConfig  `yaml:"clocks"`
	Events  EventsConfig  `yaml:"events"`
	Log     LogConfig     `yaml:"log"`
	PID     PIDConfig     `yaml:"pid"`
	Dev     bool          `yaml:"dev"`
}

type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Path string `yaml:"path"` // empty disables persistence
}

type ClocksConfig struct {
	Max             int           `yaml:"max"`
	IdleTTL         time.Duration `yaml:"idle_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type EventsConfig struct {
	NATS events.NATSConfig `yaml:"nats"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type PIDConfig struct {
	Path string `yaml:"path"`
	Lock bool   `yaml:"lock"`
}

// Default returns the settings used when nothing else is configured
func Default() Config {
	return Config{
		API: APIConfig{Host: "localhost", Port: 8080},
		Clocks: ClocksConfig{
			Max:             service.DefaultMaxClocks,
			IdleTTL:         service.IdleClockTTL,
			CleanupInterval: service.CleanupJobInterval,
		},
		Events: EventsConfig{NATS: events.DefaultNATSConfig()},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.API.Host = getEnv("API_HOST", c.API.Host)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.PID.Path = getEnv("PID_PATH", c.PID.Path)
	c.Events.NATS.URL = getEnv("NATS_URL", c.Events.NATS.URL)
	c.Events.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.Events.NATS.SubjectPrefix)

	var err error
	if c.API.Port, err = getEnvAsInt("API_PORT", c.API.Port); err != nil {
		return err
	}
	if c.Clocks.Max, err = getEnvAsInt("MAX_CLOCKS", c.Clocks.Max); err != nil {
		return err
	}
	if c.Clocks.IdleTTL, err = getEnvAsDuration("IDLE_TTL", c.Clocks.IdleTTL); err != nil {
		return err
	}
	if c.Events.NATS.Enabled, err = getEnvAsBool("NATS_ENABLED", c.Events.NATS.Enabled); err != nil {
		return err
	}
	if c.Dev, err = getEnvAsBool("DEV", c.Dev); err != nil {
		return err
	}
	if c.Log.Console, err = getEnvAsBool("LOG_CONSOLE", c.Log.Console); err != nil {
		return err
	}
	return nil
}

// Validate checks ranges the flag layer cannot express
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}
	if c.Clocks.Max <= 0 {
		return fmt.Errorf("clocks.max must be positive, got %d", c.Clocks.Max)
	}
	if c.Clocks.IdleTTL <= 0 || c.Clocks.CleanupInterval <= 0 {
		return fmt.Errorf("clocks.idle_ttl and clocks.cleanup_interval must be positive")
	}
	if c.PID.Lock && c.PID.Path == "" {
		return fmt.Errorf("pid.lock requires pid.path")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return d, nil
}
