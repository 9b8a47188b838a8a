// Package config loads runtime settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Env var names read by ApplyEnvOverrides.
const (
	EnvLoginTimeout = "LOGINFLOW_LOGIN_TIMEOUT"
	EnvQueueSize    = "LOGINFLOW_QUEUE_SIZE"
	EnvLogLevel     = "LOGINFLOW_LOG_LEVEL"
	EnvLogFormat    = "LOGINFLOW_LOG_FORMAT"
)

type Config struct {
	Store StoreConfig `yaml:"store"`
	Login LoginConfig `yaml:"login"`
	Log   LogConfig   `yaml:"log"`
}

type StoreConfig struct {
	QueueSize int `yaml:"queueSize"`
}

type LoginConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit is login attempts per second; 0 disables throttling.
	RateLimit float64 `yaml:"rateLimit"`
	Burst     int     `yaml:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store: StoreConfig{QueueSize: 1000},
		Login: LoginConfig{Timeout: 10 * time.Second, Burst: 1},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies env overrides. An empty path
// or a missing file yields the defaults (plus overrides); a file that does not
// parse is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read %s: %w", path, err)
		default:
			var parsed Config
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return cfg, fmt.Errorf("yaml unmarshal %s: %w", path, err)
			}
			Merge(&cfg, parsed)
		}
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge copies every non-zero field of src into dst.
func Merge(dst *Config, src Config) {
	if src.Store.QueueSize != 0 {
		dst.Store.QueueSize = src.Store.QueueSize
	}
	if src.Login.Timeout != 0 {
		dst.Login.Timeout = src.Login.Timeout
	}
	if src.Login.RateLimit != 0 {
		dst.Login.RateLimit = src.Login.RateLimit
	}
	if src.Login.Burst != 0 {
		dst.Login.Burst = src.Login.Burst
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

// ApplyEnvOverrides overwrites cfg from the LOGINFLOW_* environment.
func ApplyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvLoginTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLoginTimeout, err)
		}
		cfg.Login.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvQueueSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvQueueSize, err)
		}
		cfg.Store.QueueSize = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Log.Format = v
	}
	return nil
}
