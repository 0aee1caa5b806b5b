// Package config loads the configuration for Providence's example
// binaries (the tracker, record, and replay CLIs). The core
// transport/discovery protocol itself has no environment variables or
// persistent state; everything here is strictly example-binary plumbing
// (capture device selection, log level, metrics listener, recording paths).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for cmd/providence-tracker and its
// sibling example binaries.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Record  RecordConfig  `mapstructure:"record"`
}

// CaptureConfig selects and paces the webcam capture stage.
type CaptureConfig struct {
	DeviceIndex  int           `mapstructure:"device_index"`
	GuardCPULoad float64       `mapstructure:"guard_cpu_load"`
	GuardPeriod  time.Duration `mapstructure:"guard_period"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Endpoint   string `mapstructure:"endpoint"`
}

// LoggingConfig controls the zap logger's level and encoding.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// RecordConfig configures the record/replay example CLIs.
type RecordConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from environment variables (prefixed
// PROVIDENCE_) and an optional providence.{yaml,toml,json,...} config file
// in the working directory or ./config, layered over hardcoded defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("capture.device_index", 0)
	v.SetDefault("capture.guard_cpu_load", 0.85)
	v.SetDefault("capture.guard_period", time.Second)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_addr", ":9096")
	v.SetDefault("metrics.endpoint", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("record.path", "recording.bin")

	v.SetConfigName("providence")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("PROVIDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.ReadInConfig() // config file is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
