package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/usrname0/holdup/internal/adapters/probe"
)

// Config is the root YAML configuration for the holdup runtime.
type Config struct {
	Gate    GateConfig    `yaml:"gate"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
}

// GateConfig exposes the wait conditions with the numeric zero-disables
// convention of the host surface: 0 temperature means no temperature gate,
// 0 duration means no duration gate. Durations are plain seconds so the
// YAML stays tooling-friendly.
type GateConfig struct {
	TemperatureCelsius  float64 `yaml:"temperature_celsius"`
	DurationSeconds     float64 `yaml:"duration_seconds"`
	PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
	UnavailableGrace    int     `yaml:"unavailable_grace"`
}

// PollInterval converts the configured seconds to a time.Duration.
func (g GateConfig) PollInterval() time.Duration {
	return time.Duration(g.PollIntervalSeconds * float64(time.Second))
}

// Duration converts the configured seconds to a time.Duration.
func (g GateConfig) Duration() time.Duration {
	return time.Duration(g.DurationSeconds * float64(time.Second))
}

type SensorConfig struct {
	// Backend selects the probe: "nvidia", "hwmon", or "opcua".
	Backend string             `yaml:"backend"`
	Nvidia  probe.NvidiaConfig `yaml:"nvidia"`
	Hwmon   probe.HwmonConfig  `yaml:"hwmon"`
	OPCUA   probe.OPCUAConfig  `yaml:"opcua"`
}

type MetricsConfig struct {
	// Addr serves /metrics and /healthz; empty disables the server.
	Addr string `yaml:"addr"`
}

type HistoryConfig struct {
	// Dir enables the local JSONL wait log when set.
	Dir      string         `yaml:"dir"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	// ConnString enables the Postgres recorder when set.
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Gate.PollIntervalSeconds == 0 {
		c.Gate.PollIntervalSeconds = 1
	}
	if c.Gate.UnavailableGrace == 0 {
		c.Gate.UnavailableGrace = 3
	}
	if c.Sensor.Backend == "" {
		c.Sensor.Backend = "nvidia"
	}
	if c.History.Postgres.Table == "" {
		c.History.Postgres.Table = "wait_events"
	}
	c.Sensor.Nvidia.ApplyDefaults()
	c.Sensor.Hwmon.ApplyDefaults()
	c.Sensor.OPCUA.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Gate.PollIntervalSeconds < 0 {
		return fmt.Errorf("gate.poll_interval_seconds must not be negative")
	}
	if c.Gate.DurationSeconds < 0 {
		return fmt.Errorf("gate.duration_seconds must not be negative")
	}
	if c.Gate.UnavailableGrace < 0 {
		return fmt.Errorf("gate.unavailable_grace must not be negative")
	}

	switch c.Sensor.Backend {
	case "nvidia", "hwmon":
	case "opcua":
		if err := c.Sensor.OPCUA.Validate(); err != nil {
			return fmt.Errorf("sensor.opcua: %w", err)
		}
	default:
		return fmt.Errorf("sensor.backend must be one of nvidia, hwmon, opcua; got %q", c.Sensor.Backend)
	}
	return nil
}
