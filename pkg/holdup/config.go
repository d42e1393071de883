package holdup

import "github.com/usrname0/holdup/internal/app/config"

// Config re-exports the root configuration struct so callers can construct
// or modify it programmatically.
type Config = config.Config

type (
	// GateConfig holds the wait conditions (0 disables a gate).
	GateConfig = config.GateConfig
	// SensorConfig selects and configures the temperature probe backend.
	SensorConfig = config.SensorConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// HistoryConfig configures the wait-event recorders.
	HistoryConfig = config.HistoryConfig
	// PostgresConfig configures the Postgres recorder.
	PostgresConfig = config.PostgresConfig
)

// LoadConfig loads YAML from disk, applies defaults, and validates.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
