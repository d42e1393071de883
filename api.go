package holdup

import (
	"context"
	"io"
	"time"

	base "github.com/usrname0/holdup/pkg/holdup"
)

// Re-exported errors for convenience.
var (
	ErrUnavailable = base.ErrUnavailable
	ErrCancelled   = base.ErrCancelled
)

// Type aliases so consumers can import github.com/usrname0/holdup directly.
type (
	Config          = base.Config
	GateConfig      = base.GateConfig
	SensorConfig    = base.SensorConfig
	MetricsConfig   = base.MetricsConfig
	HistoryConfig   = base.HistoryConfig
	PostgresConfig  = base.PostgresConfig
	Gate            = base.Gate
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Request         = base.Request
	Outcome         = base.Outcome
	Progress        = base.Progress
	TempTarget      = base.TempTarget
	DurTarget       = base.DurTarget
	Probe           = base.Probe
	ProbeFunc       = base.ProbeFunc
	Clock           = base.Clock
	Reporter        = base.Reporter
	Recorder        = base.Recorder
	ValidationError = base.ValidationError
)

// Defaults mirrored from the core controller.
const (
	DefaultPollInterval     = base.DefaultPollInterval
	DefaultUnavailableGrace = base.DefaultUnavailableGrace
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Gate builder helpers.
func Conf(path string, opts ...RuntimeOption) (*Gate, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...RuntimeOption) (*Gate, error) {
	return base.ConfFromConfig(cfg, opts...)
}

// Target helpers.
func Celsius(v float64) TempTarget {
	return base.Celsius(v)
}

func For(d time.Duration) DurTarget {
	return base.For(d)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithProbe(p Probe) RuntimeOption {
	return base.WithProbe(p)
}

func WithClock(c Clock) RuntimeOption {
	return base.WithClock(c)
}

func WithReporter(r Reporter) RuntimeOption {
	return base.WithReporter(r)
}

func WithRecorder(r Recorder) RuntimeOption {
	return base.WithRecorder(r)
}

// Probe and reporter adapters.
func StaticProbe(celsius float64) Probe {
	return base.StaticProbe(celsius)
}

func MultiReporter(rs ...Reporter) Reporter {
	return base.MultiReporter(rs...)
}

func NewConsoleReporter(w io.Writer) Reporter {
	return base.NewConsoleReporter(w)
}

func NewChannelReporter(buffer int) (Reporter, <-chan Progress, <-chan Outcome, func()) {
	return base.NewChannelReporter(buffer)
}

// Hold is the shortest path: load config, wait, and return the payload.
func Hold(ctx context.Context, configPath string, payload any) (Outcome, error) {
	gate, err := Conf(configPath)
	if err != nil {
		return Outcome{}, err
	}
	return gate.Hold(ctx, payload)
}
