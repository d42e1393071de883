package holdup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usrname0/holdup/internal/adapters/clock"
	"github.com/usrname0/holdup/internal/adapters/history"
	"github.com/usrname0/holdup/internal/adapters/probe"
	"github.com/usrname0/holdup/internal/adapters/reporter"
	"github.com/usrname0/holdup/internal/app/config"
	"github.com/usrname0/holdup/internal/app/gate"
	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// RuntimeOption customizes the dependencies wired by NewRuntime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	probe     ports.Probe
	clock     ports.Clock
	reporters []ports.Reporter
	recorders []ports.Recorder
}

// WithProbe injects a custom sensor backend.
func WithProbe(p Probe) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.probe = p
	}
}

// WithClock injects a custom clock, mostly for tests.
func WithClock(c Clock) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.clock = c
	}
}

// WithReporter adds a progress sink. Supplying any reporter replaces the
// default console/metrics reporters.
func WithReporter(r Reporter) RuntimeOption {
	return func(o *runtimeOverrides) {
		if r != nil {
			o.reporters = append(o.reporters, r)
		}
	}
}

// WithRecorder adds a wait-event recorder alongside any configured ones.
func WithRecorder(r Recorder) RuntimeOption {
	return func(o *runtimeOverrides) {
		if r != nil {
			o.recorders = append(o.recorders, r)
		}
	}
}

// Runtime wires probe, clock, reporters, and recorders around the gate so
// holdup can be embedded in any Go service or driven from the CLI.
type Runtime struct {
	cfg       *config.Config
	probe     ports.Probe
	clock     ports.Clock
	reporter  ports.Reporter
	recorders []ports.Recorder

	db         *sql.DB
	closers    []io.Closer
	metricsSrv *http.Server
}

// NewRuntime bootstraps the default adapters from configuration: sensor
// backend per sensor.backend, wall clock, console + Prometheus reporters,
// and the recorders enabled under history. RuntimeOption values override
// any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	rt := &Runtime{cfg: cfg}

	rt.clock = overrides.clock
	if rt.clock == nil {
		rt.clock = clock.Wall{}
	}

	var err error
	rt.probe = overrides.probe
	if rt.probe == nil && cfg.Gate.TemperatureCelsius > 0 {
		rt.probe, err = buildProbe(cfg.Sensor)
		if err != nil {
			return nil, err
		}
	}

	if len(overrides.reporters) > 0 {
		rt.reporter = reporter.Multi(overrides.reporters)
	} else {
		reps := reporter.Multi{reporter.NewConsole(os.Stdout)}
		if cfg.Metrics.Addr != "" {
			reps = append(reps, reporter.NewProm())
		}
		rt.reporter = reps
	}

	rt.recorders = overrides.recorders
	if cfg.History.Dir != "" {
		fileLog, err := history.NewFileLog(cfg.History.Dir)
		if err != nil {
			return nil, err
		}
		rt.recorders = append(rt.recorders, fileLog)
		rt.closers = append(rt.closers, fileLog)
	}
	if cfg.History.Postgres.ConnString != "" {
		db, err := sql.Open("postgres", cfg.History.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		rt.db = db
		rt.recorders = append(rt.recorders, history.NewPostgresRecorder(db, cfg.History.Postgres.Table))
	}

	if closer, ok := rt.probe.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	return rt, nil
}

func buildProbe(cfg config.SensorConfig) (ports.Probe, error) {
	switch cfg.Backend {
	case "nvidia":
		return probe.NewNvidia(cfg.Nvidia), nil
	case "hwmon":
		return probe.NewHwmon(cfg.Hwmon), nil
	case "opcua":
		return probe.NewOPCUA(cfg.OPCUA)
	default:
		return nil, fmt.Errorf("unknown sensor backend %q", cfg.Backend)
	}
}

// Start launches the metrics endpoint when configured. It returns
// immediately; Hold performs the actual wait.
func (rt *Runtime) Start() error {
	if rt == nil {
		return fmt.Errorf("runtime is nil")
	}
	if rt.cfg.Metrics.Addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rt.metricsSrv = &http.Server{
		Addr:    rt.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := rt.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("holdup: metrics server exited: %v", err)
		}
	}()
	return nil
}

// Hold blocks until the configured gates are satisfied and returns the
// payload unchanged. Completed outcomes are fanned out to reporters and
// recorders; recorder failures are logged, never surfaced.
func (rt *Runtime) Hold(ctx context.Context, payload any) (Outcome, error) {
	req := domain.Request{
		Payload:          payload,
		PollInterval:     rt.cfg.Gate.PollInterval(),
		UnavailableGrace: rt.cfg.Gate.UnavailableGrace,
	}
	if rt.cfg.Gate.TemperatureCelsius > 0 {
		req.Temperature = domain.TempTarget{Set: true, Celsius: rt.cfg.Gate.TemperatureCelsius}
	}
	if rt.cfg.Gate.DurationSeconds > 0 {
		req.Duration = domain.DurTarget{Set: true, Value: rt.cfg.Gate.Duration()}
	}

	out, err := gate.Run(ctx, req, rt.probe, rt.clock, rt.reporter)
	if err != nil {
		return Outcome{}, err
	}

	rt.finish(out)
	return out, nil
}

func (rt *Runtime) finish(out domain.Outcome) {
	func() {
		defer func() { _ = recover() }()
		rt.reporter.Done(out)
	}()

	for _, rec := range rt.recorders {
		if err := rec.Record(out); err != nil {
			log.Printf("holdup: %s recorder: %v", rec.Name(), err)
		}
	}
}

// Recent returns the newest entries from the file history log, oldest
// first. It reports an error when history.dir is not configured.
func (rt *Runtime) Recent(n int) ([]history.Entry, error) {
	for _, rec := range rt.recorders {
		if fl, ok := rec.(*history.FileLog); ok {
			return fl.Tail(n)
		}
	}
	return nil, fmt.Errorf("file history is not configured")
}

// Probe takes a single sensor sample outside of any wait.
func (rt *Runtime) Probe(ctx context.Context) (float64, error) {
	if rt.probe == nil {
		p, err := buildProbe(rt.cfg.Sensor)
		if err != nil {
			return 0, err
		}
		rt.probe = p
		if closer, ok := p.(io.Closer); ok {
			rt.closers = append(rt.closers, closer)
		}
	}
	return rt.probe.Read(ctx)
}

// Shutdown stops the metrics server and closes the probe, recorders, and
// database connection.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if rt.metricsSrv != nil {
		if err := rt.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
