package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// DefaultPollInterval is used when a request leaves PollInterval zero.
const DefaultPollInterval = time.Second

// DefaultUnavailableGrace is the number of consecutive unavailable sensor
// reads tolerated before the temperature gate is force-satisfied and the
// wait proceeds as if no temperature constraint existed.
const DefaultUnavailableGrace = 3

// ErrCancelled reports host-initiated early termination. It wraps the
// context error and is never returned alongside a populated Outcome.
var ErrCancelled = errors.New("holdup: wait cancelled")

// ValidationError reports a malformed request, surfaced before any sensor
// read takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("holdup: invalid request: %s: %s", e.Field, e.Reason)
}

// Run blocks until every configured gate is satisfied, then returns the
// request payload unchanged along with outcome metadata.
//
// Each tick samples the probe (when a temperature gate is set), checks the
// duration gate against monotonic elapsed time, emits a progress event, and
// sleeps at most one poll interval, clamped so the duration target is never
// overshot by more than a single interval. The threshold comparison is
// inclusive: a reading exactly at target satisfies the gate.
//
// A probe returning ports.ErrUnavailable fails that tick's temperature
// gate; after UnavailableGrace consecutive misses the gate is
// force-satisfied and Outcome.TempSkipped is set. Any other probe error
// aborts the wait.
//
// A wait with only a temperature gate and a sensor that never cools (and
// never goes persistently unavailable) blocks indefinitely. That is the
// point: cancel via ctx to bail out.
func Run(ctx context.Context, req domain.Request, probe ports.Probe, clock ports.Clock, reporter ports.Reporter) (domain.Outcome, error) {
	if err := validate(req, probe, clock); err != nil {
		return domain.Outcome{}, err
	}

	interval := req.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	grace := req.UnavailableGrace
	if grace <= 0 {
		grace = DefaultUnavailableGrace
	}

	// A non-positive target is the numeric "disabled" sentinel from the
	// host surface; treat it as no gate at all.
	if req.Temperature.Set && req.Temperature.Celsius <= 0 {
		req.Temperature = domain.TempTarget{}
	}

	start := clock.Now()

	if !req.Temperature.Set && !req.Duration.Set {
		return domain.Outcome{
			Payload:           req.Payload,
			StartedAt:         start,
			TempSatisfied:     true,
			DurationSatisfied: true,
		}, nil
	}

	var (
		ticks       int
		unavailable int
		tempForced  bool
		tempSkipped bool
		peak        float64
		hasPeak     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return domain.Outcome{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		ticks++
		elapsed := clock.Now().Sub(start)
		durOK := !req.Duration.Set || elapsed >= req.Duration.Value

		tempOK := true
		var (
			reading     float64
			haveReading bool
			missed      bool
		)
		if req.Temperature.Set && !tempForced {
			c, err := probe.Read(ctx)
			switch {
			case err == nil:
				unavailable = 0
				reading, haveReading = c, true
				if !hasPeak || c > peak {
					peak, hasPeak = c, true
				}
				tempOK = c <= req.Temperature.Celsius
			case errors.Is(err, ports.ErrUnavailable):
				missed = true
				unavailable++
				if unavailable >= grace {
					tempForced = true
					tempSkipped = true
				} else {
					tempOK = false
				}
			default:
				return domain.Outcome{}, fmt.Errorf("holdup: sensor probe: %w", err)
			}
		}

		if durOK && tempOK {
			return domain.Outcome{
				Payload:           req.Payload,
				StartedAt:         start,
				Elapsed:           elapsed,
				Ticks:             ticks,
				TempSatisfied:     true,
				DurationSatisfied: true,
				TempSkipped:       tempSkipped,
				PeakCelsius:       peak,
				HasPeak:           hasPeak,
			}, nil
		}

		var remaining time.Duration
		if req.Duration.Set && !durOK {
			remaining = req.Duration.Value - elapsed
		}

		emitProgress(reporter, domain.Progress{
			Tick:            ticks,
			Elapsed:         elapsed,
			Celsius:         reading,
			HasReading:      haveReading,
			Unavailable:     missed,
			TargetCelsius:   req.Temperature.Celsius,
			PeakCelsius:     peak,
			HasPeak:         hasPeak,
			TempPending:     !tempOK,
			DurationPending: !durOK,
			Remaining:       remaining,
		})

		sleep := interval
		if remaining > 0 && remaining < sleep {
			sleep = remaining
		}
		if err := clock.Sleep(ctx, sleep); err != nil {
			return domain.Outcome{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
	}
}

func validate(req domain.Request, probe ports.Probe, clock ports.Clock) error {
	if clock == nil {
		return &ValidationError{Field: "clock", Reason: "required"}
	}
	if req.PollInterval < 0 {
		return &ValidationError{Field: "poll_interval", Reason: "must not be negative"}
	}
	if req.Duration.Set && req.Duration.Value < 0 {
		return &ValidationError{Field: "duration", Reason: "must not be negative"}
	}
	if req.Temperature.Set && req.Temperature.Celsius > 0 && probe == nil {
		return &ValidationError{Field: "probe", Reason: "required when a temperature gate is set"}
	}
	return nil
}

// emitProgress shields the wait loop from reporter bugs; telemetry is
// best-effort and must never abort or stall a tick.
func emitProgress(r ports.Reporter, p domain.Progress) {
	if r == nil {
		return
	}
	defer func() { _ = recover() }()
	r.Progress(p)
}
