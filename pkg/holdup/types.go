package holdup

import (
	"time"

	"github.com/usrname0/holdup/internal/app/gate"
	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// Request describes one gate invocation. The payload is returned by
// identity once the wait completes; it is never inspected or copied.
type Request = domain.Request

// Outcome is the terminal result of a completed wait.
type Outcome = domain.Outcome

// Progress is delivered to reporters once per pending tick.
type Progress = domain.Progress

// TempTarget is an optional temperature gate.
type TempTarget = domain.TempTarget

// DurTarget is an optional minimum-duration gate.
type DurTarget = domain.DurTarget

// Probe samples the monitored temperature once per tick.
type Probe = ports.Probe

// Clock abstracts monotonic time and cancellable sleeps.
type Clock = ports.Clock

// Reporter is the best-effort progress sink.
type Reporter = ports.Reporter

// Recorder persists completed wait outcomes.
type Recorder = ports.Recorder

// ValidationError reports a malformed request.
type ValidationError = gate.ValidationError

// ErrUnavailable marks a transient failed sensor read.
var ErrUnavailable = ports.ErrUnavailable

// ErrCancelled marks host-initiated early termination.
var ErrCancelled = gate.ErrCancelled

// Defaults mirrored from the core controller.
const (
	DefaultPollInterval     = gate.DefaultPollInterval
	DefaultUnavailableGrace = gate.DefaultUnavailableGrace
)

// Celsius builds an enabled temperature target.
func Celsius(v float64) TempTarget {
	return TempTarget{Set: true, Celsius: v}
}

// For builds an enabled duration target.
func For(d time.Duration) DurTarget {
	return DurTarget{Set: true, Value: d}
}
