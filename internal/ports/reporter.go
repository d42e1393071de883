package ports

import "github.com/usrname0/holdup/internal/domain"

// Reporter is a one-way progress sink. Implementations must be best-effort:
// the gate swallows reporter panics and never lets telemetry stall a tick.
type Reporter interface {
	Progress(p domain.Progress)
	Done(o domain.Outcome)
}
