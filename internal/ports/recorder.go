package ports

import "github.com/usrname0/holdup/internal/domain"

// Recorder persists completed wait outcomes for audit/history. Failures
// are logged by the caller, never surfaced to the waiting invocation.
type Recorder interface {
	Record(o domain.Outcome) error
	Name() string
}
