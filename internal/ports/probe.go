package ports

import (
	"context"
	"errors"
)

// ErrUnavailable reports that no reading could be taken this tick (sensor
// missing, driver error, permission error). Transient by contract; any
// other error from a Probe is fatal to the wait.
var ErrUnavailable = errors.New("holdup: sensor unavailable")

// Probe samples the monitored temperature once, in degrees Celsius.
type Probe interface {
	Read(ctx context.Context) (float64, error)
}
