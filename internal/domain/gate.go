package domain

import "time"

// TempTarget is an optional temperature gate. Set distinguishes "no gate"
// from a target of literally zero degrees.
type TempTarget struct {
	Set     bool
	Celsius float64
}

// DurTarget is an optional minimum-elapsed-time gate.
type DurTarget struct {
	Set   bool
	Value time.Duration
}

// Request describes a single gate invocation. The payload is opaque: it is
// returned by identity, never inspected, copied, or serialized.
type Request struct {
	Payload          any
	Temperature      TempTarget
	Duration         DurTarget
	PollInterval     time.Duration
	UnavailableGrace int
}

// Outcome is the terminal result of a completed wait.
type Outcome struct {
	Payload           any
	StartedAt         time.Time
	Elapsed           time.Duration
	Ticks             int
	TempSatisfied     bool
	DurationSatisfied bool

	// TempSkipped records that the temperature gate was force-satisfied
	// after sustained sensor unavailability.
	TempSkipped bool

	// PeakCelsius is the hottest reading observed during this wait.
	// Only meaningful when HasPeak is true.
	PeakCelsius float64
	HasPeak     bool
}

// Progress is emitted to reporters once per non-terminal tick.
type Progress struct {
	Tick    int
	Elapsed time.Duration

	Celsius     float64
	HasReading  bool
	Unavailable bool

	TargetCelsius float64
	PeakCelsius   float64
	HasPeak       bool

	TempPending     bool
	DurationPending bool

	// Remaining is the time left on the duration gate, zero when that
	// gate is absent or already satisfied.
	Remaining time.Duration
}
