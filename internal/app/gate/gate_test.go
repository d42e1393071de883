package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// fakeClock advances only when the gate sleeps, making tick accounting
// fully deterministic.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// scriptedProbe replays a fixed sequence of readings; nil entries mean
// "unavailable". It keeps returning the last entry once exhausted.
type scriptedProbe struct {
	readings []*float64
	calls    int
}

func temp(v float64) *float64 { return &v }

func (p *scriptedProbe) Read(context.Context) (float64, error) {
	idx := p.calls
	if idx >= len(p.readings) {
		idx = len(p.readings) - 1
	}
	p.calls++
	r := p.readings[idx]
	if r == nil {
		return 0, ports.ErrUnavailable
	}
	return *r, nil
}

type captureReporter struct {
	events []domain.Progress
	dones  []domain.Outcome
}

func (r *captureReporter) Progress(p domain.Progress) { r.events = append(r.events, p) }
func (r *captureReporter) Done(o domain.Outcome)      { r.dones = append(r.dones, o) }

func TestNoGatesReturnsImmediately(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	type tagged struct{ id int }
	payload := &tagged{id: 42}

	out, err := Run(context.Background(), domain.Request{Payload: payload}, nil, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Payload != payload {
		t.Fatalf("expected payload returned by identity")
	}
	if out.Elapsed != 0 {
		t.Fatalf("expected zero elapsed, got %s", out.Elapsed)
	}
	if !out.TempSatisfied || !out.DurationSatisfied {
		t.Fatalf("expected both gates trivially satisfied: %+v", out)
	}
	if len(clk.sleeps) != 0 {
		t.Fatalf("expected no sleeps, got %v", clk.sleeps)
	}
}

func TestDurationGateElapsedWithinOneInterval(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	req := domain.Request{
		Duration:     domain.DurTarget{Set: true, Value: 3 * time.Second},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, nil, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Elapsed < 3*time.Second || out.Elapsed >= 4*time.Second {
		t.Fatalf("expected elapsed in [3s,4s), got %s", out.Elapsed)
	}
	if !out.DurationSatisfied {
		t.Fatalf("expected duration gate satisfied")
	}
}

func TestDurationSleepClampedToRemaining(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	req := domain.Request{
		Duration:     domain.DurTarget{Set: true, Value: 2500 * time.Millisecond},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, nil, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []time.Duration{time.Second, time.Second, 500 * time.Millisecond}
	if len(clk.sleeps) != len(want) {
		t.Fatalf("expected sleeps %v, got %v", want, clk.sleeps)
	}
	for i := range want {
		if clk.sleeps[i] != want[i] {
			t.Fatalf("sleep %d: expected %s, got %s", i, want[i], clk.sleeps[i])
		}
	}
	if out.Elapsed != 2500*time.Millisecond {
		t.Fatalf("expected exact elapsed 2.5s, got %s", out.Elapsed)
	}
}

func TestTemperatureGateReturnsOnCrossingTick(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{temp(75), temp(68), temp(60), temp(55)}}
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 60},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if probe.calls != 3 {
		t.Fatalf("expected 3 probe reads (return on the 60°C reading), got %d", probe.calls)
	}
	if out.Ticks != 3 {
		t.Fatalf("expected return on tick 3, got %d", out.Ticks)
	}
	if out.Elapsed != 2*time.Second {
		t.Fatalf("expected two sleeps before the crossing read, got elapsed %s", out.Elapsed)
	}
	if !out.TempSatisfied || !out.DurationSatisfied {
		t.Fatalf("expected both flags set: %+v", out)
	}
	if !out.HasPeak || out.PeakCelsius != 75 {
		t.Fatalf("expected peak 75, got %+v", out)
	}
}

func TestThresholdIsInclusive(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{temp(60)}}
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 60},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Ticks != 1 || len(clk.sleeps) != 0 {
		t.Fatalf("reading exactly at target must satisfy on the first tick: %+v sleeps=%v", out, clk.sleeps)
	}
}

func TestDegradedModeAfterConsecutiveUnavailable(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{nil}}
	req := domain.Request{
		Temperature:      domain.TempTarget{Set: true, Celsius: 50},
		PollInterval:     time.Second,
		UnavailableGrace: 3,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if probe.calls != 3 {
		t.Fatalf("expected exactly 3 probe attempts before degrading, got %d", probe.calls)
	}
	if !out.TempSkipped {
		t.Fatalf("expected TempSkipped after sustained unavailability")
	}
	if out.Elapsed > 3*time.Second {
		t.Fatalf("degraded wait should be bounded by grace*interval, got %s", out.Elapsed)
	}
}

func TestSingleUnavailableTickRecovers(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{nil, temp(45)}}
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 50},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.TempSkipped {
		t.Fatalf("one transient miss must not trigger degraded mode")
	}
	if out.Ticks != 2 {
		t.Fatalf("expected satisfaction on tick 2, got %d", out.Ticks)
	}
}

func TestBothGatesMustBeSatisfied(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{temp(40)}}
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 50},
		Duration:     domain.DurTarget{Set: true, Value: 5 * time.Second},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Elapsed < 5*time.Second {
		t.Fatalf("cool sensor must still respect the duration gate, elapsed %s", out.Elapsed)
	}
}

func TestFatalProbeErrorAborts(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	fatal := errors.New("driver exploded")
	probe := probeFunc(func(context.Context) (float64, error) { return 0, fatal })
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 50},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal probe error to propagate, got %v", err)
	}
	if out.Payload != nil {
		t.Fatalf("no payload may be emitted on abort")
	}
}

type probeFunc func(context.Context) (float64, error)

func (f probeFunc) Read(ctx context.Context) (float64, error) { return f(ctx) }

func TestValidationRejectsNegativeIntervalBeforeAnyRead(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{temp(40)}}
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 50},
		PollInterval: -time.Second,
	}

	_, err := Run(context.Background(), req, probe, clk, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if probe.calls != 0 {
		t.Fatalf("validation must happen before any sensor read, got %d reads", probe.calls)
	}
}

func TestValidationRejectsNegativeDuration(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	req := domain.Request{Duration: domain.DurTarget{Set: true, Value: -time.Second}}

	var verr *ValidationError
	if _, err := Run(context.Background(), req, nil, clk, nil); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNonPositiveTemperatureTargetDisablesGate(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	req := domain.Request{Temperature: domain.TempTarget{Set: true, Celsius: 0}}

	out, err := Run(context.Background(), req, nil, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Elapsed != 0 || !out.TempSatisfied {
		t.Fatalf("sentinel target must behave as no gate: %+v", out)
	}
}

func TestCancellationIsDistinctFromSuccess(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := domain.Request{
		Duration:     domain.DurTarget{Set: true, Value: time.Minute},
		PollInterval: time.Second,
	}
	out, err := Run(ctx, req, nil, clk, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if out.TempSatisfied || out.DurationSatisfied || out.Payload != nil {
		t.Fatalf("cancelled wait must not look like success: %+v", out)
	}
}

func TestCancellationDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := &cancellingClock{cancel: cancel}

	req := domain.Request{
		Duration:     domain.DurTarget{Set: true, Value: time.Minute},
		PollInterval: time.Second,
	}
	_, err := Run(ctx, req, nil, clk, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled from mid-wait cancellation, got %v", err)
	}
}

type cancellingClock struct {
	now    time.Time
	cancel context.CancelFunc
}

func (c *cancellingClock) Now() time.Time { return c.now }

func (c *cancellingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.cancel()
	return ctx.Err()
}

func TestReporterPanicDoesNotAbortWait(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	req := domain.Request{
		Duration:     domain.DurTarget{Set: true, Value: 2 * time.Second},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, nil, clk, panickyReporter{})
	if err != nil {
		t.Fatalf("reporter panic must be swallowed, got %v", err)
	}
	if !out.DurationSatisfied {
		t.Fatalf("wait should complete normally: %+v", out)
	}
}

type panickyReporter struct{}

func (panickyReporter) Progress(domain.Progress) { panic("broken sink") }
func (panickyReporter) Done(domain.Outcome)      {}

func TestProgressEventsCarryGateState(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{temp(80), temp(55)}}
	rep := &captureReporter{}
	req := domain.Request{
		Temperature:  domain.TempTarget{Set: true, Celsius: 60},
		Duration:     domain.DurTarget{Set: true, Value: 10 * time.Second},
		PollInterval: time.Second,
	}

	if _, err := Run(context.Background(), req, probe, clk, rep); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(rep.events) == 0 {
		t.Fatalf("expected progress events")
	}
	first := rep.events[0]
	if !first.HasReading || first.Celsius != 80 {
		t.Fatalf("first event should carry the 80°C reading: %+v", first)
	}
	if !first.TempPending || !first.DurationPending {
		t.Fatalf("both gates pending on the first tick: %+v", first)
	}
	if first.Remaining != 10*time.Second {
		t.Fatalf("expected full duration remaining on tick 1, got %s", first.Remaining)
	}
}

func TestPayloadIdentityPreserved(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	payload := map[string]any{"tensor": []float64{1, 2, 3}}
	probe := &scriptedProbe{readings: []*float64{temp(42)}}
	req := domain.Request{
		Payload:      payload,
		Temperature:  domain.TempTarget{Set: true, Celsius: 60},
		PollInterval: time.Second,
	}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got, ok := out.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type changed: %T", out.Payload)
	}
	if fmt.Sprintf("%p", got) != fmt.Sprintf("%p", payload) {
		t.Fatalf("payload must be returned by identity, not copied")
	}
}

func TestDefaultsApplied(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	probe := &scriptedProbe{readings: []*float64{nil}}
	req := domain.Request{Temperature: domain.TempTarget{Set: true, Celsius: 50}}

	out, err := Run(context.Background(), req, probe, clk, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if probe.calls != DefaultUnavailableGrace {
		t.Fatalf("expected default grace %d, got %d reads", DefaultUnavailableGrace, probe.calls)
	}
	for _, s := range clk.sleeps {
		if s != DefaultPollInterval {
			t.Fatalf("expected default poll interval sleeps, got %v", clk.sleeps)
		}
	}
	if !out.TempSkipped {
		t.Fatalf("expected degraded completion: %+v", out)
	}
}
