package holdup

import (
	"context"
	"io"
	"sync"

	"github.com/usrname0/holdup/internal/adapters/reporter"
)

// ProbeFunc adapts a plain function into a Probe so callers can plug
// arbitrary sensors without defining structs.
type ProbeFunc func(ctx context.Context) (float64, error)

func (f ProbeFunc) Read(ctx context.Context) (float64, error) { return f(ctx) }

// StaticProbe always reports the same temperature; handy for tests and
// simulations.
func StaticProbe(celsius float64) Probe {
	return ProbeFunc(func(context.Context) (float64, error) {
		return celsius, nil
	})
}

// MultiReporter fans progress out to several reporters.
func MultiReporter(rs ...Reporter) Reporter {
	return reporter.Multi(rs)
}

// NewConsoleReporter renders the cooling bar / countdown to w.
func NewConsoleReporter(w io.Writer) Reporter {
	return reporter.NewConsole(w)
}

// NewBufferedReporter wraps inner with a bounded drop-on-full buffer so a
// slow sink can never stall the wait loop. Call Close when done.
func NewBufferedReporter(inner Reporter, capacity int) *reporter.Buffered {
	return reporter.NewBuffered(inner, capacity)
}

// NewChannelReporter exposes progress events via a channel; it returns the
// reporter, the read-only channel, and a close function for shutdown.
// Events are dropped when the buffer is full, keeping the wait loop
// non-blocking, and the terminal outcome is delivered on its own channel.
func NewChannelReporter(buffer int) (Reporter, <-chan Progress, <-chan Outcome, func()) {
	if buffer < 1 {
		buffer = 1
	}
	r := &channelReporter{
		progress: make(chan Progress, buffer),
		done:     make(chan Outcome, 1),
		closed:   make(chan struct{}),
	}
	return r, r.progress, r.done, r.close
}

type channelReporter struct {
	progress chan Progress
	done     chan Outcome
	closed   chan struct{}
	once     sync.Once
}

func (r *channelReporter) Progress(p Progress) {
	select {
	case <-r.closed:
		return
	default:
	}
	select {
	case r.progress <- p:
	default:
	}
}

func (r *channelReporter) Done(o Outcome) {
	select {
	case <-r.closed:
		return
	default:
	}
	select {
	case r.done <- o:
	default:
	}
}

func (r *channelReporter) close() {
	r.once.Do(func() {
		close(r.closed)
		close(r.progress)
		close(r.done)
	})
}
