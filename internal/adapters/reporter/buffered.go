package reporter

import (
	"sync"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// Buffered decouples the wait loop from a slow reporter with a bounded
// FIFO. Progress events are dropped when the buffer is full; the wait loop
// never blocks on telemetry.
type Buffered struct {
	inner ports.Reporter

	mu      sync.Mutex
	buf     []domain.Progress
	cap     int
	dropped int
	wake    chan struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewBuffered(inner ports.Reporter, capacity int) *Buffered {
	if capacity <= 0 {
		capacity = 64
	}
	b := &Buffered{
		inner:  inner,
		buf:    make([]domain.Progress, 0, capacity),
		cap:    capacity,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go b.drain()
	return b
}

func (b *Buffered) Progress(p domain.Progress) {
	b.mu.Lock()
	if len(b.buf) >= b.cap {
		b.dropped++
		b.mu.Unlock()
		return
	}
	b.buf = append(b.buf, p)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Done flushes buffered progress before forwarding the terminal outcome so
// the inner reporter sees events in order.
func (b *Buffered) Done(o domain.Outcome) {
	b.flush()
	b.inner.Done(o)
}

// Dropped reports how many progress events were discarded due to a full
// buffer.
func (b *Buffered) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close stops the drain goroutine after flushing pending events.
func (b *Buffered) Close() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh
		b.flush()
	})
}

func (b *Buffered) drain() {
	defer close(b.doneCh)
	for {
		select {
		case <-b.stopCh:
			return
		case <-b.wake:
			b.flush()
		}
	}
}

func (b *Buffered) flush() {
	for {
		b.mu.Lock()
		if len(b.buf) == 0 {
			b.mu.Unlock()
			return
		}
		batch := make([]domain.Progress, len(b.buf))
		copy(batch, b.buf)
		b.buf = b.buf[:0]
		b.mu.Unlock()

		for _, p := range batch {
			b.inner.Progress(p)
		}
	}
}

var _ ports.Reporter = (*Buffered)(nil)

// Multi fans a single event stream out to several reporters.
type Multi []ports.Reporter

func (m Multi) Progress(p domain.Progress) {
	for _, r := range m {
		if r != nil {
			r.Progress(p)
		}
	}
}

func (m Multi) Done(o domain.Outcome) {
	for _, r := range m {
		if r != nil {
			r.Done(o)
		}
	}
}

var _ ports.Reporter = Multi(nil)
