package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

const defaultBarWidth = 50

// Console renders a single-line cooling progress bar while the temperature
// gate is pending, and a countdown while only the duration gate remains.
// Lines are redrawn in place with a carriage return.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	barWidth int
	active   bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, barWidth: defaultBarWidth}
}

func (c *Console) Progress(p domain.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case p.TempPending && p.Unavailable:
		fmt.Fprintf(c.w, "\r***** Waiting for sensor (tick %d, elapsed %s)      ", p.Tick, round(p.Elapsed))
		c.active = true
	case p.TempPending:
		c.renderBar(p)
		c.active = true
	case p.DurationPending:
		fmt.Fprintf(c.w, "\r***** Waiting: %s remaining      ", round(p.Remaining))
		c.active = true
	}
}

func (c *Console) Done(o domain.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		fmt.Fprintln(c.w)
	}
	switch {
	case o.TempSkipped:
		fmt.Fprintf(c.w, "***** Sensor unavailable, proceeding without cool down (waited %s)\n", round(o.Elapsed))
	case o.HasPeak:
		fmt.Fprintf(c.w, "***** Cool down complete: peaked at %.1f°C, waited %s\n", o.PeakCelsius, round(o.Elapsed))
	default:
		fmt.Fprintf(c.w, "***** Waited %s\n", round(o.Elapsed))
	}
	fmt.Fprintf(c.w, "***** %s\n", time.Now().Format("2006-01-02 15:04:05"))
	c.active = false
}

// renderBar maps cooling from the hot-cycle peak down to the target onto a
// fixed-width bar, mirroring the original node's display.
func (c *Console) renderBar(p domain.Progress) {
	progress := coolingFraction(p.Celsius, p.TargetCelsius, p.PeakCelsius)
	filled := int(float64(c.barWidth) * progress)
	if filled > c.barWidth {
		filled = c.barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("-", c.barWidth-filled)
	fmt.Fprintf(c.w, "\r***** Cooling: peak %.1f°C |%s| %.1f°C / %.1f°C      ",
		p.PeakCelsius, bar, p.Celsius, p.TargetCelsius)
}

func coolingFraction(current, target, peak float64) float64 {
	if current <= target {
		return 1
	}
	span := peak - target
	if span <= 0 {
		return 0
	}
	f := (peak - current) / span
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func round(d time.Duration) time.Duration {
	return d.Round(100 * time.Millisecond)
}

var _ ports.Reporter = (*Console)(nil)
