package reporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// Prom publishes gate progress and outcomes as Prometheus metrics.
type Prom struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewProm() *Prom {
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "holdup_ticks_total",
		Help: "Poll ticks executed across all waits.",
	})
	unavailable := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "holdup_sensor_unavailable_total",
		Help: "Ticks on which the temperature sensor could not be read.",
	})
	waits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "holdup_waits_total",
		Help: "Completed waits.",
	})
	degraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "holdup_degraded_waits_total",
		Help: "Waits whose temperature gate was skipped after sustained sensor unavailability.",
	})
	current := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "holdup_temperature_celsius",
		Help: "Most recent sensor reading.",
	})
	peak := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "holdup_peak_temperature_celsius",
		Help: "Hottest reading observed during the current wait.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "holdup_wait_duration_seconds",
		Help:    "Total wall-clock time spent per completed wait.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	prometheus.MustRegister(ticks, unavailable, waits, degraded, current, peak, duration)

	return &Prom{
		counters: map[string]prometheus.Counter{
			"holdup_ticks_total":              ticks,
			"holdup_sensor_unavailable_total": unavailable,
			"holdup_waits_total":              waits,
			"holdup_degraded_waits_total":     degraded,
		},
		gauges: map[string]prometheus.Gauge{
			"holdup_temperature_celsius":      current,
			"holdup_peak_temperature_celsius": peak,
		},
		histos: map[string]prometheus.Observer{
			"holdup_wait_duration_seconds": duration,
		},
	}
}

func (p *Prom) Progress(ev domain.Progress) {
	p.counters["holdup_ticks_total"].Inc()
	if ev.Unavailable {
		p.counters["holdup_sensor_unavailable_total"].Inc()
	}
	if ev.HasReading {
		p.gauges["holdup_temperature_celsius"].Set(ev.Celsius)
	}
	if ev.HasPeak {
		p.gauges["holdup_peak_temperature_celsius"].Set(ev.PeakCelsius)
	}
}

func (p *Prom) Done(o domain.Outcome) {
	p.counters["holdup_waits_total"].Inc()
	if o.TempSkipped {
		p.counters["holdup_degraded_waits_total"].Inc()
	}
	p.histos["holdup_wait_duration_seconds"].Observe(o.Elapsed.Seconds())
}

var _ ports.Reporter = (*Prom)(nil)
