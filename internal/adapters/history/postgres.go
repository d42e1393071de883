package history

import (
	"database/sql"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// PostgresRecorder appends one audit row per completed wait. The payload is
// deliberately not persisted; only outcome metadata is.
type PostgresRecorder struct {
	db    *sql.DB
	table string
}

func NewPostgresRecorder(db *sql.DB, table string) *PostgresRecorder {
	if table == "" {
		table = "wait_events"
	}
	return &PostgresRecorder{db: db, table: table}
}

func (r *PostgresRecorder) Name() string { return "postgres" }

func (r *PostgresRecorder) Record(o domain.Outcome) error {
	query := "INSERT INTO " + r.table +
		" (started_at, elapsed_ms, ticks, temp_satisfied, duration_satisfied, temp_skipped, peak_celsius)" +
		" VALUES ($1,$2,$3,$4,$5,$6,$7)"

	var peak *float64
	if o.HasPeak {
		peak = &o.PeakCelsius
	}

	_, err := r.db.Exec(query,
		o.StartedAt,
		o.Elapsed.Milliseconds(),
		o.Ticks,
		o.TempSatisfied,
		o.DurationSatisfied,
		o.TempSkipped,
		peak,
	)
	return err
}

var _ ports.Recorder = (*PostgresRecorder)(nil)
