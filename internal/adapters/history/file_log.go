package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/usrname0/holdup/internal/domain"
	"github.com/usrname0/holdup/internal/ports"
)

// Entry is the on-disk record of one completed wait, one JSON object per
// line.
type Entry struct {
	StartedAt         time.Time `json:"started_at"`
	ElapsedMS         int64     `json:"elapsed_ms"`
	Ticks             int       `json:"ticks"`
	TempSatisfied     bool      `json:"temp_satisfied"`
	DurationSatisfied bool      `json:"duration_satisfied"`
	TempSkipped       bool      `json:"temp_skipped"`
	PeakCelsius       *float64  `json:"peak_celsius,omitempty"`
}

// FileLog keeps an append-only local record of wait outcomes.
type FileLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *bufio.Writer
}

func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "holdup.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLog{
		path: path,
		file: f,
		w:    bufio.NewWriter(f),
	}, nil
}

func (l *FileLog) Name() string { return "file" }

func (l *FileLog) Record(o domain.Outcome) error {
	entry := Entry{
		StartedAt:         o.StartedAt,
		ElapsedMS:         o.Elapsed.Milliseconds(),
		Ticks:             o.Ticks,
		TempSatisfied:     o.TempSatisfied,
		DurationSatisfied: o.DurationSatisfied,
		TempSkipped:       o.TempSkipped,
	}
	if o.HasPeak {
		peak := o.PeakCelsius
		entry.PeakCelsius = &peak
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

// Tail returns up to n most recent entries, oldest first. Lines that fail
// to parse are skipped rather than failing the whole read.
func (l *FileLog) Tail(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Flush(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Close flushes and closes the underlying file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}

var _ ports.Recorder = (*FileLog)(nil)
