package cache

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sakamo-wni/weathercomment/internal/logger"
)

// SnapshotRecord is one persisted row: a cache stats_summary() plus the
// timestamp it was taken at (spec.md §6: "Persisted cache-stats
// snapshot").
type SnapshotRecord struct {
	Timestamp time.Time           `json:"timestamp"`
	PerCache  map[string]Stats    `json:"per_cache"`
	Totals    Stats               `json:"totals"`
}

// SnapshotWriter persists a rolling list of at most maxRecords
// SnapshotRecords to a single JSON file, overwriting it on every write.
// Best-effort, grounded on internal/history.Log's "write failures are
// logged and dropped" contract (spec.md §6: "Best-effort; write failures
// are logged and dropped").
type SnapshotWriter struct {
	path       string
	maxRecords int
	mu         sync.Mutex
	nowFn      func() time.Time
}

// NewSnapshotWriter constructs a writer bounded to maxRecords (spec.md §6
// default: 100).
func NewSnapshotWriter(path string, maxRecords int) *SnapshotWriter {
	if maxRecords <= 0 {
		maxRecords = 100
	}
	return &SnapshotWriter{path: path, maxRecords: maxRecords, nowFn: time.Now}
}

// Append reads the existing snapshot list (if any), appends one record
// for summary, truncates to the oldest-first window of maxRecords, and
// rewrites the file. Any failure is logged and swallowed: a broken
// cache-stats snapshot must never fail a batch.
func (w *SnapshotWriter) Append(summary StatsSummary) {
	if w == nil || w.path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	records := w.readLocked()
	records = append(records, SnapshotRecord{
		Timestamp: w.nowFn(),
		PerCache:  summary.PerCache,
		Totals:    summary.Totals,
	})
	if len(records) > w.maxRecords {
		records = records[len(records)-w.maxRecords:]
	}

	data, err := json.Marshal(records)
	if err != nil {
		logger.Warn("cache stats snapshot marshal failed", "error", err)
		return
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		logger.Warn("cache stats snapshot write failed", "path", w.path, "error", err)
	}
}

// readLocked loads the existing snapshot file, returning an empty slice
// if it doesn't exist or fails to parse. Caller must hold w.mu.
func (w *SnapshotWriter) readLocked() []SnapshotRecord {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil
	}
	var records []SnapshotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("cache stats snapshot file unreadable, starting fresh", "path", w.path, "error", err)
		return nil
	}
	return records
}
