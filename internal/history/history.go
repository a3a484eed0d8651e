// Package history implements the supplemental append-only JSONL history
// log (SPEC_FULL.md §4.y), grounded on
// original_source/src/controllers/history_manager.py's simple
// append-one-record-per-generation design. Best-effort: write failures
// are logged and swallowed, never surfaced to the batch result, matching
// the cache-stats snapshot's best-effort contract (spec.md §6).
package history

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/logger"
)

// Record is one JSON line appended per generated LocationResult.
type Record struct {
	Timestamp time.Time            `json:"timestamp"`
	Location  string               `json:"location"`
	Success   bool                 `json:"success"`
	Comment   string               `json:"comment"`
	Advice    string               `json:"advice_comment"`
	ErrorType string               `json:"error_type,omitempty"`
	Metadata  map[string]any       `json:"metadata,omitempty"`
}

// Log appends Records to a single file, one JSON object per line.
type Log struct {
	path string
	mu   sync.Mutex
}

// New constructs a Log writing to path. The file (and its parent
// directory's existence) is not verified until the first Append.
func New(path string) *Log {
	return &Log{path: path}
}

// FromLocationResult builds a Record from a finished LocationResult.
func FromLocationResult(r domain.LocationResult, now time.Time) Record {
	return Record{
		Timestamp: now,
		Location:  r.Location,
		Success:   r.Success,
		Comment:   r.Comment,
		Advice:    r.AdviceComment,
		ErrorType: r.ErrorType,
		Metadata:  r.GenerationMetadata,
	}
}

// Append writes one record as a JSON line, creating the file if needed.
// On any failure it logs a warning and returns nil: history logging is
// never allowed to fail a batch.
func (l *Log) Append(record Record) error {
	if l == nil || l.path == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warn("history log append failed to open file", "path", l.path, "error", err)
		return nil
	}
	defer f.Close()

	line, err := json.Marshal(record)
	if err != nil {
		logger.Warn("history log append failed to marshal record", "error", err)
		return nil
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		logger.Warn("history log append failed to write", "path", l.path, "error", err)
		return nil
	}
	return nil
}
