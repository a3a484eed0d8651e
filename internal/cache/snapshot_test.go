package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotWriterAppendsAndCaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache_stats.json")
	w := NewSnapshotWriter(path, 3)

	for i := 0; i < 5; i++ {
		w.Append(StatsSummary{Totals: Stats{Hits: int64(i)}})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected snapshot file to exist: %v", err)
	}
	var records []SnapshotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("expected valid JSON: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected rolling cap of 3 records, got %d", len(records))
	}
	// Oldest-first: the last three appends (hits 2,3,4) should survive.
	if records[0].Totals.Hits != 2 || records[2].Totals.Hits != 4 {
		t.Fatalf("expected oldest-evicted window [2,3,4], got %+v", records)
	}
}

func TestSnapshotWriterBestEffortOnBadPath(t *testing.T) {
	w := NewSnapshotWriter("/nonexistent-dir-for-tests/cache_stats.json", 10)
	w.Append(StatsSummary{}) // must not panic
}

func TestSnapshotWriterNilIsNoop(t *testing.T) {
	var w *SnapshotWriter
	w.Append(StatsSummary{}) // must not panic
}

func TestSnapshotWriterDefaultsMaxRecords(t *testing.T) {
	w := NewSnapshotWriter("x", 0)
	if w.maxRecords != 100 {
		t.Fatalf("expected default maxRecords 100, got %d", w.maxRecords)
	}
}
