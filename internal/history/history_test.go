package history

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

func TestAppendWritesOneJSONLinePerCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.jsonl")
	log := New(path)

	if err := log.Append(FromLocationResult(domain.LocationResult{Location: "東京", Success: true, Comment: "晴れ"}, time.Unix(0, 0))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := log.Append(FromLocationResult(domain.LocationResult{Location: "大阪", Success: false, ErrorType: "weather_fetch"}, time.Unix(0, 0))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected history file to exist: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected valid JSON line: %v", err)
	}
	if rec.Location != "東京" || !rec.Success {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestAppendToUnwritableDirectoryDoesNotError(t *testing.T) {
	log := New("/nonexistent-dir-for-tests/history.jsonl")
	if err := log.Append(Record{Location: "x"}); err != nil {
		t.Fatalf("expected best-effort Append to swallow the error, got %v", err)
	}
}

func TestNilLogAppendIsNoop(t *testing.T) {
	var log *Log
	if err := log.Append(Record{Location: "x"}); err != nil {
		t.Fatalf("expected nil-receiver Append to be a no-op, got %v", err)
	}
}
