package comments

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

func writePartition(t *testing.T, dir string, season domain.Season, kind domain.CommentKind, header string, rows []string) {
	t.Helper()
	path := filepath.Join(dir, partitionFilename(season, kind))
	lines := append([]string{header}, rows...)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write partition: %v", err)
	}
}

// TestLoadTruncatesByRuneNotByte asserts that over-length text is cut at
// 200 *runes*, not 200 bytes: a row of 250 multi-byte kana characters must
// come back as exactly 200 runes of valid UTF-8, not a byte-sliced,
// possibly-invalid-UTF-8 prefix.
func TestLoadTruncatesByRuneNotByte(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("あ", 250)
	writePartition(t, dir, domain.SeasonSummer, domain.KindWeatherComment, "weather_comment,count", []string{
		long + ",5",
	})

	loader := &csvLoader{dir: dir}
	comments, err := loader.Load(domain.SeasonSummer, domain.KindWeatherComment)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}

	got := comments[0].Text
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	runeLen := len([]rune(got))
	if runeLen != domain.MaxCommentTextLength {
		t.Fatalf("truncated text has %d runes, want %d", runeLen, domain.MaxCommentTextLength)
	}
}

// TestLoadSkipsEmptyTextRows confirms rows with empty text are dropped
// without affecting rows that do have text.
func TestLoadSkipsEmptyTextRows(t *testing.T) {
	dir := t.TempDir()
	writePartition(t, dir, domain.SeasonWinter, domain.KindAdvice, "advice,count", []string{
		"厚着をしてください,3",
		",1",
		"風邪にご注意を,2",
	})

	loader := &csvLoader{dir: dir}
	comments, err := loader.Load(domain.SeasonWinter, domain.KindAdvice)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments (empty row skipped), got %d", len(comments))
	}
}

// TestLoadHighDiscardRatioStillReturnsSurvivingRows asserts that even
// when more than 5% of a partition's rows are skipped (which only logs a
// warning per spec.md §4.5, never fails the load), the rows that did
// parse are still returned.
func TestLoadHighDiscardRatioStillReturnsSurvivingRows(t *testing.T) {
	dir := t.TempDir()
	rows := []string{"晴れ時々曇り,4"}
	for i := 0; i < 9; i++ {
		rows = append(rows, ",0")
	}
	writePartition(t, dir, domain.SeasonAutumn, domain.KindWeatherComment, "weather_comment,count", rows)

	loader := &csvLoader{dir: dir}
	comments, err := loader.Load(domain.SeasonAutumn, domain.KindWeatherComment)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 surviving comment out of 10 rows, got %d", len(comments))
	}
}

// TestLoadMissingFileReturnsEmptyNotError matches spec.md §4.5's "never
// raises on a missing partition file" invariant.
func TestLoadMissingFileReturnsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	loader := &csvLoader{dir: dir}
	comments, err := loader.Load(domain.SeasonTyphoon, domain.KindAdvice)
	if err != nil {
		t.Fatalf("Load on missing partition should not error, got %v", err)
	}
	if comments != nil {
		t.Fatalf("expected nil/empty comments, got %v", comments)
	}
}
