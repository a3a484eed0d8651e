package comments

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/logger"
)

// csvLoader reads one partition file per (season, kind), named
// {season}_{kind}_enhanced100.csv under dir (spec.md §4.5 naming
// convention), with header weather_comment,count (weather_comment
// partitions) or advice,count (advice partitions).
type csvLoader struct {
	dir string
}

func partitionFilename(season domain.Season, kind domain.CommentKind) string {
	return fmt.Sprintf("%s_%s_enhanced100.csv", season, kind)
}

// Load reads and parses one partition file. A missing file is not an
// error: it returns an empty slice, matching spec.md §4.5 ("a location
// with no matching partition still produces a usable, if sparse, comment
// pool").
func (l *csvLoader) Load(season domain.Season, kind domain.CommentKind) ([]domain.ReferenceComment, error) {
	path := filepath.Join(l.dir, partitionFilename(season, kind))

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open partition %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read partition header %s: %w", path, err)
	}
	col := columnIndex(header)

	var out []domain.ReferenceComment
	rowNum := 1
	total, skipped := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read partition row %s:%d: %w", path, rowNum, err)
		}
		rowNum++
		total++

		c, ok := parseCommentRow(record, col, season, kind, path, rowNum)
		if ok {
			out = append(out, c)
		} else {
			skipped++
		}
	}

	// spec.md §4.5 invariant: never silently discard more than 5% of a
	// partition's rows without a warning.
	if total > 0 && float64(skipped)/float64(total) > 0.05 {
		logger.Warn("comment partition discarded more than 5% of rows", "file", path, "total", total, "skipped", skipped)
	}
	return out, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseCommentRow parses one row, truncating overlong text and
// defaulting an unparsable count to 0 with a logged warning rather than
// failing the whole partition (spec.md §4.5).
func parseCommentRow(record []string, col map[string]int, season domain.Season, kind domain.CommentKind, path string, rowNum int) (domain.ReferenceComment, bool) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	// Required columns per spec.md §4.5/§6: "weather_comment" for the
	// weather_comment partition, "advice" for the advice partition.
	textColumn := "advice"
	if kind == domain.KindWeatherComment {
		textColumn = "weather_comment"
	}
	text := get(textColumn)
	if text == "" {
		return domain.ReferenceComment{}, false
	}
	if r := []rune(text); len(r) > domain.MaxCommentTextLength {
		logger.Warn("comment text exceeds max length; truncating", "file", path, "row", rowNum, "length", len(r))
		text = string(r[:domain.MaxCommentTextLength])
	}

	count := 0
	if raw := get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			logger.Warn("unparsable comment count; defaulting to 0", "file", path, "row", rowNum, "value", raw)
		} else {
			count = n
		}
	}

	return domain.ReferenceComment{
		Text:       text,
		Kind:       kind,
		Season:     season,
		SourceFile: path,
		RowNumber:  rowNum,
		Count:      count,
	}, true
}
