package location

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// LoadCatalogue parses a CSV catalogue file with header
// name,prefecture,region,latitude,longitude (latitude/longitude optional)
// into a flat []domain.Location, ready for Build.
func LoadCatalogue(path string) ([]domain.Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location catalogue: %w", err)
	}
	defer f.Close()
	return ParseCatalogue(f)
}

// ParseCatalogue reads the catalogue CSV from r.
func ParseCatalogue(r io.Reader) ([]domain.Location, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalogue header: %w", err)
	}
	col := columnIndex(header)

	var out []domain.Location
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalogue row: %w", err)
		}
		loc, ok := parseRow(record, col)
		if ok {
			out = append(out, loc)
		}
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

func parseRow(record []string, col map[string]int) (domain.Location, bool) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name := get("name")
	if name == "" {
		return domain.Location{}, false
	}

	loc := domain.Location{
		Name:           name,
		NormalizedName: NormalizeName(name),
		Prefecture:     get("prefecture"),
		Region:         get("region"),
	}

	latStr, lonStr := get("latitude"), get("longitude")
	if latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat == nil && errLon == nil {
			loc.Latitude = lat
			loc.Longitude = lon
			loc.HasCoordinates = true
		}
	}

	return loc, true
}
