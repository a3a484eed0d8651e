package location

import (
	"strings"
	"testing"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

func sampleLocations() []domain.Location {
	mk := func(name, pref, region string, lat, lon float64) domain.Location {
		return domain.Location{
			Name: name, NormalizedName: NormalizeName(name),
			Prefecture: pref, Region: region,
			Latitude: lat, Longitude: lon, HasCoordinates: true,
		}
	}
	return []domain.Location{
		mk("東京", "東京都", "関東", 35.6895, 139.6917),
		mk("東京都", "東京都", "関東", 35.6895, 139.6917),
		mk("大阪", "大阪府", "近畿", 34.6937, 135.5023),
		mk("横浜", "神奈川県", "関東", 35.4437, 139.6380),
		mk("札幌", "北海道", "北海道", 43.0618, 141.3545),
	}
}

func TestLookupExact(t *testing.T) {
	idx := Build(sampleLocations())
	loc, ok := idx.Lookup("東京")
	if !ok || loc.Name != "東京" {
		t.Fatalf("expected exact match for 東京, got %+v ok=%v", loc, ok)
	}
}

func TestLookupPrefix(t *testing.T) {
	idx := Build(sampleLocations())
	loc, ok := idx.Lookup("横")
	if !ok || loc.Name != "横浜" {
		t.Fatalf("expected prefix match to 横浜, got %+v ok=%v", loc, ok)
	}
}

func TestLookupUnknownReturnsAbsent(t *testing.T) {
	idx := Build(sampleLocations())
	_, ok := idx.Lookup("架空の地名xyz")
	if ok {
		t.Fatal("expected unknown location to be absent, not an error")
	}
}

func TestLookupFuzzy(t *testing.T) {
	idx := Build(sampleLocations())
	// A single-character typo should still resolve via edit distance.
	loc, ok := idx.Lookup("大坂")
	if !ok || loc.Name != "大阪" {
		t.Fatalf("expected fuzzy match to 大阪, got %+v ok=%v", loc, ok)
	}
}

func TestNearby(t *testing.T) {
	idx := Build(sampleLocations())
	tokyo, _ := idx.Lookup("東京")
	near := idx.Nearby(tokyo, 50, 5)
	if len(near) == 0 {
		t.Fatal("expected at least one nearby location within 50km of Tokyo")
	}
	for i := 1; i < len(near); i++ {
		if domain.HaversineKm(tokyo, near[i-1]) > domain.HaversineKm(tokyo, near[i]) {
			t.Fatal("expected nearby results sorted ascending by distance")
		}
	}
}

func TestSearchFilters(t *testing.T) {
	idx := Build(sampleLocations())
	results := idx.Search("横", Filters{Region: "関東"}, true, 10)
	for _, r := range results {
		if r.Region != "関東" {
			t.Errorf("expected only 関東 results, got %s in %s", r.Name, r.Region)
		}
	}
}

func TestNormalizeNameLowercasesAndTrims(t *testing.T) {
	if NormalizeName("  Tokyo  ") != strings.ToLower("Tokyo") {
		t.Errorf("expected trimmed/lowercased normalization")
	}
}

func TestEditDistanceMemoized(t *testing.T) {
	idx := Build(sampleLocations())
	d1 := idx.editDistance("abc", "abd")
	d2 := idx.editDistance("abc", "abd")
	if d1 != 1 || d2 != 1 {
		t.Fatalf("expected edit distance 1, got %d then %d", d1, d2)
	}
}
