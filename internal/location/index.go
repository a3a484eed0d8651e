// Package location implements C1, the in-memory catalogue of named
// locations: exact, prefix (trie), and fuzzy (edit-distance) lookup, plus
// haversine nearby search. Grounded on
// original_source/src/data/location/search_engine.py and trie.py, in the
// idiom of the teacher's internal/classifier (small, dependency-free,
// keyword/structural matching, no ORM).
package location

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// editDistanceCacheSize bounds the LRU memoizing fuzzy-match distances
// (spec.md §4.1: "~4k entries").
const editDistanceCacheSize = 4096

// Index is the immutable-after-Build location catalogue.
type Index struct {
	byName       map[string]domain.Location
	byNormalized map[string]domain.Location
	byRegion     map[string][]domain.Location
	byPrefecture map[string][]domain.Location
	prefixTrie   *trie
	all          []domain.Location

	editCache *lru.Cache[string, int]
}

// NormalizeName applies NFKC normalization and lowercasing, the
// transform spec.md §3 requires for Location.normalized_name and for
// every lookup key.
func NormalizeName(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// Build constructs the index once from a flat location list. Sub-second
// for 10^4 entries: a single pass building four maps plus trie inserts.
func Build(locations []domain.Location) *Index {
	cache, _ := lru.New[string, int](editDistanceCacheSize)

	idx := &Index{
		byName:       make(map[string]domain.Location, len(locations)),
		byNormalized: make(map[string]domain.Location, len(locations)),
		byRegion:     make(map[string][]domain.Location),
		byPrefecture: make(map[string][]domain.Location),
		prefixTrie:   newTrie(),
		all:          locations,
		editCache:    cache,
	}

	for _, loc := range locations {
		idx.byName[loc.Name] = loc
		normName := loc.NormalizedName
		if normName == "" {
			normName = NormalizeName(loc.Name)
		}
		idx.byNormalized[normName] = loc

		if loc.Prefecture != "" {
			idx.byPrefecture[loc.Prefecture] = append(idx.byPrefecture[loc.Prefecture], loc)
		}
		if loc.Region != "" {
			idx.byRegion[loc.Region] = append(idx.byRegion[loc.Region], loc)
		}

		canonicalNorm := NormalizeName(loc.Name)
		idx.prefixTrie.insert(canonicalNorm, loc)
		if normName != canonicalNorm {
			idx.prefixTrie.insert(normName, loc)
		}
	}

	return idx
}

// Lookup resolves a query name to a Location, trying exact canonical,
// exact normalized, prefix, then fuzzy in that order. An absent result
// (ok=false) is not an error: callers supply fallback coordinates if
// available (spec.md §4.1).
func (idx *Index) Lookup(name string) (domain.Location, bool) {
	if name == "" {
		return domain.Location{}, false
	}

	if loc, ok := idx.byName[name]; ok {
		return loc, true
	}

	normalized := NormalizeName(name)
	if loc, ok := idx.byNormalized[normalized]; ok {
		return loc, true
	}

	if candidates := idx.prefixTrie.searchPrefix(normalized); len(candidates) > 0 {
		if len(candidates) == 1 {
			return candidates[0], true
		}
		candidates = append([]domain.Location(nil), candidates...)
		sort.Slice(candidates, func(i, j int) bool {
			return len(candidates[i].Name) < len(candidates[j].Name)
		})
		return candidates[0], true
	}

	return idx.fuzzyLookup(normalized)
}

// fuzzyLookup finds the closest-matching location by edit distance,
// bounded by max(1, len(query)/3) as spec.md §4.1 requires, with the
// query length counted in runes like the distance itself.
//
// This operates on NFKC-normalized names, not phonetic readings: a kana
// spelling of a location's name (e.g. "とうきょう") is not within edit
// distance of its kanji canonical name ("東京") and will not resolve here.
// Matching a reading to its kanji form needs a reading/kana index keyed
// separately from normalized_name; the catalogue loaded by
// internal/location.LoadCatalogue carries no such column, so this index
// only supports fuzzy matches between spelling variants of the same
// script (typo correction, abbreviation prefixes), not cross-script
// reading lookup. See DESIGN.md's Open Question decision.
func (idx *Index) fuzzyLookup(normalizedQuery string) (domain.Location, bool) {
	maxDist := len([]rune(normalizedQuery)) / 3
	if maxDist < 1 {
		maxDist = 1
	}

	var best domain.Location
	bestDist := maxDist + 1
	found := false

	for normName, loc := range idx.byNormalized {
		d := idx.editDistance(normalizedQuery, normName)
		if d <= maxDist && d < bestDist {
			bestDist = d
			best = loc
			found = true
		}
	}
	return best, found
}

// editDistance computes Levenshtein distance, memoized in an LRU because
// fuzzy search re-evaluates many identical pairs within one session.
func (idx *Index) editDistance(a, b string) int {
	key := a + "\x00" + b
	if d, ok := idx.editCache.Get(key); ok {
		return d
	}
	d := levenshtein(a, b)
	idx.editCache.Add(key, d)
	return d
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Filters narrows Search results by region and/or prefecture.
type Filters struct {
	Region     string
	Prefecture string
}

// Search returns matches in a stable display order: exact/prefix hits
// first (alphabetical by name), then fuzzy hits (ascending distance),
// each bounded by limit.
func (idx *Index) Search(query string, filters Filters, fuzzy bool, limit int) []domain.Location {
	normalized := NormalizeName(query)
	var results []domain.Location
	seen := make(map[string]struct{})

	add := func(loc domain.Location) bool {
		if _, ok := seen[loc.Name]; ok {
			return false
		}
		if filters.Region != "" && loc.Region != filters.Region {
			return false
		}
		if filters.Prefecture != "" && loc.Prefecture != filters.Prefecture {
			return false
		}
		seen[loc.Name] = struct{}{}
		results = append(results, loc)
		return true
	}

	prefixMatches := append([]domain.Location(nil), idx.prefixTrie.searchPrefix(normalized)...)
	sort.Slice(prefixMatches, func(i, j int) bool { return prefixMatches[i].Name < prefixMatches[j].Name })
	for _, loc := range prefixMatches {
		add(loc)
		if limit > 0 && len(results) >= limit {
			return results
		}
	}

	if fuzzy {
		type scored struct {
			loc  domain.Location
			dist int
		}
		maxDist := len(normalized) / 3
		if maxDist < 1 {
			maxDist = 1
		}
		var candidates []scored
		for normName, loc := range idx.byNormalized {
			if _, ok := seen[loc.Name]; ok {
				continue
			}
			d := idx.editDistance(normalized, normName)
			if d <= maxDist {
				candidates = append(candidates, scored{loc, d})
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].dist != candidates[j].dist {
				return candidates[i].dist < candidates[j].dist
			}
			return candidates[i].loc.Name < candidates[j].loc.Name
		})
		for _, c := range candidates {
			add(c.loc)
			if limit > 0 && len(results) >= limit {
				return results
			}
		}
	}

	return results
}

// Nearby returns locations within radiusKm of loc, sorted ascending by
// distance, bounded by limit.
func (idx *Index) Nearby(loc domain.Location, radiusKm float64, limit int) []domain.Location {
	type scored struct {
		loc domain.Location
		d   float64
	}
	var candidates []scored
	for _, other := range idx.all {
		if other.Name == loc.Name {
			continue
		}
		d := domain.HaversineKm(loc, other)
		if d <= radiusKm {
			candidates = append(candidates, scored{other, d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].d < candidates[j].d })

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.Location, len(candidates))
	for i, c := range candidates {
		out[i] = c.loc
	}
	return out
}

// Len returns the number of locations in the catalogue.
func (idx *Index) Len() int { return len(idx.all) }
