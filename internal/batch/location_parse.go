package batch

import (
	"strconv"
	"strings"

	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/location"
)

// ParseLocation resolves one batch-input token to a domain.Location, per
// spec.md §6's Batch API: a bare canonical name, or a "name,lat,lon" triple
// split on commas and stripped of whitespace. An unknown name with
// coordinates succeeds as a synthetic Location; an unknown name without
// coordinates reports ok=false so the caller can produce a
// location_not_found LocationResult.
func ParseLocation(idx *location.Index, token string) (domain.Location, bool) {
	parts := strings.Split(token, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	name := parts[0]
	if len(parts) == 3 {
		lat, latErr := strconv.ParseFloat(parts[1], 64)
		lon, lonErr := strconv.ParseFloat(parts[2], 64)
		if latErr == nil && lonErr == nil {
			if loc, ok := idx.Lookup(name); ok {
				return loc, true
			}
			return domain.Location{
				Name:           name,
				NormalizedName: location.NormalizeName(name),
				Latitude:       lat,
				Longitude:      lon,
				HasCoordinates: true,
			}, true
		}
	}

	if loc, ok := idx.Lookup(name); ok {
		return loc, true
	}
	return domain.Location{}, false
}
