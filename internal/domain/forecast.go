package domain

import (
	"fmt"
	"math"
	"time"
)

// ReferenceTimeZone is the timezone every Forecast datetime is normalized
// to at parse time. See SPEC_FULL.md §9.3.
var ReferenceTimeZone = mustLoadLocation("Asia/Tokyo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Asia/Tokyo is a fixed +09:00 offset with no DST; this never
		// legitimately fails on a correctly configured system, but fall
		// back to a fixed offset rather than panic so callers in minimal
		// container images (no tzdata) still get correct arithmetic.
		return time.FixedZone("Asia/Tokyo", 9*60*60)
	}
	return loc
}

// TargetHours is the fixed set of local hours sampled for the next day's
// forecast.
var TargetHours = [4]int{9, 12, 15, 18}

// Forecast is an immutable record for one (location, timestamp).
type Forecast struct {
	Datetime           time.Time
	TemperatureC       float64
	WeatherCode        string
	WeatherDescription string
	PrecipitationMM    float64
	HumidityPct        float64
	WindSpeedMPS       float64
	WindDirectionDeg   float64
}

// Valid reports whether every numeric field is finite and Datetime carries
// the reference timezone.
func (f Forecast) Valid() bool {
	if math.IsNaN(f.TemperatureC) || math.IsInf(f.TemperatureC, 0) {
		return false
	}
	if math.IsNaN(f.PrecipitationMM) || math.IsInf(f.PrecipitationMM, 0) {
		return false
	}
	if math.IsNaN(f.HumidityPct) || math.IsInf(f.HumidityPct, 0) {
		return false
	}
	if math.IsNaN(f.WindSpeedMPS) || math.IsInf(f.WindSpeedMPS, 0) {
		return false
	}
	if math.IsNaN(f.WindDirectionDeg) || math.IsInf(f.WindDirectionDeg, 0) {
		return false
	}
	if f.Datetime.IsZero() {
		return false
	}
	return f.Datetime.Location().String() == ReferenceTimeZone.String()
}

// ForecastCollection is an ordered, deduplicated sequence of forecasts for
// one location.
type ForecastCollection struct {
	LocationName string
	Forecasts    []Forecast
}

// Validate checks the strictly-increasing, no-duplicate, single-timezone
// invariant.
func (c ForecastCollection) Validate() error {
	for i := 1; i < len(c.Forecasts); i++ {
		prev, cur := c.Forecasts[i-1], c.Forecasts[i]
		if !cur.Datetime.After(prev.Datetime) {
			return fmt.Errorf("forecast collection for %s: datetimes not strictly increasing at index %d", c.LocationName, i)
		}
		if prev.Datetime.Location().String() != cur.Datetime.Location().String() {
			return fmt.Errorf("forecast collection for %s: mixed timezones", c.LocationName)
		}
	}
	return nil
}

// NearestTo returns the forecast in the collection whose Datetime is
// closest to target, and the absolute difference. Ok is false if the
// collection is empty.
func (c ForecastCollection) NearestTo(target time.Time) (f Forecast, diff time.Duration, ok bool) {
	best := time.Duration(math.MaxInt64)
	for _, cand := range c.Forecasts {
		d := cand.Datetime.Sub(target)
		if d < 0 {
			d = -d
		}
		if d < best {
			best = d
			f = cand
			ok = true
		}
	}
	return f, best, ok
}
