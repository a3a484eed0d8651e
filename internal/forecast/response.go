package forecast

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// rawResponse mirrors the wxtech ss1wx endpoint's JSON shape:
// {"wxdata":[{"srf":[...],"mrf":[...]}]}, grounded on
// original_source/src/apis/wxtech/client.py and api.py.
type rawResponse struct {
	WXData []rawWXData `json:"wxdata"`
}

type rawWXData struct {
	SRF []rawEntry `json:"srf"`
	MRF []rawEntry `json:"mrf"`
}

// rawEntry is one hourly (srf) or multi-hour (mrf) sample. Every field is
// decoded as a JSON string and numeric ones are converted by
// parseFloatField (an unparsable value becomes 0); a numeric field sent
// as a bare JSON number fails decoding of the whole response.
type rawEntry struct {
	Date               string `json:"date"`
	Temperature        string `json:"temp"`
	WeatherCode        string `json:"wx"`
	WeatherDescription string `json:"wx_description"`
	Precipitation      string `json:"prec"`
	Humidity           string `json:"rhum"`
	WindSpeed          string `json:"wspd"`
	WindDirection      string `json:"wdir"`
}

const wxtechDateLayout = "200601021504"

func parseFloatField(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseForecastResponse converts the raw wxtech payload into a domain
// ForecastCollection, normalizing every timestamp to domain.ReferenceTimeZone
// and skipping (with no error) any entry whose date can't be parsed. srf
// and mrf samples can overlap at their boundary hour, so the merged result
// is sorted by datetime and deduplicated before being returned, to uphold
// domain.ForecastCollection's strictly-increasing invariant (spec.md §3).
func parseForecastResponse(raw rawResponse, locationName string) (domain.ForecastCollection, error) {
	if len(raw.WXData) == 0 {
		return domain.ForecastCollection{}, fmt.Errorf("wxtech response contained no wxdata")
	}
	wx := raw.WXData[0]

	var forecasts []domain.Forecast
	for _, e := range append(append([]rawEntry{}, wx.SRF...), wx.MRF...) {
		f, ok := parseEntry(e)
		if !ok {
			continue
		}
		forecasts = append(forecasts, f)
	}

	sort.Slice(forecasts, func(i, j int) bool { return forecasts[i].Datetime.Before(forecasts[j].Datetime) })

	deduped := forecasts[:0]
	for i, f := range forecasts {
		if i > 0 && f.Datetime.Equal(forecasts[i-1].Datetime) {
			continue
		}
		deduped = append(deduped, f)
	}

	return domain.ForecastCollection{LocationName: locationName, Forecasts: deduped}, nil
}

func parseEntry(e rawEntry) (domain.Forecast, bool) {
	t, err := time.ParseInLocation(wxtechDateLayout, e.Date, domain.ReferenceTimeZone)
	if err != nil {
		return domain.Forecast{}, false
	}

	return domain.Forecast{
		Datetime:           t,
		TemperatureC:       parseFloatField(e.Temperature),
		WeatherCode:        e.WeatherCode,
		WeatherDescription: e.WeatherDescription,
		PrecipitationMM:    parseFloatField(e.Precipitation),
		HumidityPct:        parseFloatField(e.Humidity),
		WindSpeedMPS:       parseFloatField(e.WindSpeed),
		WindDirectionDeg:   parseFloatField(e.WindDirection),
	}, true
}
