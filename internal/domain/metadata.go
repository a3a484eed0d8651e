package domain

import "encoding/json"

// ExtractMetadata pulls the fields the output stage needs out of a
// finished PipelineState, grounded on
// original_source/src/controllers/metadata_extractor.py: weather
// condition/temperature/precipitation from the selected forecast,
// alongside node_execution_times and a serialized output_json blob.
func ExtractMetadata(s *PipelineState) map[string]any {
	meta := s.GenerationMetadata
	if meta == nil {
		meta = map[string]any{}
	}

	if s.WeatherData != nil && len(s.WeatherData.Forecasts) > 0 {
		f, _, ok := s.WeatherData.NearestTo(s.TargetDatetime)
		if ok {
			meta["weather_condition"] = f.WeatherDescription
			meta["temperature"] = f.TemperatureC
			meta["precipitation"] = f.PrecipitationMM
		}
	}

	meta["node_execution_times"] = s.NodeExecutionTimes()

	blob, err := json.Marshal(struct {
		Location     string `json:"location"`
		FinalComment string `json:"final_comment"`
		RetryCount   int    `json:"retry_count"`
	}{s.LocationName, s.FinalComment, s.RetryCount})
	if err == nil {
		meta["output_json"] = string(blob)
	}

	return meta
}
