// Package llm defines the LLM-selection collaborator boundary. No
// concrete provider adapter lives here — spec.md §1 puts those out of
// scope — only the interface the pipeline calls against and a
// deterministic fake for tests.
package llm

import (
	"context"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// WeatherContext is what the pipeline hands a Generator to ground its
// selection in the current forecast.
type WeatherContext struct {
	Location    domain.Location
	Forecast    domain.Forecast
	TargetHour  int
}

// Generator is the capability object spec.md §6 describes:
// select_and_generate(weather_context, candidates) -> (weather_comment,
// advice_comment, final_text, validation_result?). A call either returns
// the tuple or an error the executor classifies as llm_error.
type Generator interface {
	SelectAndGenerate(ctx context.Context, wx WeatherContext, candidates []domain.ReferenceComment) (Result, error)
}

// Result is the tuple Generator.SelectAndGenerate returns.
type Result struct {
	Pair             domain.CommentPair
	FinalText        string
	ValidationResult *domain.ValidationResult // nil if the provider doesn't self-validate
}
