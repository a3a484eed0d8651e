package pipeline

import (
	"strings"

	apperrors "github.com/sakamo-wni/weathercomment/internal/apperrors"
	"github.com/sakamo-wni/weathercomment/pkg/utils"
)

// classifyError maps a stage error's message to the fault taxonomy by
// keyword substring, the same technique the teacher's
// classifier.classifySeverity used for alert severity (highSeverityKeywords
// / mediumSeverityKeywords lookups), repurposed here per spec.md §4.6's
// classification table.
func classifyError(message string) apperrors.ErrorType {
	text := strings.ToLower(message)

	timeoutKeywords := []string{"deadline", "context deadline", "timeout"}
	weatherFetchKeywords := []string{"weather fetch", "fetch_forecast", "network"}
	dataAccessKeywords := []string{"missing reference partition", "row parse", "partition", "data_access"}
	llmKeywords := []string{"llm", "generation failed", "select_pair"}
	validationKeywords := []string{"validation", "is_valid"}

	switch {
	// A fan-out or per-location deadline expiry (spec.md §4.6: "on deadline
	// expiry the pipeline fails with timeout_error") is checked ahead of
	// weather-fetch keywords so "fan-out deadline exceeded" classifies as
	// timeout_error rather than weather_fetch.
	case utils.ContainsAny(text, timeoutKeywords):
		return apperrors.TimeoutError
	case utils.ContainsAny(text, weatherFetchKeywords):
		return apperrors.WeatherFetch
	case utils.ContainsAny(text, dataAccessKeywords):
		return apperrors.DataAccess
	case utils.ContainsAny(text, llmKeywords):
		return apperrors.LLMError
	case utils.ContainsAny(text, validationKeywords):
		return apperrors.ValidationError
	default:
		return apperrors.UnknownError
	}
}
