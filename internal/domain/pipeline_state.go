package domain

import "time"

// ValidationResult is the tagged variant from SPEC_FULL.md §4.x: either the
// pair validated with a score, or it failed with a score and reasons.
// Exactly one of the two constructors below should be used; the zero
// value is not a valid ValidationResult.
type ValidationResult struct {
	IsValid bool
	Score   float64
	Reasons []string
}

// Valid constructs a passing ValidationResult.
func Valid(score float64) ValidationResult {
	return ValidationResult{IsValid: true, Score: score}
}

// Invalid constructs a failing ValidationResult with reasons.
func Invalid(score float64, reasons ...string) ValidationResult {
	return ValidationResult{IsValid: false, Score: score, Reasons: reasons}
}

// CriterionScore is the output of one registered evaluation criterion
// function (see internal/evaluator).
type CriterionScore struct {
	CriterionID string
	Score       float64
	Weight      float64
	Reason      string
}

// CommentPair is the (weather_comment, advice_comment) selection produced
// by the select_pair stage.
type CommentPair struct {
	WeatherComment ReferenceComment
	AdviceComment  ReferenceComment
}

// PipelineState is the mutable struct carried through one per-location
// pipeline run. Exclusively owned by the PipelineExecutor that created
// it; never shared across locations.
type PipelineState struct {
	LocationName      string
	TargetDatetime    time.Time
	LLMProvider       string
	ExcludePrevious   bool
	RetryCount        int
	WeatherData       *ForecastCollection
	PastComments      []ReferenceComment
	SelectedPair      *CommentPair
	FinalComment      string
	AdviceText        string
	ValidationResult  *ValidationResult
	Errors            []string
	Warnings          []string
	GenerationMetadata map[string]any
	WorkflowStartTime time.Time
}

// NewPipelineState seeds a fresh state the way the input stage does.
func NewPipelineState(locationName string, target time.Time, provider string, excludePrevious bool) *PipelineState {
	return &PipelineState{
		LocationName:       locationName,
		TargetDatetime:     target,
		LLMProvider:        provider,
		ExcludePrevious:    excludePrevious,
		GenerationMetadata: map[string]any{"node_execution_times": map[string]int64{}},
		WorkflowStartTime:  time.Now(),
	}
}

// NodeExecutionTimes returns the node_execution_times sub-map, creating it
// if absent.
func (s *PipelineState) NodeExecutionTimes() map[string]int64 {
	raw, ok := s.GenerationMetadata["node_execution_times"]
	if !ok {
		m := map[string]int64{}
		s.GenerationMetadata["node_execution_times"] = m
		return m
	}
	m, ok := raw.(map[string]int64)
	if !ok {
		m = map[string]int64{}
		s.GenerationMetadata["node_execution_times"] = m
	}
	return m
}

// RecordStageTime stores how long a stage took, whether it succeeded or failed.
func (s *PipelineState) RecordStageTime(stage string, d time.Duration) {
	s.NodeExecutionTimes()[stage] = d.Milliseconds()
}

// AddError appends a user-facing error message to the running list.
func (s *PipelineState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// AddWarning appends a non-fatal warning to the running list.
func (s *PipelineState) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// LocationResult is produced once per location; immutable after return.
type LocationResult struct {
	Location           string
	Success            bool
	Comment            string
	AdviceComment      string
	Error              string
	ErrorType          string
	GenerationMetadata map[string]any
	SourceFiles        []string
}

// BatchResult aggregates one BatchOrchestrator run.
type BatchResult struct {
	TotalCount       int
	SuccessCount     int
	FailedCount      int
	Results          []LocationResult
	ProcessingTimeMS int64
}

// Validate checks the success_count + failed_count == total_count invariant.
func (b BatchResult) Validate() bool {
	return b.SuccessCount+b.FailedCount == b.TotalCount && b.TotalCount == len(b.Results)
}
