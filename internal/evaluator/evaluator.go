// Package evaluator implements the pluggable validation framework that
// sits between select_pair and generate: eight independent criteria
// (appropriateness, clarity, consistency, creativity, engagement,
// naturalness, originality, relevance), each scored by a registered
// function and folded into one weighted domain.ValidationResult.
// Grounded on original_source/src/algorithms/evaluators/*.py (one file
// per criterion) and comment_evaluator.py's dispatch-by-ID loop; the
// scoring heuristics themselves are deliberately simple and explainable
// since no model call is in scope (spec.md §1: "Evaluation heuristics...
// treated as a pluggable scoring function").
package evaluator

import (
	"strings"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// EvalContext is what every criterion function receives.
type EvalContext struct {
	Pair      domain.CommentPair
	Forecast  domain.Forecast
	FinalText string
}

// CriterionFunc scores one dimension of a generated pair.
type CriterionFunc func(ctx EvalContext) domain.CriterionScore

// registry maps criterion ID to its scoring function. Populated once at
// package init; never mutated afterward except by Register (tests only).
var registry = map[string]CriterionFunc{
	"appropriateness": scoreAppropriateness,
	"clarity":         scoreClarity,
	"consistency":     scoreConsistency,
	"creativity":      scoreCreativity,
	"engagement":      scoreEngagement,
	"naturalness":     scoreNaturalness,
	"originality":     scoreOriginality,
	"relevance":       scoreRelevance,
}

// CriterionIDs lists every registered criterion, in the original's order.
var CriterionIDs = []string{
	"appropriateness", "clarity", "consistency", "creativity",
	"engagement", "naturalness", "originality", "relevance",
}

// Register installs (or overrides) a criterion function. Exposed for
// tests that want to substitute a stub scorer.
func Register(id string, fn CriterionFunc) {
	registry[id] = fn
}

// Mode selects which threshold row Evaluate enforces.
type Mode string

const (
	ModeStrict   Mode = "strict"
	ModeModerate Mode = "moderate"
	ModeRelaxed  Mode = "relaxed"
)

// Thresholds is one row of the fixed evaluation-mode table (SPEC_FULL.md
// §4.x, resolving the "evaluation mode" open question).
type Thresholds struct {
	MinScore         float64
	RequiredCriteria []string
}

var modeThresholds = map[Mode]Thresholds{
	ModeStrict: {
		MinScore:         0.75,
		RequiredCriteria: CriterionIDs,
	},
	ModeModerate: {
		MinScore:         0.6,
		RequiredCriteria: []string{"appropriateness", "consistency", "relevance"},
	},
	ModeRelaxed: {
		MinScore:         0.4,
		RequiredCriteria: []string{"appropriateness"},
	},
}

// banned are words that never belong in a public-facing weather comment.
var banned = []string{"死", "殺", "最悪", "despair"}

// Evaluate runs every registered criterion, folds the scores into a
// weighted average (equal weight unless weights specifies otherwise),
// and checks the mode's required criteria against their individual
// scores, not just the aggregate (so "relaxed" mode genuinely skips
// checks on non-required criteria, per §9 decision 2).
func Evaluate(ctx EvalContext, mode Mode, weights map[string]float64) domain.ValidationResult {
	thresholds, ok := modeThresholds[mode]
	if !ok {
		thresholds = modeThresholds[ModeModerate]
	}

	scores := make(map[string]domain.CriterionScore, len(CriterionIDs))
	var totalWeight, weightedSum float64
	for _, id := range CriterionIDs {
		fn, ok := registry[id]
		if !ok {
			continue
		}
		cs := fn(ctx)
		w := weights[id]
		if w <= 0 {
			w = 1
		}
		cs.Weight = w
		scores[id] = cs
		weightedSum += cs.Score * w
		totalWeight += w
	}

	overall := 0.0
	if totalWeight > 0 {
		overall = weightedSum / totalWeight
	}

	var reasons []string
	for _, required := range thresholds.RequiredCriteria {
		cs, ok := scores[required]
		if !ok {
			continue
		}
		if cs.Score < thresholds.MinScore {
			reasons = append(reasons, required+": "+cs.Reason)
		}
	}
	if overall < thresholds.MinScore {
		reasons = append(reasons, "overall score below threshold")
	}

	if len(reasons) > 0 {
		return domain.Invalid(overall, reasons...)
	}
	return domain.Valid(overall)
}

func containsBanned(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, b := range banned {
		if strings.Contains(lower, strings.ToLower(b)) {
			return b, true
		}
	}
	return "", false
}
