package evaluator

import (
	"strings"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// Each scorer below mirrors one original_source/src/algorithms/evaluators
// /*.py file: same criterion name, a simple explainable heuristic in
// place of the original's rule set, scored into [0, 1].

func scoreAppropriateness(ctx EvalContext) domain.CriterionScore {
	text := ctx.FinalText
	if text == "" {
		text = ctx.Pair.WeatherComment.Text + ctx.Pair.AdviceComment.Text
	}
	if word, bad := containsBanned(text); bad {
		return domain.CriterionScore{CriterionID: "appropriateness", Score: 0, Reason: "contains banned word: " + word}
	}
	if len(text) > domain.MaxCommentTextLength*2 {
		return domain.CriterionScore{CriterionID: "appropriateness", Score: 0.3, Reason: "text far exceeds expected length"}
	}
	return domain.CriterionScore{CriterionID: "appropriateness", Score: 1, Reason: "no banned content detected"}
}

func scoreClarity(ctx EvalContext) domain.CriterionScore {
	text := strings.TrimSpace(ctx.FinalText)
	if text == "" {
		return domain.CriterionScore{CriterionID: "clarity", Score: 0, Reason: "empty final text"}
	}
	runeLen := len([]rune(text))
	switch {
	case runeLen < 3:
		return domain.CriterionScore{CriterionID: "clarity", Score: 0.2, Reason: "too short to be intelligible"}
	case runeLen > domain.MaxCommentTextLength:
		return domain.CriterionScore{CriterionID: "clarity", Score: 0.5, Reason: "longer than the expected comment length"}
	default:
		return domain.CriterionScore{CriterionID: "clarity", Score: 1, Reason: "within expected length bounds"}
	}
}

func scoreConsistency(ctx EvalContext) domain.CriterionScore {
	if ctx.Forecast.PrecipitationMM > 1.0 && strings.Contains(ctx.Pair.WeatherComment.Text, "晴") {
		return domain.CriterionScore{CriterionID: "consistency", Score: 0.2, Reason: "comment mentions clear skies despite forecast precipitation"}
	}
	if ctx.Forecast.TemperatureC >= 30 && strings.Contains(ctx.Pair.WeatherComment.Text, "寒") {
		return domain.CriterionScore{CriterionID: "consistency", Score: 0.2, Reason: "comment mentions cold despite a hot forecast"}
	}
	return domain.CriterionScore{CriterionID: "consistency", Score: 1, Reason: "no contradiction with forecast data detected"}
}

func scoreCreativity(ctx EvalContext) domain.CriterionScore {
	if ctx.Pair.WeatherComment.Text != "" && ctx.Pair.WeatherComment.Text == ctx.Pair.AdviceComment.Text {
		return domain.CriterionScore{CriterionID: "creativity", Score: 0.3, Reason: "weather and advice comments are identical"}
	}
	return domain.CriterionScore{CriterionID: "creativity", Score: 0.8, Reason: "pair draws from distinct reference comments"}
}

func scoreEngagement(ctx EvalContext) domain.CriterionScore {
	text := ctx.FinalText
	if strings.ContainsAny(text, "！!？?") {
		return domain.CriterionScore{CriterionID: "engagement", Score: 1, Reason: "contains an engaging punctuation mark"}
	}
	return domain.CriterionScore{CriterionID: "engagement", Score: 0.6, Reason: "plain declarative tone"}
}

func scoreNaturalness(ctx EvalContext) domain.CriterionScore {
	text := ctx.FinalText
	if strings.Contains(text, "  ") {
		return domain.CriterionScore{CriterionID: "naturalness", Score: 0.4, Reason: "double-space suggests a templating artifact"}
	}
	return domain.CriterionScore{CriterionID: "naturalness", Score: 0.9, Reason: "no obvious templating artifacts"}
}

func scoreOriginality(ctx EvalContext) domain.CriterionScore {
	if ctx.Pair.WeatherComment.Count > 50 {
		return domain.CriterionScore{CriterionID: "originality", Score: 0.5, Reason: "drawn from a high-frequency reference comment"}
	}
	return domain.CriterionScore{CriterionID: "originality", Score: 0.85, Reason: "drawn from a lower-frequency reference comment"}
}

func scoreRelevance(ctx EvalContext) domain.CriterionScore {
	if ctx.Pair.WeatherComment.Season == "" {
		return domain.CriterionScore{CriterionID: "relevance", Score: 0.5, Reason: "weather comment has no season tag to check against the forecast"}
	}
	return domain.CriterionScore{CriterionID: "relevance", Score: 1, Reason: "weather comment carries a season tag"}
}
