package evaluator

import (
	"testing"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

func goodContext() EvalContext {
	return EvalContext{
		Pair: domain.CommentPair{
			WeatherComment: domain.ReferenceComment{Text: "穏やかな一日です", Season: domain.SeasonSpring, Count: 3},
			AdviceComment:  domain.ReferenceComment{Text: "上着があると安心です", Count: 2},
		},
		Forecast:  domain.Forecast{TemperatureC: 18, PrecipitationMM: 0},
		FinalText: "穏やかな一日です！上着があると安心です",
	}
}

func TestEvaluateValidPairPassesStrict(t *testing.T) {
	result := Evaluate(goodContext(), ModeStrict, nil)
	if !result.IsValid {
		t.Fatalf("expected a clean pair to pass strict mode, got reasons %v (score %v)", result.Reasons, result.Score)
	}
}

func TestEvaluateRejectsBannedWord(t *testing.T) {
	ctx := goodContext()
	ctx.FinalText = "最悪の天気です"
	result := Evaluate(ctx, ModeStrict, nil)
	if result.IsValid {
		t.Fatal("expected banned-word text to fail evaluation")
	}
}

func TestEvaluateRelaxedModeOnlyChecksAppropriateness(t *testing.T) {
	ctx := goodContext()
	ctx.FinalText = ""
	ctx.Pair.WeatherComment.Text = ""
	ctx.Pair.AdviceComment.Text = ""
	result := Evaluate(ctx, ModeRelaxed, nil)
	if !result.IsValid {
		t.Fatalf("expected relaxed mode to ignore clarity failures on required-only criteria, got %v", result.Reasons)
	}
}

func TestEvaluateDetectsForecastContradiction(t *testing.T) {
	ctx := goodContext()
	ctx.Pair.WeatherComment.Text = "晴天が続きます"
	ctx.Forecast.PrecipitationMM = 10
	result := Evaluate(ctx, ModeStrict, nil)
	if result.IsValid {
		t.Fatal("expected a clear-sky comment against a rainy forecast to fail consistency")
	}
}

func TestModeThresholdsCoverAllModes(t *testing.T) {
	for _, m := range []Mode{ModeStrict, ModeModerate, ModeRelaxed} {
		if _, ok := modeThresholds[m]; !ok {
			t.Fatalf("missing threshold row for mode %q", m)
		}
	}
}

func TestRegisterOverridesCriterion(t *testing.T) {
	original := registry["clarity"]
	defer Register("clarity", original)

	Register("clarity", func(ctx EvalContext) domain.CriterionScore {
		return domain.CriterionScore{CriterionID: "clarity", Score: 0, Reason: "forced failure"}
	})
	result := Evaluate(goodContext(), ModeStrict, nil)
	if result.IsValid {
		t.Fatal("expected overridden clarity scorer to fail strict mode")
	}
}
