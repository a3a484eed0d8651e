package llm

import (
	"context"
	"fmt"

	apperrors "github.com/sakamo-wni/weathercomment/internal/apperrors"
	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// NullGenerator is a deterministic Generator, used by the tests and wired
// by cmd/weathercommentd as the repository's only Generator: it picks
// the first weather_comment and first advice candidate (by input order)
// and concatenates them, producing no ValidationResult of its own so the
// evaluator framework always runs. Grounded on the teacher's MockStore/
// MockClassifier test-double style (internal/pipeline/pipeline_test.go).
type NullGenerator struct {
	// FailWith, if non-nil, makes every call return this error instead.
	FailWith error
}

func (g *NullGenerator) SelectAndGenerate(ctx context.Context, wx WeatherContext, candidates []domain.ReferenceComment) (Result, error) {
	if g.FailWith != nil {
		return Result{}, g.FailWith
	}

	var weather, advice domain.ReferenceComment
	var haveWeather, haveAdvice bool
	for _, c := range candidates {
		switch c.Kind {
		case domain.KindWeatherComment:
			if !haveWeather {
				weather, haveWeather = c, true
			}
		case domain.KindAdvice:
			if !haveAdvice {
				advice, haveAdvice = c, true
			}
		}
	}
	if !haveWeather && !haveAdvice {
		return Result{}, apperrors.Newf(apperrors.CommentGeneration, "no candidate comments available for %s", wx.Location.Name)
	}

	final := fmt.Sprintf("%s %s", weather.Text, advice.Text)
	return Result{
		Pair:      domain.CommentPair{WeatherComment: weather, AdviceComment: advice},
		FinalText: final,
	}, nil
}
