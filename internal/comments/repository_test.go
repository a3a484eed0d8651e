package comments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sakamo-wni/weathercomment/internal/domain"
)

// fakeLoader is an in-memory Loader for tests, grounded on the teacher's
// MockSource pattern (internal/pipeline/pipeline_test.go).
type fakeLoader struct {
	calls int
	data  map[string][]domain.ReferenceComment
	err   map[string]error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{data: map[string][]domain.ReferenceComment{}, err: map[string]error{}}
}

func (f *fakeLoader) key(season domain.Season, kind domain.CommentKind) string {
	return fmt.Sprintf("%s_%s", season, kind)
}

func (f *fakeLoader) set(season domain.Season, kind domain.CommentKind, comments []domain.ReferenceComment) {
	f.data[f.key(season, kind)] = comments
}

func (f *fakeLoader) Load(season domain.Season, kind domain.CommentKind) ([]domain.ReferenceComment, error) {
	f.calls++
	k := f.key(season, kind)
	if err, ok := f.err[k]; ok {
		return nil, err
	}
	return f.data[k], nil
}

func TestGetBySeasonLoadsBothKinds(t *testing.T) {
	loader := newFakeLoader()
	loader.set(domain.SeasonSummer, domain.KindWeatherComment, []domain.ReferenceComment{{Text: "hot day", Count: 3}})
	loader.set(domain.SeasonSummer, domain.KindAdvice, []domain.ReferenceComment{{Text: "stay hydrated", Count: 5}})

	repo := NewWithLoader(loader)
	got := repo.GetBySeason(context.Background(), []domain.Season{domain.SeasonSummer}, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
}

func TestLoadPartitionCachesResult(t *testing.T) {
	loader := newFakeLoader()
	loader.set(domain.SeasonWinter, domain.KindAdvice, []domain.ReferenceComment{{Text: "bundle up"}})

	repo := NewWithLoader(loader)
	ctx := context.Background()
	repo.GetBySeason(ctx, []domain.Season{domain.SeasonWinter}, 0)
	repo.GetBySeason(ctx, []domain.Season{domain.SeasonWinter}, 0)

	if loader.calls != 2 { // one per (season,kind) pair requested, each pair loaded once across both calls
		t.Fatalf("expected the repository to serve the second call from cache, loader was called %d times", loader.calls)
	}
}

func TestMissingPartitionIsEmptyNotError(t *testing.T) {
	loader := newFakeLoader()
	loader.err["summer_advice"] = fmt.Errorf("boom")

	repo := NewWithLoader(loader)
	got := repo.GetBySeason(context.Background(), []domain.Season{domain.SeasonSummer}, 0)
	// weather_comment partition has no data registered either, but no panic/error surfaces.
	if got != nil {
		t.Fatalf("expected nil/empty result when every partition is empty or erroring, got %v", got)
	}
}

func TestGetRecentSortsByCountDescending(t *testing.T) {
	loader := newFakeLoader()
	month := time.Now().Month()
	seasons := relevantSeasons(month)
	loader.set(seasons[0], domain.KindWeatherComment, []domain.ReferenceComment{
		{Text: "low", Count: 1},
		{Text: "high", Count: 100},
		{Text: "mid", Count: 50},
	})

	repo := NewWithLoader(loader)
	repo.nowFn = func() time.Time { return time.Date(2026, month, 15, 0, 0, 0, 0, time.UTC) }

	got := repo.GetRecent(context.Background(), 2)
	if len(got) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(got))
	}
	if got[0].Text != "high" || got[1].Text != "mid" {
		t.Fatalf("expected descending count order, got %+v", got)
	}
}

func TestRelevantSeasonsCoversEveryMonth(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		if len(relevantSeasons(m)) == 0 {
			t.Fatalf("expected at least one relevant season for month %v", m)
		}
	}
}

func TestAllAvailableCapsPerPartition(t *testing.T) {
	loader := newFakeLoader()
	loader.set(domain.SeasonAutumn, domain.KindWeatherComment, []domain.ReferenceComment{
		{Text: "a"}, {Text: "b"}, {Text: "c"},
	})

	repo := NewWithLoader(loader)
	got := repo.AllAvailable(context.Background(), 2)

	count := 0
	for _, c := range got {
		if c.Season == domain.SeasonAutumn && c.Kind == domain.KindWeatherComment {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected partition capped at 2 entries, got %d", count)
	}
}
