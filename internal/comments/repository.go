// Package comments implements C5, the reference-comment repository:
// lazy per-(season,kind) partition loading from CSV files, a small
// worker pool for parallel partition loads, and season-aware retrieval.
// Grounded on the teacher's internal/pipeline worker/retry idiom and
// original_source/src/repositories (lazy CSV partitions cached in a TTL
// store).
package comments

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakamo-wni/weathercomment/internal/cache"
	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/logger"
)

// partitionLoadConcurrency bounds parallel partition loads (spec.md §4.5: "≤4").
const partitionLoadConcurrency = 4

// partitionTTL is how long a loaded partition stays in the TTL cache.
const partitionTTL = time.Hour

// Loader reads and parses one partition file. Implemented by csvLoader;
// split out as an interface so tests can substitute an in-memory loader.
type Loader interface {
	Load(season domain.Season, kind domain.CommentKind) ([]domain.ReferenceComment, error)
}

// Repository is C5. Safe for concurrent use.
type Repository struct {
	loader Loader
	cache  *cache.TTLCache[any]
	nowFn  func() time.Time
}

// New constructs a Repository that loads partitions named
// {season}_{kind}_enhanced100.csv from dir via a csvLoader, backed by an
// internal TTL cache (ttl 1h per spec.md §4.5).
func New(dir string) *Repository {
	return &Repository{
		loader: &csvLoader{dir: dir},
		cache:  cache.New[any](0, partitionTTL),
		nowFn:  time.Now,
	}
}

// NewWithLoader allows tests to inject a fake Loader.
func NewWithLoader(loader Loader) *Repository {
	return &Repository{loader: loader, cache: cache.New[any](0, partitionTTL), nowFn: time.Now}
}

func partitionCacheKey(season domain.Season, kind domain.CommentKind) string {
	return fmt.Sprintf("%s_%s", season, kind)
}

// loadPartition returns the comments for one (season, kind), loading and
// caching it on first use. Missing partition files produce an empty
// partition, never an error (spec.md §4.5 invariant).
func (r *Repository) loadPartition(season domain.Season, kind domain.CommentKind) ([]domain.ReferenceComment, error) {
	key := partitionCacheKey(season, kind)
	if cached, ok := r.cache.Get(key); ok {
		return cached.([]domain.ReferenceComment), nil
	}

	comments, err := r.loader.Load(season, kind)
	if err != nil {
		return nil, fmt.Errorf("load partition %s: %w", key, err)
	}
	r.cache.Set(key, comments, partitionTTL)
	return comments, nil
}

// loadPartitions loads every (season, kind) pair concurrently, bounded by
// partitionLoadConcurrency, and returns the flattened union. A single
// partition's load error is logged and treated as an empty partition
// rather than aborting the whole call (spec.md §4.5: "never raises on a
// missing partition file").
func (r *Repository) loadPartitions(ctx context.Context, seasons []domain.Season, kinds []domain.CommentKind) []domain.ReferenceComment {
	type job struct {
		season domain.Season
		kind   domain.CommentKind
	}
	var jobs []job
	for _, s := range seasons {
		for _, k := range kinds {
			jobs = append(jobs, job{s, k})
		}
	}

	results := make([][]domain.ReferenceComment, len(jobs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(partitionLoadConcurrency)

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			comments, err := r.loadPartition(j.season, j.kind)
			if err != nil {
				logger.Warn("comment partition load failed; treating as empty", "season", j.season, "kind", j.kind, "error", err)
				return nil
			}
			results[i] = comments
			return nil
		})
	}
	_ = g.Wait() // errors are already swallowed per-job above

	var out []domain.ReferenceComment
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// GetBySeason returns comments from the given seasons (both kinds),
// bounded by limit (0 = unbounded).
func (r *Repository) GetBySeason(ctx context.Context, seasons []domain.Season, limit int) []domain.ReferenceComment {
	all := r.loadPartitions(ctx, seasons, domain.AllKinds)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// relevantSeasons implements the month->seasons table in spec.md §4.5.
func relevantSeasons(month time.Month) []domain.Season {
	switch month {
	case time.January, time.February, time.December:
		return []domain.Season{domain.SeasonWinter}
	case time.March:
		return []domain.Season{domain.SeasonWinter, domain.SeasonSpring}
	case time.April:
		return []domain.Season{domain.SeasonSpring}
	case time.May:
		return []domain.Season{domain.SeasonSpring, domain.SeasonRainySeason}
	case time.June:
		return []domain.Season{domain.SeasonRainySeason, domain.SeasonSummer}
	case time.July, time.August:
		return []domain.Season{domain.SeasonSummer, domain.SeasonRainySeason, domain.SeasonTyphoon}
	case time.September:
		return []domain.Season{domain.SeasonSummer, domain.SeasonTyphoon, domain.SeasonAutumn}
	case time.October, time.November:
		return []domain.Season{domain.SeasonAutumn, domain.SeasonTyphoon}
	default:
		return []domain.Season{domain.SeasonWinter}
	}
}

// GetRecent determines the relevant seasons from the current calendar
// month, loads their partitions, and returns the top `limit` comments by
// descending count (spec.md §4.5).
func (r *Repository) GetRecent(ctx context.Context, limit int) []domain.ReferenceComment {
	seasons := relevantSeasons(r.nowFn().Month())
	all := r.loadPartitions(ctx, seasons, domain.AllKinds)

	sort.SliceStable(all, func(i, j int) bool { return all[i].Count > all[j].Count })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// AllAvailable loads every partition, capped at maxPerPartition comments
// each (0 = unbounded per partition).
func (r *Repository) AllAvailable(ctx context.Context, maxPerPartition int) []domain.ReferenceComment {
	var out []domain.ReferenceComment
	for _, season := range domain.AllSeasons {
		for _, kind := range domain.AllKinds {
			comments, err := r.loadPartition(season, kind)
			if err != nil {
				logger.Warn("comment partition load failed; treating as empty", "season", season, "kind", kind, "error", err)
				continue
			}
			if maxPerPartition > 0 && len(comments) > maxPerPartition {
				comments = comments[:maxPerPartition]
			}
			out = append(out, comments...)
		}
	}
	return out
}
