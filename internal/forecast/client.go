// Package forecast implements C4, the ForecastClient: a wxtech-shaped
// HTTP client with rate limiting, retry/backoff, response parsing, and a
// TTL cache fronting repeated lookups for the same (location, day).
// Grounded on original_source/src/apis/wxtech/{api.py,client.py,errors.py}
// for the request/retry/error-mapping shape, and on the teacher's
// internal/pipeline/rss_source.go for the Go HTTP-client idiom.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/sakamo-wni/weathercomment/internal/apperrors"
	"github.com/sakamo-wni/weathercomment/internal/cache"
	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/logger"
	"github.com/sakamo-wni/weathercomment/internal/metrics"
)

const (
	baseURL            = "https://wxtech.weathernews.com/api/v1"
	defaultTimeout     = 30 * time.Second
	maxForecastHours   = 168
	maxRetries         = 3
	retryBaseDelay     = time.Second
	rateLimitPerSecond = 10
)

// Client is C4. Safe for concurrent use.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.TTLCache[any]
	cacheTTL   time.Duration
	nowFn      func() time.Time
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client (used by tests to
// point at an httptest.Server).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCache wires an explicit backing TTLCache instead of a private one,
// e.g. a named cache obtained from cache.Manager.GetCache("weather_forecasts").
func WithCache(c *cache.TTLCache[any], ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// New constructs a Client for the given wxtech API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimitPerSecond), 1),
		cache:      cache.New[any](200, 10*time.Minute),
		cacheTTL:   10 * time.Minute,
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(lat, lon float64, hours int, day string) string {
	return fmt.Sprintf("%.6f,%.6f,%d,%s", lat, lon, hours, day)
}

// GetForecast fetches up to forecastHours of raw forecast data for
// (lat, lon), validating the coordinate and hour ranges the way
// client.py's get_forecast does.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64, forecastHours int) (domain.ForecastCollection, error) {
	if lat < -90 || lat > 90 {
		return domain.ForecastCollection{}, apperrors.Newf(apperrors.ValidationError, "latitude %f out of range [-90,90]", lat)
	}
	if lon < -180 || lon > 180 {
		return domain.ForecastCollection{}, apperrors.Newf(apperrors.ValidationError, "longitude %f out of range [-180,180]", lon)
	}
	if forecastHours <= 0 || forecastHours > maxForecastHours {
		return domain.ForecastCollection{}, apperrors.Newf(apperrors.ValidationError, "forecast_hours %d out of range [1,%d]", forecastHours, maxForecastHours)
	}

	day := c.nowFn().In(domain.ReferenceTimeZone).Format("2006-01-02")
	key := cacheKey(lat, lon, forecastHours, day)
	if cached, ok := c.cache.Get(key); ok {
		metrics.RecordForecastFetch("cache_hit", 0)
		return cached.(domain.ForecastCollection), nil
	}

	start := time.Now()
	collection, err := c.fetchWithRetry(ctx, lat, lon, forecastHours)
	if err != nil {
		metrics.RecordForecastFetch("error", time.Since(start))
		return domain.ForecastCollection{}, err
	}
	metrics.RecordForecastFetch("ok", time.Since(start))

	c.cache.Set(key, collection, c.cacheTTL)
	return collection, nil
}

// GetForecastByLocation is a convenience wrapper requiring coordinates.
func (c *Client) GetForecastByLocation(ctx context.Context, loc domain.Location) (domain.ForecastCollection, error) {
	if !loc.HasCoordinates {
		return domain.ForecastCollection{}, apperrors.Newf(apperrors.LocationNotFound, "location %q has no coordinates", loc.Name)
	}
	collection, err := c.GetForecastForNextDayHours(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return domain.ForecastCollection{}, err
	}
	collection.LocationName = loc.Name
	return collection, nil
}

// GetForecastForNextDayHours is the hour-window minimization algorithm:
// rather than pulling a full 72h forecast, it requests only enough hours
// to cover tomorrow's domain.TargetHours (09/12/15/18 JST), then filters
// the result down to an 8am-7pm window. Grounded on
// original_source/src/apis/wxtech/client.py's get_forecast_for_next_day_hours.
func (c *Client) GetForecastForNextDayHours(ctx context.Context, lat, lon float64) (domain.ForecastCollection, error) {
	now := c.nowFn().In(domain.ReferenceTimeZone)
	targetDate := now.AddDate(0, 0, 1)

	var targetTimes []time.Time
	for _, hour := range domain.TargetHours {
		targetTimes = append(targetTimes, time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), hour, 0, 0, 0, domain.ReferenceTimeZone))
	}

	maxHoursAhead := 0.0
	for _, tt := range targetTimes {
		hoursAhead := tt.Sub(now).Hours()
		if hoursAhead > maxHoursAhead {
			maxHoursAhead = hoursAhead
		}
	}
	forecastHours := int(math.Ceil(maxHoursAhead)) + 1
	if forecastHours < 1 {
		forecastHours = 1
	}
	if forecastHours > maxForecastHours {
		forecastHours = maxForecastHours
	}

	logger.Info("minimized forecast hour window", "requested_hours", forecastHours, "full_window_hours", maxForecastHours)

	collection, err := c.GetForecast(ctx, lat, lon, forecastHours)
	if err != nil {
		return domain.ForecastCollection{}, err
	}

	windowStart := targetTimes[0].Add(-time.Hour)
	windowEnd := targetTimes[len(targetTimes)-1].Add(time.Hour)

	var filtered []domain.Forecast
	for _, f := range collection.Forecasts {
		if !f.Datetime.Before(windowStart) && !f.Datetime.After(windowEnd) {
			filtered = append(filtered, f)
		}
	}

	logger.Info("filtered forecast to next-day window", "before", len(collection.Forecasts), "after", len(filtered))

	return domain.ForecastCollection{LocationName: collection.LocationName, Forecasts: filtered}, nil
}

// fetchWithRetry performs the HTTP round trip with exponential backoff,
// grounded on the teacher's retry idiom (internal/pipeline.go's
// fetchWithRetry) and classifying non-retriable faults immediately.
func (c *Client) fetchWithRetry(ctx context.Context, lat, lon float64, hours int) (domain.ForecastCollection, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.ForecastCollection{}, ctx.Err()
			}
		}

		collection, err := c.doFetch(ctx, lat, lon, hours)
		if err == nil {
			return collection, nil
		}
		lastErr = err

		if !isRetriable(err) {
			return domain.ForecastCollection{}, err
		}
		metrics.RecordForecastRetry(fmt.Sprintf("%f,%f", lat, lon))
		logger.Warn("forecast fetch attempt failed, retrying", "attempt", attempt+1, "error", err)
	}
	return domain.ForecastCollection{}, lastErr
}

func isRetriable(err error) bool {
	switch apperrors.ClassifyOf(err) {
	case apperrors.TimeoutError, apperrors.NetworkError, apperrors.APIError:
		return true
	}
	return false
}

func (c *Client) doFetch(ctx context.Context, lat, lon float64, hours int) (domain.ForecastCollection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ForecastCollection{}, err
	}

	url := fmt.Sprintf("%s/ss1wx?lat=%f&lon=%f&hours=%d", baseURL, lat, lon, hours)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ForecastCollection{}, apperrors.New(apperrors.SystemError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "weathercommentd/1.0")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ForecastCollection{}, apperrors.New(apperrors.TimeoutError, err)
		}
		return domain.ForecastCollection{}, apperrors.New(apperrors.NetworkError, err)
	}
	defer resp.Body.Close()

	if err := httpStatusError(resp.StatusCode); err != nil {
		return domain.ForecastCollection{}, err
	}

	var raw rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.ForecastCollection{}, apperrors.New(apperrors.ParsingError, err)
	}
	if len(raw.WXData) == 0 {
		return domain.ForecastCollection{}, apperrors.Newf(apperrors.APIResponseError, "wxtech response contained no weather data")
	}

	return parseForecastResponse(raw, fmt.Sprintf("lat:%f,lon:%f", lat, lon))
}

// httpStatusError maps an HTTP status to a classified AppError, grounded
// on original_source/src/apis/wxtech/errors.py's handle_http_error table.
func httpStatusError(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized:
		return apperrors.Newf(apperrors.MissingCredential, "wxtech API key is invalid (401)")
	case status == http.StatusForbidden || status == http.StatusNotFound:
		return apperrors.Newf(apperrors.APIResponseError, "wxtech request rejected (%d)", status)
	case status == http.StatusTooManyRequests:
		return apperrors.Newf(apperrors.RateLimitError, "wxtech rate limit reached (429)")
	case status >= 500:
		return apperrors.Newf(apperrors.APIError, "wxtech server error (%d)", status)
	default:
		return apperrors.Newf(apperrors.APIResponseError, "wxtech returned unexpected status %d", status)
	}
}
