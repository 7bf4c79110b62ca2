// Package fetcher reads enchantment pages from the external source and extracts the
// item they reference.
package fetcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"enchantment-resolver/internal/common/errors"
	commonhttp "enchantment-resolver/internal/common/http"
	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/cooldown"
	"enchantment-resolver/internal/enchantments"
	"enchantment-resolver/internal/metrics"
)

const (
	// KeyPlaceholder is replaced by the enchantment id in Config.URLTemplate
	KeyPlaceholder = "{key}"
	// DefaultMaxBodyBytes caps how much of a page is read
	DefaultMaxBodyBytes = 2 << 20
)

// throttleMarkers are phrases the source shows on its block pages
var throttleMarkers = []string{
	"too many requests",
	"rate limit",
	"you have been temporarily blocked",
}

// Config holds fetcher settings
type Config struct {
	URLTemplate  string
	UserAgents   []string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// DefaultConfig returns a config for urlTemplate with default limits
func DefaultConfig(urlTemplate string) Config {
	return Config{
		URLTemplate:  urlTemplate,
		UserAgents:   DefaultUserAgents,
		Timeout:      10 * time.Second,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Breaker runs a call under a circuit breaker
type Breaker interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// HTTPFetcher implements enchantments.Fetcher over HTTP
type HTTPFetcher struct {
	config     Config
	client     *http.Client
	identities *identityPool
	tracker    cooldown.Tracker
	breaker    Breaker
	logger     logging.Logger
}

// New creates a fetcher. breaker may be nil.
func New(config Config, tracker cooldown.Tracker, breaker Breaker, logger logging.Logger) (*HTTPFetcher, error) {
	if !strings.Contains(config.URLTemplate, KeyPlaceholder) {
		return nil, errors.ConfigError(fmt.Sprintf("URL template %q has no %s placeholder", config.URLTemplate, KeyPlaceholder))
	}
	if tracker == nil {
		return nil, errors.ConfigError("cooldown tracker is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = logging.Component("fetcher")
	}

	return &HTTPFetcher{
		config:     config,
		client:     commonhttp.NewHTTPClient(commonhttp.WithTimeout(config.Timeout)),
		identities: newIdentityPool(config.UserAgents),
		tracker:    tracker,
		breaker:    breaker,
		logger:     logger,
	}, nil
}

// Fetch reads the page for key. It fails fast with a rate limit error while the cooldown
// is active. A missing page or one without an item reference yields (nil, nil).
func (f *HTTPFetcher) Fetch(ctx context.Context, key int) (*enchantments.Extraction, error) {
	if until, active := f.tracker.ActiveUntil(ctx); active {
		return nil, errors.RateLimitError("enchantment source").WithContext("cooldown_until", until.Format(time.RFC3339))
	}

	var extraction *enchantments.Extraction
	call := func(ctx context.Context) error {
		var err error
		extraction, err = f.fetch(ctx, key)
		return err
	}

	var err error
	if f.breaker != nil {
		err = f.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return extraction, nil
}

// URL returns the page address for key
func (f *HTTPFetcher) URL(key int) string {
	return strings.ReplaceAll(f.config.URLTemplate, KeyPlaceholder, strconv.Itoa(key))
}

func (f *HTTPFetcher) fetch(ctx context.Context, key int) (*enchantments.Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(key), nil)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("User-Agent", f.identities.pick())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, f.throttled(ctx, key, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if hasThrottleMarker(body) {
			return nil, f.throttled(ctx, key, resp.StatusCode)
		}
		return nil, errors.ConnectionError(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	extraction := Extract(body)
	if extraction == nil && hasThrottleMarker(body) {
		return nil, f.throttled(ctx, key, resp.StatusCode)
	}
	return extraction, nil
}

func (f *HTTPFetcher) throttled(ctx context.Context, key, status int) error {
	until := f.tracker.Trip(ctx)
	metrics.CooldownTripsTotal.Inc()
	f.logger.Warn("enchantment source throttled requests, cooldown started",
		logging.Int("key", key),
		logging.Int("status", status),
		logging.Time("until", until))
	return errors.RateLimitError("enchantment source").WithContext("status", status)
}

func hasThrottleMarker(body []byte) bool {
	text := strings.ToLower(string(body))
	for _, marker := range throttleMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.TimeoutError("enchantment fetch", err)
	}
	return errors.ConnectionError("enchantment fetch failed", err)
}
