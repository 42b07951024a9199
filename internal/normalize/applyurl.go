package normalize

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmate/listings-service/internal/cache"
	"jobmate/listings-service/internal/logging"
)

const (
	defaultResolveTimeout = 5 * time.Second
	defaultMaxRedirects   = 5
	resolveCachePrefix    = "applyurl:"
)

// URLResolver maps a raw apply URL to its final, normalized form.
type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) string
}

// ResolverOptions configures an ApplyURLResolver. Zero values get defaults.
type ResolverOptions struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	Cache        cache.Cache
	CacheTTL     time.Duration
	Transport    http.RoundTripper
	Logger       *zap.Logger
}

// ApplyURLResolver follows an apply URL's redirect chain with HEAD requests
// and strips tracking parameters from the destination. Resolution failures
// fall back to the original URL; they never fail ingestion.
type ApplyURLResolver struct {
	client    *http.Client
	userAgent string
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewApplyURLResolver(opts ResolverOptions) *ApplyURLResolver {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultResolveTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	maxRedirects := opts.MaxRedirects
	return &ApplyURLResolver{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		logger:    logging.OrNop(opts.Logger).Named("applyurl"),
	}
}

// Resolve returns the normalized final destination of rawURL, or the
// normalized rawURL itself when the redirect chain cannot be followed.
func (r *ApplyURLResolver) Resolve(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if r.cache != nil {
		if hit, err := r.cache.Get(ctx, resolveCachePrefix+rawURL); err == nil {
			return hit
		}
	}

	final, err := r.follow(ctx, rawURL)
	if err != nil {
		r.logger.Debug("apply url resolution failed, keeping original",
			zap.String("url", rawURL), zap.Error(err))
		return normalizedOrRaw(rawURL)
	}

	resolved := normalizedOrRaw(final)
	if r.cache != nil {
		if err := r.cache.Set(ctx, resolveCachePrefix+rawURL, resolved, r.cacheTTL); err != nil {
			r.logger.Warn("apply url cache write failed", zap.Error(err))
		}
	}
	return resolved
}

func (r *ApplyURLResolver) follow(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return resp.Request.URL.String(), nil
}

func normalizedOrRaw(rawURL string) string {
	if n, err := NormalizeURL(rawURL); err == nil {
		return n
	}
	return rawURL
}

// NormalizeURL lower-cases scheme and host and removes tracking query
// parameters (every utm_* key and gclid), preserving the order of the rest.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.RawQuery != "" {
		kept := make([]string, 0)
		for _, pair := range strings.Split(u.RawQuery, "&") {
			if pair == "" {
				continue
			}
			key, _, _ := strings.Cut(pair, "=")
			if k, err := url.QueryUnescape(key); err == nil {
				key = k
			}
			if isTrackingParam(key) {
				continue
			}
			kept = append(kept, pair)
		}
		u.RawQuery = strings.Join(kept, "&")
	}
	return u.String(), nil
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "utm_") || k == "gclid"
}
