package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/docextract/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retry             resilience.Policy
}

// HTTPFetcher downloads documents over http(s) with pacing and retry.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "docextract/1.0"
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch downloads rawURL into dir.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: parse url")
	}
	dest := localName(dir, u.Path)

	p := f.opts.Retry
	p.OnRetry = resilience.LogRetries("http", rawURL)
	err = resilience.Do(ctx, p, func(ctx context.Context) error {
		return f.download(ctx, rawURL, dest)
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

func (f *HTTPFetcher) download(ctx context.Context, rawURL, dest string) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "fetcher: get %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("fetcher: get %s: status %d", rawURL, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "fetcher: create file")
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return eris.Wrap(err, "fetcher: write file")
	}
	zap.L().Debug("fetcher: downloaded", zap.String("url", rawURL), zap.Int64("bytes", n))
	return nil
}
