package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// MaxBodySize is maximum number of response body bytes read by Fetcher.
const MaxBodySize = 32 << 20

// Option is custom configuration of Fetcher.
type Option func(f *Fetcher)

// Fetcher builds http requests and fetches pages and images via http.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewFetcher returns new Fetcher.
func NewFetcher(client *http.Client, userAgent string, ops ...Option) *Fetcher {
	fet := &Fetcher{
		client:    client,
		userAgent: userAgent,
	}

	for _, op := range ops {
		op(fet)
	}

	return fet
}

// Fetch sends request with provided method to url and returns response status code and body.
// Status code is not interpreted, non-200 responses are returned without error.
// Any error is wrapped with ErrTransport except for unsupported method.
func (f *Fetcher) Fetch(ctx context.Context, method, url string) (int, []byte, error) {
	if method != http.MethodGet && method != http.MethodHead {
		return 0, nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("%w: can't wait for rate limiter: %w", ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: can't build http request: %w", ErrTransport, err)
	}

	req.Header.Add("Accept", "text/html,application/xhtml+xml,image/*;q=0.9,*/*;q=0.8")
	req.Header.Add("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: can't get http response: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if method == http.MethodHead {
		return resp.StatusCode, nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: can't read response body: %w", ErrTransport, err)
	}

	return resp.StatusCode, body, nil
}

// WithRateLimit makes Fetcher wait for limiter before every request.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(f *Fetcher) {
		f.limiter = limiter
	}
}
