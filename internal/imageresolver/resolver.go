package imageresolver

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Resolution bucket path segments of the retailer CDN.
const (
	SmallBucket = "/f1/"
	LargeBucket = "/f16/"
)

//go:generate mockery --name Prober --filename prober.go

// Prober sends http requests and reports response status.
type Prober interface {
	Fetch(ctx context.Context, method, url string) (int, []byte, error)
}

// Resolver picks the best available image variant.
type Resolver struct {
	prober Prober
	logger *zerolog.Logger
}

// NewResolver returns new Resolver.
func NewResolver(prober Prober, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		prober: prober,
		logger: logger,
	}
}

// LargeCandidate returns raw image url with small resolution bucket replaced by large one.
func LargeCandidate(raw string) string {
	return strings.ReplaceAll(raw, SmallBucket, LargeBucket)
}

// Resolve probes large variant of raw image url with HEAD request.
// It returns the large variant when probe answers 200 OK and raw url otherwise.
// Probe errors never fail resolution.
func (r *Resolver) Resolve(ctx context.Context, raw string) string {
	candidate := LargeCandidate(raw)

	status, _, err := r.prober.Fetch(ctx, http.MethodHead, candidate)
	if err != nil {
		r.logger.Debug().
			Err(err).
			Str("imageUrl", candidate).
			Msg("image probe failed")
		return raw
	}

	if status != http.StatusOK {
		r.logger.Debug().
			Int("status", status).
			Str("imageUrl", candidate).
			Msg("large image not available")
		return raw
	}

	return candidate
}
