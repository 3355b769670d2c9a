// Package media resolves stored product image references into URLs the
// storefront can render. Resolution is best-effort everywhere: a product
// without a resolvable image simply renders without one.
package media

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// ImageResolver turns a stored image reference into a fetchable URL.
// An empty result means no image could be resolved; it is never an error.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}

// passthroughResolver serves absolute URLs as stored and drops everything else.
type passthroughResolver struct {
	logger zerolog.Logger
}

// NewPassthroughResolver creates a resolver for catalogs that store full
// image URLs directly.
func NewPassthroughResolver(logger zerolog.Logger) ImageResolver {
	return &passthroughResolver{
		logger: logger.With().Str("component", "image-resolver").Logger(),
	}
}

// Resolve returns ref when it already is an absolute URL.
func (r *passthroughResolver) Resolve(_ context.Context, ref string) string {
	if isAbsoluteURL(ref) {
		return ref
	}

	if ref != "" {
		r.logger.Debug().Str("ref", ref).Msg("image ref is not an absolute URL, dropping")
	}

	return ""
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
