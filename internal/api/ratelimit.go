package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimited is a huma operation middleware that limits requests per client IP.
// Returns 429 Too Many Requests when limit is exceeded.
func (s *Server) rateLimited(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())
	if !s.authRateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	next(huma.WithValue(ctx, clientIPKey, key))
}
