package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/cache"
	"github.com/registra/registra/internal/metrics"
)

// SignupLimiter consumes a registration token for a client.
// *cache.Cache satisfies it.
type SignupLimiter interface {
	CheckSignupRateLimit(ctx context.Context, ip string, perMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for the registration rate limiter.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter SignupLimiter
	Metrics metrics.Recorder

	Enabled   bool
	PerMinute int
	Burst     int
}

// RateLimitSignup limits registrations per client IP. It is a pass-through
// when disabled or when no limiter is configured.
func RateLimitSignup(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || cfg.Limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			result, err := cfg.Limiter.CheckSignupRateLimit(r.Context(), ip, cfg.PerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.ErrorContext(r.Context(), "signup rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}
			if result.Degraded {
				cfg.Logger.WarnContext(r.Context(), "signup rate limiter unavailable, allowing request",
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.PerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

			if !result.Allowed {
				cfg.Metrics.IncSignupRateLimited()
				retry := int(result.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				cfg.Logger.WarnContext(r.Context(), "signup_rate_limited",
					slog.Int("retry_after_seconds", retry),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				apperr.Write(w, apperr.TooManyRequests())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
