package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/catalog-service/internal/ratelimit"
	"github.com/maxviazov/catalog-service/pkg/response"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitConfig binds a limiter to one named policy.
type RateLimitConfig struct {
	Policy string
	// KeyFunc partitions callers; PartitionKey when nil.
	KeyFunc func(*gin.Context) string
	// SkipFunc exempts requests from the policy.
	SkipFunc func(*gin.Context) bool
	// OnReject is called with Policy for every 429.
	OnReject func(policy string)
	Logger   zerolog.Logger
	now      func() time.Time
}

// PartitionKey is the authenticated user name, else the Host header.
func PartitionKey(c *gin.Context) string {
	if claims, ok := ClaimsFrom(c); ok && claims.Name != "" {
		return "user:" + claims.Name
	}
	return "host:" + c.Request.Host
}

// RateLimit rejects requests over the limiter's window with 429 and Retry-After.
// A limiter failure lets the request through; I only log it at warn.
func RateLimit(limiter ratelimit.Limiter, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = PartitionKey
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	log := cfg.Logger.With().Str("module", "http").Str("component", "ratelimit").Str("policy", cfg.Policy).Logger()

	return func(c *gin.Context) {
		if limiter == nil || (cfg.SkipFunc != nil && cfg.SkipFunc(c)) {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retry := d.RetryAfter(cfg.now())
			c.Header(HeaderRetryAfter, strconv.Itoa(int(retry/time.Second)))
			if cfg.OnReject != nil {
				cfg.OnReject(cfg.Policy)
			}
			log.Debug().Str("key", key).Dur("retry_after", retry).Msg("request rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorPayload{
				Error:   "rate_limited",
				Message: "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
