package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/catalog-service/internal/auth"
	"github.com/maxviazov/catalog-service/internal/service"
	"github.com/maxviazov/catalog-service/pkg/response"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	ClaimsKey           = "auth_claims"
)

// TokenValidator checks an access token; *auth.TokenManager implements it.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate stores the claims of a valid bearer token on the context.
// Requests without a valid token continue anonymously; RequirePolicy rejects them where needed.
func Authenticate(v TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("module", "http").Str("component", "auth").Logger()
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := v.Validate(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("bearer token rejected")
			c.Next()
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequirePolicy answers 401 without claims and 403 when p denies them.
func RequirePolicy(p auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.WriteError(c, service.ErrUnauthorized)
			return
		}
		if !p.Allow(claims) {
			response.WriteError(c, service.ErrForbidden)
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Authenticate.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(h, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, BearerPrefix))
}
