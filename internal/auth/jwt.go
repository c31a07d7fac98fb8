// Package auth issues and verifies access tokens and evaluates authorization policies.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are carried by every access token. ID is the account's public identifier
// (its username); policies compare it against the configured super-admin id.
type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name"`
	Email string   `json:"email"`
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the token carries role.
func (c *Claims) HasRole(role string) bool { return slices.Contains(c.Roles, role) }

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret        string
	Issuer        string
	Audience      string
	TokenValidity time.Duration
}

// TokenManager signs HS256 access tokens and validates them with zero clock skew.
type TokenManager struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenManager(cfg TokenConfig) *TokenManager {
	return &TokenManager{cfg: cfg, now: time.Now}
}

// Generate signs a token for the identity described by c; registered claims are filled in here.
func (m *TokenManager) Generate(c Claims) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.TokenValidity)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.cfg.Issuer,
		Subject:   c.Name,
		Audience:  jwt.ClaimStrings{m.cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, issuer, audience and lifetime.
func (m *TokenManager) Validate(token string) (*Claims, error) {
	return m.parse(token,
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(m.now),
	)
}

// ParseExpired checks signature, issuer and audience but ignores the lifetime,
// so an expired access token can be exchanged during refresh.
func (m *TokenManager) ParseExpired(token string) (*Claims, error) {
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.Issuer != m.cfg.Issuer || !slices.Contains(claims.Audience, m.cfg.Audience) {
		return nil, fmt.Errorf("%w: issuer or audience mismatch", ErrInvalidToken)
	}
	return claims, nil
}

func (m *TokenManager) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(m.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateRefreshToken returns 64 random bytes, base64 encoded.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashRefreshToken is the form of a refresh token kept in storage.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
