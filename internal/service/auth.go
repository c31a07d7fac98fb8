package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maxviazov/catalog-service/internal/auth"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/repository"
	"github.com/rs/zerolog"
)

// TokenIssuer signs access tokens and reads back expired ones; *auth.TokenManager implements it.
type TokenIssuer interface {
	Generate(c auth.Claims) (string, time.Time, error)
	ParseExpired(token string) (*auth.Claims, error)
}

// AuthEvents counts auth outcomes; *metrics.Metrics implements it.
type AuthEvents interface {
	RecordAuthEvent(event string)
}

const (
	eventRegister     = "register"
	eventLoginSuccess = "login_success"
	eventLoginFailed  = "login_failed"
	eventRefresh      = "token_refresh"
	eventRefreshFail  = "token_refresh_failed"
	eventRevoke       = "revoke"
)

type authService struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	refreshTTL time.Duration
	events     AuthEvents
	log        zerolog.Logger
	now        func() time.Time
}

// NewAuthService wires account use cases. events may be nil.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, refreshTTL time.Duration, events AuthEvents, logger zerolog.Logger) AuthService {
	l := logger.With().Str("module", "service").Str("component", "auth").Logger()
	return &authService{users: users, tokens: tokens, refreshTTL: refreshTTL, events: events, log: l, now: time.Now}
}

func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	start := time.Now()
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	ferrs := validateStruct(registerInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Str("username", req.Username).Interface("field_errors", ferrs).Msg("register validation failed")
		return model.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return model.User{}, err
	}
	out, err := s.users.Create(ctx, model.User{Username: req.Username, Email: req.Email, PasswordHash: hash})
	if err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			s.log.Error().Err(err).Str("username", req.Username).Msg("create user failed")
		}
		return model.User{}, err
	}
	s.record(eventRegister)
	s.log.Info().Dur("took", time.Since(start)).Str("username", out.Username).Msg("user registered")
	return out, nil
}

func (s *authService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := newInvalidInput(validateStruct(loginInput{Username: req.Username, Password: req.Password})); err != nil {
		return model.TokenPair{}, err
	}

	u, err := s.users.GetByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.record(eventLoginFailed)
		return model.TokenPair{}, ErrInvalidCredentials
	case err != nil:
		s.log.Error().Err(err).Str("username", req.Username).Msg("user lookup failed")
		return model.TokenPair{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.record(eventLoginFailed)
		s.log.Debug().Str("username", u.Username).Msg("password mismatch")
		return model.TokenPair{}, ErrInvalidCredentials
	}

	u.RefreshTokenExpiresAt = s.now().Add(s.refreshTTL)
	pair, err := s.issue(ctx, u)
	if err != nil {
		return model.TokenPair{}, err
	}
	s.record(eventLoginSuccess)
	s.log.Info().Str("username", u.Username).Strs("roles", u.Roles).Msg("user logged in")
	return pair, nil
}

// Refresh exchanges an authentic (possibly expired) access token and the stored refresh
// token for a new pair. The refresh token expiry set at login is kept.
func (s *authService) Refresh(ctx context.Context, req model.RefreshRequest) (model.TokenPair, error) {
	var ferrs []FieldError
	if strings.TrimSpace(req.AccessToken) == "" {
		ferrs = append(ferrs, FieldError{Field: "access_token", Message: "must not be empty"})
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		ferrs = append(ferrs, FieldError{Field: "refresh_token", Message: "must not be empty"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.TokenPair{}, err
	}

	claims, err := s.tokens.ParseExpired(req.AccessToken)
	if err != nil {
		s.record(eventRefreshFail)
		s.log.Debug().Err(err).Msg("refresh with invalid access token")
		return model.TokenPair{}, ErrInvalidToken
	}
	u, err := s.users.GetByUsername(ctx, claims.Name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.record(eventRefreshFail)
		return model.TokenPair{}, ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, err
	}
	presented := auth.HashRefreshToken(req.RefreshToken)
	if u.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(presented)) != 1 ||
		!u.RefreshTokenExpiresAt.After(s.now()) {
		s.record(eventRefreshFail)
		s.log.Debug().Str("username", u.Username).Msg("refresh token rejected")
		return model.TokenPair{}, ErrInvalidToken
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return model.TokenPair{}, err
	}
	s.record(eventRefresh)
	return pair, nil
}

// issue signs an access token for u, rotates its refresh token and stores the hash.
func (s *authService) issue(ctx context.Context, u model.User) (model.TokenPair, error) {
	access, exp, err := s.tokens.Generate(auth.Claims{Name: u.Username, Email: u.Email, ID: u.Username, Roles: u.Roles})
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := auth.GenerateRefreshToken()
	if err != nil {
		return model.TokenPair{}, err
	}
	u.RefreshToken = auth.HashRefreshToken(refresh)
	if _, err := s.users.Update(ctx, u); err != nil {
		s.log.Error().Err(err).Str("username", u.Username).Msg("store refresh token failed")
		return model.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh, Expiration: exp}, nil
}

func (s *authService) Revoke(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return InvalidField("username", "unknown user")
	}
	if err != nil {
		return err
	}
	u.RefreshToken = ""
	u.RefreshTokenExpiresAt = time.Time{}
	if _, err := s.users.Update(ctx, u); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("revoke failed")
		return err
	}
	s.record(eventRevoke)
	s.log.Info().Str("username", u.Username).Msg("refresh token revoked")
	return nil
}

func (s *authService) CreateRole(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return InvalidField("name", "must not be empty")
	}
	exists, err := s.users.RoleExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrAlreadyExists
	}
	if err := s.users.CreateRole(ctx, name); err != nil {
		s.log.Error().Err(err).Str("role", name).Msg("create role failed")
		return err
	}
	s.log.Info().Str("role", name).Msg("role added")
	return nil
}

func (s *authService) AddUserToRole(ctx context.Context, email, role string) error {
	email = strings.TrimSpace(email)
	role = strings.TrimSpace(role)
	var ferrs []FieldError
	if email == "" {
		ferrs = append(ferrs, FieldError{Field: "email", Message: "must not be empty"})
	}
	if role == "" {
		ferrs = append(ferrs, FieldError{Field: "role", Message: "must not be empty"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return err
	}

	exists, err := s.users.RoleExists(ctx, role)
	if err != nil {
		return err
	}
	if !exists {
		return InvalidField("role", "unknown role")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.HasRole(role) {
		return nil
	}
	u.Roles = append(u.Roles, role)
	if _, err := s.users.Update(ctx, u); err != nil {
		s.log.Error().Err(err).Str("email", email).Str("role", role).Msg("add user to role failed")
		return err
	}
	s.log.Info().Str("email", u.Email).Str("role", role).Msg("user added to role")
	return nil
}

func (s *authService) record(event string) {
	if s.events != nil {
		s.events.RecordAuthEvent(event)
	}
}
