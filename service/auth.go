package service

import (
	"context"
	"errors"

	"bar-order-api/auth"
	"bar-order-api/models"
	"bar-order-api/store"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the unknown-user path as slow as a wrong password
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bar-order-api"), bcrypt.DefaultCost)

type LoginResult struct {
	Token    string          `json:"token"`
	Refresh  string          `json:"refresh"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

type AuthService struct {
	users  *store.UserRepo
	tokens *auth.TokenMaker
	log    zerolog.Logger
}

func NewAuthService(users *store.UserRepo, tokens *auth.TokenMaker, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Login verifies the credentials and issues an access/refresh pair. An
// unknown username and a wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, translate("login", "user", 0, err)
		}
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.log.Info().Str("username", username).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info().Str("username", username).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return nil, &PersistenceError{Op: "sign access token", Err: err}
	}
	refresh, err := s.tokens.GenerateRefresh(user)
	if err != nil {
		return nil, &PersistenceError{Op: "sign refresh token", Err: err}
	}
	s.log.Info().Str("username", user.Username).Msg("login succeeded")
	return &LoginResult{Token: access, Refresh: refresh, Username: user.Username, Role: user.Role}, nil
}

// Refresh exchanges a valid refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.RefreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", translate("refresh token", "user", claims.UserID, err)
	}
	access, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return "", &PersistenceError{Op: "sign access token", Err: err}
	}
	return access, nil
}

// EnsureAdmin creates the admin account if it does not exist yet
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, translate("seed admin", "user", 0, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, &PersistenceError{Op: "hash password", Err: err}
	}
	user := &models.User{Username: username, PasswordHash: string(hash), Role: models.RoleAdmin}
	if err := s.users.Create(ctx, user); err != nil {
		return false, translate("seed admin", "user", 0, err)
	}
	s.log.Info().Str("username", username).Msg("admin account created")
	return true, nil
}
