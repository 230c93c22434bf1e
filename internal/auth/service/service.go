package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/realnickp/BackyardBobbys-sub000/internal/auth/repository"
	"github.com/realnickp/BackyardBobbys-sub000/platform/apperr"
	"github.com/realnickp/BackyardBobbys-sub000/platform/config"
)

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
}

func NewService(repo *repository.Repository, cfg config.AuthServiceConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Name        string
}

// Login verifies credentials and issues an access token. Wrong email and
// wrong password produce the same error so the endpoint cannot be used to
// enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, apperr.Unauthorized("invalid credentials").WithOp("auth.Login")
	}
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "internal error", err).WithOp("auth.Login")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, apperr.Unauthorized("invalid credentials").WithOp("auth.Login")
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.GetAccessTokenTTL())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "could not issue token", err).WithOp("auth.Login")
	}

	return LoginResult{AccessToken: signed, ExpiresAt: expiresAt, Name: user.Name}, nil
}
