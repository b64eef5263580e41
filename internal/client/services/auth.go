package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
)

// AuthAPI is the part of the server API used for accounts.
type AuthAPI interface {
	Register(ctx context.Context, email, password, fullName string) (string, error)
	Login(ctx context.Context, email, password string) (api.Tokens, error)
	Logout(ctx context.Context) error
}

type AuthService struct {
	api     AuthAPI
	session *Session
	logger  logging.Logger
}

func NewAuthService(a AuthAPI, s *Session, l logging.Logger) *AuthService {
	return &AuthService{api: a, session: s, logger: l.With("module", "auth_service")}
}

// Register creates an account. The password slice is wiped before returning.
func (s *AuthService) Register(ctx context.Context, email string, password []byte, fullName string) (string, error) {
	defer common.WipeByteArray(password)
	return s.api.Register(ctx, email, string(password), fullName)
}

// Login signs in and remembers who is signed in. The API client has already
// stored the tokens by the time it returns.
func (s *AuthService) Login(ctx context.Context, email string, password []byte) error {
	defer common.WipeByteArray(password)

	if _, err := s.api.Login(ctx, email, string(password)); err != nil {
		return err
	}
	if err := s.session.SetEmail(ctx, email); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout revokes the session on the server and forgets it locally. The local
// session is cleared even when the server is unreachable, and a session the
// server already rejects counts as signed out.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		err = nil
	}
	if err != nil {
		s.logger.Warn(ctx, "server logout failed", "error", err)
	}
	return errors.Join(err, s.session.Clear(ctx))
}

// CurrentUser returns the signed-in email, or "" when signed out.
func (s *AuthService) CurrentUser(ctx context.Context) (string, error) {
	t, err := s.session.Load(ctx)
	if err != nil || t.AccessToken == "" {
		return "", err
	}
	return s.session.Email(ctx)
}
