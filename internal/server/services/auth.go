// Package services contains server-side business logic. This file implements
// AuthService: registration, login, refresh token rotation and logout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/cryptox"
	"github.com/dmitrijs2005/eternalvault/internal/dbx"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/server/auth"
	"github.com/dmitrijs2005/eternalvault/internal/server/config"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// seams for tests
var (
	newSessionID    = uuid.NewString
	newRefreshToken = func() (string, error) { return common.MakeRandHexString(32) }
	hashPassword    = cryptox.HashPassword
	timeNow         = time.Now
)

type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	revocations                  sessions.Revocations
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, r sessions.Revocations, cfg *config.Config, l logging.Logger) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		revocations:                  r,
		logger:                       l.With("module", "auth"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// SignUp creates the account and its profile in one transaction and returns
// the new account id.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", common.ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return "", common.ErrWeakPassword
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	var id string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		acc, err := s.repomanager.Accounts(tx).Create(ctx, &models.Account{Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		if err := s.repomanager.Profiles(tx).Create(ctx, &models.Profile{
			ID:       acc.ID,
			Email:    email,
			FullName: strings.TrimSpace(fullName),
		}); err != nil {
			return err
		}
		id = acc.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return "", err
		}
		s.logger.Error(ctx, "sign up failed", "op", "SignUp", "error", err)
		return "", common.ErrorInternal
	}

	s.logger.Info(ctx, "account created", "user_id", id)
	return id, nil
}

// SignIn verifies credentials and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.ErrEmptyCredential
	}

	acc, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrBadCredentials
		}
		s.logger.Error(ctx, "account lookup failed", "op", "SignIn", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, acc.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored hash unreadable", "op", "SignIn", "user_id", acc.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrBadCredentials
	}

	return s.generateTokenPair(ctx, acc.ID, newSessionID(), s.db)
}

// Authenticate resolves an access token to the identity it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (wizard.Identity, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return wizard.Identity{}, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.SessionID)
	if err != nil {
		s.logger.Error(ctx, "revocation lookup failed", "op", "Authenticate", "error", err)
		return wizard.Identity{}, common.ErrorInternal
	}
	if revoked {
		return wizard.Identity{}, common.ErrSessionRevoked
	}

	return wizard.Identity{UserID: claims.UserID, SessionID: claims.SessionID}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair for the same session. Expired tokens yield
// ErrRefreshTokenExpired.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(timeNow()) {
		return nil, common.ErrRefreshTokenExpired
	}

	revoked, err := s.revocations.IsRevoked(ctx, token.SessionID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrSessionRevoked
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, token.SessionID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// SignOut revokes the session for the rest of its access token lifetime and
// drops its refresh tokens.
func (s *AuthService) SignOut(ctx context.Context, id wizard.Identity) error {
	if err := s.revocations.Revoke(ctx, id.SessionID, s.accessTokenValidityDuration); err != nil {
		s.logger.Error(ctx, "revoke failed", "op", "SignOut", "session_id", id.SessionID, "error", err)
		return common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(s.db).DeleteBySession(ctx, id.SessionID); err != nil {
		s.logger.Error(ctx, "refresh token cleanup failed", "op", "SignOut", "session_id", id.SessionID, "error", err)
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "signed out", "user_id", id.UserID, "session_id", id.SessionID)
	return nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, userID, sessionID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, sessionID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, sessionID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
