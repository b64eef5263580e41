// Package services holds the CLI's application services: the local
// session, sign-in and sign-out, and reading vaults back from the server.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/dbx"
)

// Metadata keys.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyEmail        = "email"
)

// Session keeps the signed-in user's tokens in the local database and
// serves them to the API client.
type Session struct {
	db *sql.DB
}

func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

func (s *Session) repo(tx dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, err := s.repo(s.db).Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return "", nil
	}
	return string(v), err
}

// Load returns the stored pair, zero when nobody is signed in.
func (s *Session) Load(ctx context.Context) (api.Tokens, error) {
	access, err := s.get(ctx, keyAccessToken)
	if err != nil {
		return api.Tokens{}, err
	}
	refresh, err := s.get(ctx, keyRefreshToken)
	if err != nil {
		return api.Tokens{}, err
	}
	return api.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Save stores both tokens in one transaction. A zero pair signs out.
func (s *Session) Save(ctx context.Context, t api.Tokens) error {
	if t == (api.Tokens{}) {
		return s.Clear(ctx)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Set(ctx, keyAccessToken, []byte(t.AccessToken)); err != nil {
			return err
		}
		return r.Set(ctx, keyRefreshToken, []byte(t.RefreshToken))
	})
}

func (s *Session) Email(ctx context.Context) (string, error) {
	return s.get(ctx, keyEmail)
}

func (s *Session) SetEmail(ctx context.Context, email string) error {
	return s.repo(s.db).Set(ctx, keyEmail, []byte(email))
}

// Clear forgets the session.
func (s *Session) Clear(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, keyAccessToken, keyRefreshToken, keyEmail)
}
