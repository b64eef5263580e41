package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/cryptox"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/server/auth"
	"github.com/dmitrijs2005/eternalvault/internal/server/config"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *fakeRepoManager, *sessions.MemoryRevocations, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rev := sessions.NewMemoryRevocations()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewAuthService(db, rm, rev, cfg, logging.Nop()), rm, rev, mock
}

func fastHash(t *testing.T) {
	t.Helper()
	orig := hashPassword
	hashPassword = func(pw string) (string, error) { return "hash:" + pw, nil }
	t.Cleanup(func() { hashPassword = orig })
}

func TestSignUp_CreatesAccountAndProfile(t *testing.T) {
	fastHash(t)
	s, rm, _, mock := newAuthService(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := s.SignUp(context.Background(), " ann@x.com ", "secret1", "Ann Lee")
	require.NoError(t, err)
	assert.Equal(t, "acc-ann@x.com", id)
	assert.Equal(t, "hash:secret1", rm.accounts.byEmail["ann@x.com"].PasswordHash)

	p := rm.profiles.byID[id]
	require.NotNil(t, p)
	assert.Equal(t, "ann@x.com", p.Email)
	assert.Equal(t, "Ann Lee", p.FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_Validation(t *testing.T) {
	s, _, _, _ := newAuthService(t)

	_, err := s.SignUp(context.Background(), "", "secret1", "")
	require.ErrorIs(t, err, common.ErrInvalidEmail)

	_, err = s.SignUp(context.Background(), "a@x.com", "12345", "")
	require.ErrorIs(t, err, common.ErrWeakPassword)
}

func TestSignUp_EmailTakenRollsBack(t *testing.T) {
	fastHash(t)
	s, rm, _, mock := newAuthService(t)
	rm.accounts.byEmail["a@x.com"] = &models.Account{ID: "x", Email: "a@x.com"}
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.SignUp(context.Background(), "a@x.com", "secret1", "")
	require.ErrorIs(t, err, common.ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_ProfileFailureIsInternal(t *testing.T) {
	fastHash(t)
	s, rm, _, mock := newAuthService(t)
	rm.profiles.createErr = errors.New("db error: boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.SignUp(context.Background(), "a@x.com", "secret1", "")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestSignIn(t *testing.T) {
	s, rm, _, _ := newAuthService(t)
	hash, err := cryptox.HashPassword("secret1")
	require.NoError(t, err)
	rm.accounts.byEmail["a@x.com"] = &models.Account{ID: "u1", Email: "a@x.com", PasswordHash: hash}

	origSID := newSessionID
	newSessionID = func() string { return "sid-1" }
	defer func() { newSessionID = origSID }()

	pair, err := s.SignIn(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	claims, err := auth.ParseToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "sid-1", claims.SessionID)

	rt := rm.refresh.tokens[pair.RefreshToken]
	require.NotNil(t, rt)
	assert.Equal(t, "sid-1", rt.SessionID)

	_, err = s.SignIn(context.Background(), "a@x.com", "wrong")
	require.ErrorIs(t, err, common.ErrBadCredentials)

	_, err = s.SignIn(context.Background(), "nobody@x.com", "secret1")
	require.ErrorIs(t, err, common.ErrBadCredentials)

	_, err = s.SignIn(context.Background(), "", "")
	require.ErrorIs(t, err, common.ErrEmptyCredential)
}

func TestSignIn_RepoError(t *testing.T) {
	s, rm, _, _ := newAuthService(t)
	rm.accounts.getErr = errors.New("db error: down")

	_, err := s.SignIn(context.Background(), "a@x.com", "secret1")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestAuthenticate(t *testing.T) {
	s, _, rev, _ := newAuthService(t)
	tok, err := auth.GenerateToken("u1", "sid-1", []byte("k"), time.Hour)
	require.NoError(t, err)

	id, err := s.Authenticate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, wizard.Identity{UserID: "u1", SessionID: "sid-1"}, id)

	require.NoError(t, rev.Revoke(context.Background(), "sid-1", time.Hour))
	_, err = s.Authenticate(context.Background(), tok)
	require.ErrorIs(t, err, common.ErrSessionRevoked)

	_, err = s.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshToken_RotatesWithinSession(t *testing.T) {
	s, rm, _, mock := newAuthService(t)
	rm.refresh.tokens["old"] = &models.RefreshToken{UserID: "u1", SessionID: "sid-1", Token: "old", Expires: time.Now().Add(time.Hour)}
	mock.ExpectBegin()
	mock.ExpectCommit()

	pair, err := s.RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.NotContains(t, rm.refresh.tokens, "old")
	assert.Equal(t, "sid-1", rm.refresh.tokens[pair.RefreshToken].SessionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_Errors(t *testing.T) {
	s, rm, rev, _ := newAuthService(t)

	_, err := s.RefreshToken(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	rm.refresh.tokens["expired"] = &models.RefreshToken{UserID: "u1", SessionID: "s", Expires: time.Now().Add(-time.Minute)}
	_, err = s.RefreshToken(context.Background(), "expired")
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	rm.refresh.tokens["revoked"] = &models.RefreshToken{UserID: "u1", SessionID: "gone", Expires: time.Now().Add(time.Hour)}
	require.NoError(t, rev.Revoke(context.Background(), "gone", time.Hour))
	_, err = s.RefreshToken(context.Background(), "revoked")
	require.ErrorIs(t, err, common.ErrSessionRevoked)
}

func TestSignOut(t *testing.T) {
	s, rm, rev, _ := newAuthService(t)
	rm.refresh.tokens["r"] = &models.RefreshToken{UserID: "u1", SessionID: "sid-1", Token: "r", Expires: time.Now().Add(time.Hour)}

	require.NoError(t, s.SignOut(context.Background(), wizard.Identity{UserID: "u1", SessionID: "sid-1"}))

	revoked, err := rev.IsRevoked(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Empty(t, rm.refresh.tokens)
	assert.Equal(t, []string{"sid-1"}, rm.refresh.deletedSID)
}

func TestSignOut_CleanupError(t *testing.T) {
	s, rm, _, _ := newAuthService(t)
	rm.refresh.deleteErr = errors.New("db error: down")

	err := s.SignOut(context.Background(), wizard.Identity{UserID: "u1", SessionID: "sid-1"})
	require.ErrorIs(t, err, common.ErrorInternal)
}
