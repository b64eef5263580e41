package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/dbx"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/vaults"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeAccounts struct {
	mu        sync.Mutex
	byEmail   map[string]*models.Account
	createErr error
	getErr    error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*models.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[a.Email]; ok {
		return nil, common.ErrEmailTaken
	}
	a.ID = "acc-" + a.Email
	a.CreatedAt = time.Now()
	f.byEmail[a.Email] = a
	return a, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeProfiles struct {
	byID      map[string]*models.Profile
	createErr error
	getErr    error
}

func (f *fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byID == nil {
		f.byID = map[string]*models.Profile{}
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

type fakeVaults struct {
	mu      sync.Mutex
	list    []*models.Vault
	created []*models.Vault
	err     error
}

func (f *fakeVaults) Create(_ context.Context, v *models.Vault) (*models.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	v.ID = "vault-1"
	f.created = append(f.created, v)
	return v, nil
}

func (f *fakeVaults) ListByUser(context.Context, string) ([]*models.Vault, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeVaults) GetByID(_ context.Context, userID, id string) (*models.Vault, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.list {
		if v.ID == id && v.UserID == userID {
			return v, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRefresh struct {
	tokens     map[string]*models.RefreshToken
	createErr  error
	deleteErr  error
	deletedSID []string
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefresh) Create(_ context.Context, userID, sessionID, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, SessionID: sessionID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefresh) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefresh) Delete(_ context.Context, token string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefresh) DeleteBySession(_ context.Context, sessionID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedSID = append(f.deletedSID, sessionID)
	for k, t := range f.tokens {
		if t.SessionID == sessionID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakeRepoManager struct {
	accounts *fakeAccounts
	profiles *fakeProfiles
	vaults   *fakeVaults
	refresh  *fakeRefresh
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts: newFakeAccounts(),
		profiles: &fakeProfiles{},
		vaults:   &fakeVaults{},
		refresh:  newFakeRefresh(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository           { return m.accounts }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository           { return m.profiles }
func (m *fakeRepoManager) Vaults(dbx.DBTX) vaults.Repository               { return m.vaults }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.refresh }
