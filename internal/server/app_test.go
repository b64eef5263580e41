package server

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/eternalvault/internal/server/config"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepoManager struct {
	repomanager.RepositoryManager
	migrateErr error
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return f.migrateErr }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.Load(nil, func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.BlobBackend = config.BlobBackendNone
	return c
}

func withSeams(t *testing.T, rm repomanager.RepositoryManager) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	origOpen, origRM, origOut := openPostgres, newRepoManager, logOutput
	openPostgres = func(context.Context, string) (*sql.DB, error) { return db, nil }
	newRepoManager = func() repomanager.RepositoryManager { return rm }
	logOutput = io.Discard
	t.Cleanup(func() {
		openPostgres, newRepoManager, logOutput = origOpen, origRM, origOut
	})
	return mock
}

func TestNewApp_InMemoryRunsAndStops(t *testing.T) {
	mock := withSeams(t, &fakeRepoManager{})
	mock.ExpectClose()

	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, app.redis)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	withSeams(t, &fakeRepoManager{})

	c := testConfig(t)
	c.RedisURL = "redis://" + mr.Addr()

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	require.NotNil(t, app.redis)
	app.close()
}

func TestNewApp_Errors(t *testing.T) {
	withSeams(t, &fakeRepoManager{migrateErr: errors.New("dirty")})
	_, err := NewApp(context.Background(), testConfig(t))
	require.ErrorContains(t, err, "migrations error")

	withSeams(t, &fakeRepoManager{})
	c := testConfig(t)
	c.BlobBackend = "floppy"
	_, err = NewApp(context.Background(), c)
	require.ErrorContains(t, err, "unknown blob backend")

	c = testConfig(t)
	c.WizardLayout = "spiral"
	_, err = NewApp(context.Background(), c)
	require.ErrorContains(t, err, "unknown wizard layout")

	c = testConfig(t)
	c.RedisURL = "not-a-url"
	_, err = NewApp(context.Background(), c)
	require.ErrorContains(t, err, "redis init error")

	origOpen := openPostgres
	openPostgres = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") }
	defer func() { openPostgres = origOpen }()
	_, err = NewApp(context.Background(), testConfig(t))
	require.ErrorContains(t, err, "db init error")
}

func TestSecureOrigins(t *testing.T) {
	assert.False(t, secureOrigins(nil))
	assert.False(t, secureOrigins([]string{"https://a", "http://b"}))
	assert.True(t, secureOrigins([]string{"https://a"}))
}
