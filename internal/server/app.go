// Package server wires the EternalVault server together: PostgreSQL
// repositories, the Redis or in-memory draft and revocation stores, the blob
// store, the HTTP API and the gRPC health endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/eternalvault/internal/cryptox"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/server/config"
	"github.com/dmitrijs2005/eternalvault/internal/server/drafts"
	"github.com/dmitrijs2005/eternalvault/internal/server/httpapi"
	"github.com/dmitrijs2005/eternalvault/internal/server/redisdb"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eternalvault/internal/server/services"
	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
	"github.com/dmitrijs2005/eternalvault/internal/server/storage"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/eternalvault/internal/server/grpc"
)

// seams for tests
var (
	openPostgres   = repomanager.OpenPostgres
	newRepoManager = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
	connectRedis   = redisdb.Connect
)

var logOutput io.Writer = os.Stdout

type App struct {
	config *config.Config
	logger logging.Logger

	db    *sql.DB
	redis *redis.Client

	wizard *services.WizardService
	http   *httpapi.HTTPServer
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, logOutput)
	app := &App{config: c, logger: logger}

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var (
		draftStore  drafts.Store
		revocations sessions.Revocations
	)
	if c.RedisURL != "" {
		rdb, err := connectRedis(ctx, c.RedisURL)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = rdb
		draftStore = drafts.NewRedisStore(rdb, cryptox.DeriveSealKey(c.SecretKey), c.DraftTTL)
		revocations = sessions.NewRedisRevocations(rdb)
	} else {
		logger.Warn(ctx, "no redis configured, drafts and revocations are kept in memory")
		draftStore = drafts.NewMemoryStore(c.DraftTTL)
		revocations = sessions.NewMemoryRevocations()
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}
	var uploader wizard.FileUploader
	if blobs != nil {
		uploader = storage.NewUploader(blobs)
	}

	steps, err := wizard.StepsFor(wizard.Layout(c.WizardLayout))
	if err != nil {
		app.close()
		return nil, err
	}

	authSvc := services.NewAuthService(db, rm, revocations, c, logger)
	dashSvc := services.NewDashboardService(db, rm, blobs, logger)
	submitter := wizard.NewSubmitter(sessions.NewContextChecker(revocations), services.NewVaultWriter(db, rm), uploader, logger)
	app.wizard = services.NewWizardService(draftStore, submitter, services.WizardOptions{
		Steps:            steps,
		MediaEnabled:     c.MediaCaptureEnabled,
		RecordingCeiling: c.RecordingCeiling,
		MaxUploadBytes:   c.MaxUploadBytes,
		IdleTTL:          c.DraftTTL,
	}, logger)

	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, c.HealthCheckInterval,
		gs.Check{Name: "postgres", Ping: db.PingContext},
		gs.Check{Name: "drafts", Ping: draftStore.Ping},
		gs.Check{Name: "revocations", Ping: revocations.Ping},
	)

	handler := httpapi.NewHandler(authSvc, dashSvc, app.wizard, app.grpc.Check, httpapi.Options{
		AllowedOrigins: c.CORSAllowedOrigins,
		MaxUploadBytes: c.MaxUploadBytes,
		AccessTTL:      c.AccessTokenValidityDuration,
		RefreshTTL:     c.RefreshTokenValidityDuration,
		SecureCookies:  secureOrigins(c.CORSAllowedOrigins),
	}, logger)
	app.http = httpapi.NewHTTPServer(c.EndpointAddrHTTP, handler, logger)

	logger.Info(ctx, "app initialized",
		"blob_backend", c.BlobBackend,
		"wizard_layout", c.WizardLayout,
		"media_capture", c.MediaCaptureEnabled,
		"redis", c.RedisURL != "",
	)
	return app, nil
}

// newBlobStore returns nil for the "none" backend.
func newBlobStore(ctx context.Context, c *config.Config) (storage.BlobStore, error) {
	switch c.BlobBackend {
	case config.BlobBackendS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:       c.S3Region,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			PresignTTL:   c.PresignTTL,
		})
	case config.BlobBackendCloudinary:
		return storage.NewCloudinaryStore(c.CloudinaryCloudName, c.CloudinaryAPIKey, c.CloudinaryAPISecret, c.CloudinaryFolder)
	case config.BlobBackendNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
}

// secureOrigins reports whether every allowed origin is served over TLS.
func secureOrigins(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if !strings.HasPrefix(o, "https://") {
			return false
		}
	}
	return true
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(context.Background(), "redis close", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close", "error", err)
		}
	}
}

func (app *App) run(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is canceled, a signal arrives or either
// server fails, then releases every resource.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.run(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()
	go func() {
		defer wg.Done()
		app.run(ctx, cancelFunc, "http", app.http.Run)
	}()

	wg.Wait()

	app.wizard.Close(context.WithoutCancel(ctx))
	app.close()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
}
