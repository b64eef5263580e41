package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/client/config"
	"github.com/dmitrijs2005/eternalvault/internal/client/health"
	"github.com/dmitrijs2005/eternalvault/internal/client/localdb"
	"github.com/dmitrijs2005/eternalvault/internal/client/services"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type authService interface {
	Register(ctx context.Context, email string, password []byte, fullName string) (string, error)
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
}

type vaultService interface {
	Dashboard(ctx context.Context) (*api.Dashboard, error)
	Vault(ctx context.Context, id string) (*api.VaultView, error)
	Download(ctx context.Context, id string) (*api.VaultView, []string, error)
}

// wizardAPI is the server's /create-vault surface.
type wizardAPI interface {
	Wizard(ctx context.Context) (*api.WizardView, error)
	Next(ctx context.Context) (*api.WizardView, error)
	Back(ctx context.Context) (*api.WizardView, error)
	SetFields(ctx context.Context, fields map[string]string) (*api.WizardView, error)
	AddGuardian(ctx context.Context, email string) (*api.WizardView, error)
	RemoveGuardian(ctx context.Context, email string) (*api.WizardView, error)
	AttachFiles(ctx context.Context, files []api.LocalFile) (*api.WizardView, error)
	RemoveFile(ctx context.Context, index int) (*api.WizardView, error)
	StartCamera(ctx context.Context) (*api.WizardView, error)
	PushFrame(ctx context.Context, frame []byte, contentType string) error
	Snapshot(ctx context.Context) (*api.WizardView, error)
	StopCamera(ctx context.Context) (*api.WizardView, error)
	StartRecording(ctx context.Context) (*api.WizardView, error)
	PushChunk(ctx context.Context, chunk []byte) error
	StopRecording(ctx context.Context) (*api.WizardView, error)
	Submit(ctx context.Context) (*api.SubmitResult, error)
	Discard(ctx context.Context) (*api.WizardView, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger

	auth   authService
	vaults vaultService
	wizard wizardAPI
	health pinger

	closers []io.Closer

	in  *bufio.Reader
	out io.Writer

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens the local database and wires the services for cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.LogLevel, "text", os.Stderr).With("app", "ev")

	db, err := localdb.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	pinger, err := health.Dial(cfg.HealthAddr)
	if err != nil {
		db.Close()
		return nil, err
	}

	session := services.NewSession(db)
	client := api.NewClient(cfg.ServerURL, session, cfg.RequestTimeout, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		auth:    services.NewAuthService(client, session, logger),
		vaults:  services.NewVaultService(client, cfg.DownloadDir, logger),
		wizard:  client,
		health:  pinger,
		closers: []io.Closer{pinger, db},
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

// setMode records m and reports whether it differs from the previous mode.
func (a *App) setMode(m Mode) bool {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.mode == m {
		return false
	}
	a.mode = m
	return true
}

// probe pings the server once and records the resulting mode.
func (a *App) probe(ctx context.Context) (Mode, bool) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m := ModeOnline
	if err := a.health.Ping(ctx); err != nil {
		a.logger.Debug(ctx, "health ping failed", "error", err)
		m = ModeOffline
	}
	return m, a.setMode(m)
}

// StartOnlineStatusWatcher probes the server every interval until ctx is
// done and tells the user when it goes away or comes back.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m, changed := a.probe(ctx)
			if !changed {
				continue
			}
			if m == ModeOffline {
				warning(a.out, "Server unreachable, changes cannot be saved until it is back")
			} else {
				success(a.out, "Server is back online")
			}
		case <-ctx.Done():
			return
		}
	}
}
