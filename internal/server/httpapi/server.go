// Package httpapi exposes registration, login, the dashboard and the vault
// wizard over HTTP.
package httpapi

import (
	"context"
	"errors"
	"image"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
	"github.com/dmitrijs2005/eternalvault/internal/server/services"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Authenticator interface {
	SignUp(ctx context.Context, email, password, fullName string) (string, error)
	SignIn(ctx context.Context, email, password string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (wizard.Identity, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, id wizard.Identity) error
}

type DashboardReader interface {
	Get(ctx context.Context, userID string) (*services.Dashboard, error)
	Vault(ctx context.Context, userID, vaultID string) (*services.VaultView, error)
}

// WizardHost is the per-session wizard implemented by
// services.WizardService.
type WizardHost interface {
	View(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	Next(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	Back(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	SetFields(ctx context.Context, id wizard.Identity, fields map[string]string) (*services.WizardView, error)
	AddGuardian(ctx context.Context, id wizard.Identity, email string) (*services.WizardView, error)
	RemoveGuardian(ctx context.Context, id wizard.Identity, email string) (*services.WizardView, error)
	AddFiles(ctx context.Context, id wizard.Identity, files []wizard.File) (*services.WizardView, error)
	RemoveFile(ctx context.Context, id wizard.Identity, index int) (*services.WizardView, error)
	StartCamera(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	PushFrame(ctx context.Context, id wizard.Identity, img image.Image) error
	Snapshot(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	StopCamera(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	StartRecording(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	PushChunk(ctx context.Context, id wizard.Identity, chunk []byte) error
	StopRecording(ctx context.Context, id wizard.Identity) (*services.WizardView, error)
	Submit(ctx context.Context, id wizard.Identity) (wizard.Result, *services.WizardView)
	Discard(ctx context.Context, id wizard.Identity) error
	Forget(ctx context.Context, sessionID string)
}

// HealthFunc reports whether the service and its dependencies are usable.
type HealthFunc func(ctx context.Context) error

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	SecureCookies  bool
}

type Handler struct {
	auth      Authenticator
	dashboard DashboardReader
	wizard    WizardHost
	health    HealthFunc
	opts      Options
	logger    logging.Logger
}

func NewHandler(a Authenticator, d DashboardReader, w WizardHost, h HealthFunc, opts Options, l logging.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{
		auth:      a,
		dashboard: d,
		wizard:    w,
		health:    h,
		opts:      opts,
		logger:    l.With("module", "http"),
	}
}

// Router builds the chi mux with every route mounted.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get(routes.Home, h.home)
	r.Get("/health", h.healthCheck)
	r.Post(routes.Register, h.register)
	r.Post(routes.Login, h.login)
	r.Post("/token/refresh", h.refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionGate)

		r.Post("/logout", h.logout)
		r.Get(routes.Dashboard, h.getDashboard)
		r.Get(routes.Dashboard+"/vaults/{id}", h.getVault)

		r.Route(routes.CreateVault, func(r chi.Router) {
			r.Get("/", h.wizardView)
			r.Post("/next", h.wizardNext)
			r.Post("/back", h.wizardBack)
			r.Patch("/draft", h.wizardPatch)
			r.Post("/guardians", h.addGuardian)
			r.Delete("/guardians", h.removeGuardian)
			r.Post("/files", h.addFiles)
			r.Delete("/files/{index}", h.removeFile)
			r.Post("/camera/start", h.cameraStart)
			r.Post("/camera/frame", h.cameraFrame)
			r.Post("/camera/snapshot", h.cameraSnapshot)
			r.Post("/camera/stop", h.cameraStop)
			r.Post("/recording/start", h.recordingStart)
			r.Post("/recording/chunk", h.recordingChunk)
			r.Post("/recording/stop", h.recordingStop)
			r.Post("/submit", h.submit)
			r.Post("/discard", h.discard)
		})
	})

	return r
}

// HTTPServer serves a Handler until its context is canceled.
type HTTPServer struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewHTTPServer(address string, h *Handler, l logging.Logger) *HTTPServer {
	return &HTTPServer{address: address, handler: h.Router(), logger: l.With("module", "http_server")}
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
