package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
)

var (
	ErrNotReady    = errors.New("wizard is not on its final step or has unmet fields")
	ErrBadUnlock   = errors.New("unlock date must be YYYY-MM-DD")
	ErrSubmitBusy  = errors.New("submission already in progress")
	ErrNoSession   = errors.New("no active session")
	ErrPersistence = errors.New("could not save vault")
)

// Identity is the authenticated principal behind a session.
type Identity struct {
	UserID    string
	SessionID string
}

// SessionChecker answers whether ctx carries an active session.
type SessionChecker interface {
	CurrentSession(ctx context.Context) (Identity, bool)
}

// Record is the vault as written to storage.
type Record struct {
	UserID      string
	Title       string
	Description string
	UnlockDate  time.Time
	Guardians   []string
	Message     string
	Files       []string
	Status      string
}

// VaultInserter persists a single vault and returns its id.
type VaultInserter interface {
	InsertVault(ctx context.Context, r Record) (string, error)
}

// FileUploader moves a draft blob to durable storage and returns the
// reference kept on the vault. Remove deletes an uploaded reference.
type FileUploader interface {
	Upload(ctx context.Context, userID string, f File) (string, error)
	Remove(ctx context.Context, ref string) error
}

// Status classifies the outcome of a submission.
type Status string

const (
	StatusSubmitted       Status = "submitted"
	StatusUnauthenticated Status = "unauthenticated"
	StatusNotReady        Status = "not_ready"
	StatusBusy            Status = "busy"
	StatusFailed          Status = "failed"
)

// Result is returned by every submission attempt. Redirect is set when the
// caller should navigate away; otherwise it stays on the final step.
type Result struct {
	Status   Status
	Redirect string
	VaultID  string
	Err      error
}

// OK reports whether the vault was stored.
func (r Result) OK() bool { return r.Status == StatusSubmitted }

// Submitter turns a finished wizard into one persisted vault.
type Submitter struct {
	sessions SessionChecker
	vaults   VaultInserter
	files    FileUploader
	logger   logging.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSubmitter builds a Submitter. files may be nil, in which case draft
// blobs are not uploaded and the vault's file list is left empty.
func NewSubmitter(sessions SessionChecker, vaults VaultInserter, files FileUploader, logger logging.Logger) *Submitter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Submitter{
		sessions: sessions,
		vaults:   vaults,
		files:    files,
		logger:   logger.With("module", "wizard"),
		inflight: make(map[string]struct{}),
	}
}

func (s *Submitter) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Submitter) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// Submit checks the session, then writes the draft as one vault. The
// session is checked before anything else; without one nothing is written
// and the result redirects to the login screen. On success the wizard is
// reset and the result redirects to the dashboard. Any other outcome leaves
// the wizard untouched on its final step.
func (s *Submitter) Submit(ctx context.Context, w *Wizard) Result {
	id, ok := s.sessions.CurrentSession(ctx)
	if !ok {
		return Result{Status: StatusUnauthenticated, Redirect: routes.Login, Err: ErrNoSession}
	}

	if !w.IsFinal() || !w.Ready() {
		return Result{Status: StatusNotReady, Err: ErrNotReady}
	}

	if !s.acquire(id.SessionID) {
		return Result{Status: StatusBusy, Err: ErrSubmitBusy}
	}
	defer s.release(id.SessionID)

	d := w.Draft()
	unlock, err := time.Parse(common.UnlockDateLayout, d.UnlockDate)
	if err != nil {
		s.logger.Warn(ctx, "bad unlock date", "user_id", id.UserID, "value", d.UnlockDate)
		return Result{Status: StatusFailed, Err: fmt.Errorf("%w: %q", ErrBadUnlock, d.UnlockDate)}
	}

	refs := []string{}
	if s.files != nil {
		for _, f := range d.Files {
			ref, err := s.files.Upload(ctx, id.UserID, f)
			if err != nil {
				s.logger.Error(ctx, "file upload failed", "user_id", id.UserID, "file", f.Name, "err", err)
				s.removeUploaded(ctx, refs)
				return Result{Status: StatusFailed, Err: fmt.Errorf("%w: upload %s: %w", ErrPersistence, f.Name, err)}
			}
			refs = append(refs, ref)
		}
	}

	guardians := append([]string{}, d.Guardians...)
	vaultID, err := s.vaults.InsertVault(ctx, Record{
		UserID:      id.UserID,
		Title:       d.Title,
		Description: d.Description,
		UnlockDate:  unlock,
		Guardians:   guardians,
		Message:     d.Message,
		Files:       refs,
		Status:      common.VaultStatusActive,
	})
	if err != nil {
		s.logger.Error(ctx, "error creating vault", "user_id", id.UserID, "err", err)
		s.removeUploaded(ctx, refs)
		return Result{Status: StatusFailed, Err: fmt.Errorf("%w: %w", ErrPersistence, err)}
	}

	s.logger.Info(ctx, "vault created", "user_id", id.UserID, "vault_id", vaultID, "files", len(refs))
	w.Reset()
	return Result{Status: StatusSubmitted, Redirect: routes.Dashboard, VaultID: vaultID}
}

// removeUploaded deletes blobs written for a submission that did not
// produce a vault. Failures are logged only.
func (s *Submitter) removeUploaded(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.files.Remove(ctx, ref); err != nil {
			s.logger.Warn(ctx, "remove orphaned upload", "ref", ref, "err", err)
		}
	}
}
