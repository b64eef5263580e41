package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/media"
	"github.com/dmitrijs2005/eternalvault/internal/server/drafts"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

var (
	ErrAdvanceRefused = errors.New("current step is incomplete")
	ErrNoMediaStep    = errors.New("this wizard has no media step")
	ErrFileTooLarge   = errors.New("file exceeds the upload limit")
	ErrNoSuchFile     = errors.New("no file at that position")
)

type StepInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type FileInfo struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type DraftView struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	UnlockDate  string     `json:"unlock_date"`
	Message     string     `json:"message"`
	Guardians   []string   `json:"guardians"`
	Files       []FileInfo `json:"files"`
}

// WizardView is what a client needs to render the current step.
type WizardView struct {
	Step       int        `json:"step"`
	Total      int        `json:"total"`
	StepID     string     `json:"step_id"`
	Title      string     `json:"title"`
	Prompt     string     `json:"prompt"`
	Field      string     `json:"field,omitempty"`
	Steps      []StepInfo `json:"steps"`
	CanAdvance bool       `json:"can_advance"`
	CanRetreat bool       `json:"can_retreat"`
	IsFinal    bool       `json:"is_final"`
	Ready      bool       `json:"ready"`
	Previewing bool       `json:"previewing"`
	Recording  bool       `json:"recording"`
	Draft      DraftView  `json:"draft"`
}

// WizardOptions configure a WizardService.
type WizardOptions struct {
	Steps            []wizard.Step
	MediaEnabled     bool
	RecordingCeiling time.Duration
	MaxUploadBytes   int64
	// IdleTTL evicts sessions unused for this long. Zero keeps them until
	// logout or Close.
	IdleTTL time.Duration
}

// wizardSession holds per-session state that cannot live in the draft
// store: the lock serializing draft updates and the capture hardware.
// Files produced by the capturer wait in pending until the next update.
type wizardSession struct {
	mu       sync.Mutex
	device   *media.PushDevice
	capturer *media.Capturer

	pendingMu sync.Mutex
	pending   []wizard.File

	lastUsed time.Time
}

func (s *wizardSession) deliver(f wizard.File) {
	s.pendingMu.Lock()
	s.pending = append(s.pending, f)
	s.pendingMu.Unlock()
}

func (s *wizardSession) drain() []wizard.File {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// WizardService hosts one wizard per login session. Drafts live in a
// drafts.Store between requests.
type WizardService struct {
	opts      WizardOptions
	drafts    drafts.Store
	submitter *wizard.Submitter
	logger    logging.Logger

	mu       sync.Mutex
	sessions map[string]*wizardSession
	now      func() time.Time
}

func NewWizardService(store drafts.Store, submitter *wizard.Submitter, opts WizardOptions, l logging.Logger) *WizardService {
	if len(opts.Steps) == 0 {
		opts.Steps = wizard.MediaSteps()
	}
	return &WizardService{
		opts:      opts,
		drafts:    store,
		submitter: submitter,
		logger:    l.With("module", "wizard"),
		sessions:  make(map[string]*wizardSession),
		now:       time.Now,
	}
}

// session returns the in-memory state for sessionID, creating it on first
// use, and evicts sessions idle for longer than IdleTTL.
func (s *WizardService) session(ctx context.Context, sessionID string) *wizardSession {
	s.mu.Lock()
	now := s.now()
	idle := s.evictIdle(now, sessionID)
	ws, ok := s.sessions[sessionID]
	if !ok {
		ws = s.newSession()
		s.sessions[sessionID] = ws
	}
	ws.lastUsed = now
	s.mu.Unlock()

	for id, old := range idle {
		s.logger.Debug(ctx, "evict idle wizard session", "session_id", id)
		s.closeSession(ctx, id, old)
	}
	return ws
}

// evictIdle removes sessions other than keep whose last use is IdleTTL or
// more before now. Callers hold s.mu.
func (s *WizardService) evictIdle(now time.Time, keep string) map[string]*wizardSession {
	if s.opts.IdleTTL <= 0 {
		return nil
	}
	var idle map[string]*wizardSession
	for id, ws := range s.sessions {
		if id == keep || now.Sub(ws.lastUsed) < s.opts.IdleTTL {
			continue
		}
		if idle == nil {
			idle = make(map[string]*wizardSession)
		}
		idle[id] = ws
		delete(s.sessions, id)
	}
	return idle
}

func (s *WizardService) newSession() *wizardSession {
	ws := &wizardSession{}
	var dev media.Device = media.DeniedDevice{}
	if s.opts.MediaEnabled {
		ws.device = media.NewPushDevice()
		dev = ws.device
	}
	ws.capturer = media.NewCapturer(dev, ws.deliver, media.Options{
		RecordingCeiling: s.opts.RecordingCeiling,
		Logger:           s.logger,
	})
	return ws
}

// Sessions reports how many sessions hold in-memory state.
func (s *WizardService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *WizardService) load(ctx context.Context, sessionID string) (*wizard.Wizard, error) {
	st, ok, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		s.logger.Error(ctx, "load draft failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %w", wizard.ErrPersistence, err)
	}
	if !ok {
		return wizard.New(s.opts.Steps), nil
	}
	return wizard.Restore(s.opts.Steps, st), nil
}

// update loads the session's wizard, folds in captured files, applies fn
// and saves the result. fn may leave the draft untouched by returning an
// error, in which case nothing is saved unless captured files arrived.
func (s *WizardService) update(ctx context.Context, id wizard.Identity, fn func(w *wizard.Wizard) error) (*WizardView, error) {
	ws := s.session(ctx, id.SessionID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	w, err := s.load(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}

	dirty := false
	if files := ws.drain(); len(files) > 0 {
		w.Draft().AddFiles(files...)
		dirty = true
	}

	var fnErr error
	if fn != nil {
		fnErr = fn(w)
		dirty = dirty || fnErr == nil
	}

	if dirty {
		if err := s.drafts.Save(ctx, id.SessionID, w.State()); err != nil {
			s.logger.Error(ctx, "save draft failed", "session_id", id.SessionID, "error", err)
			return nil, fmt.Errorf("%w: %w", wizard.ErrPersistence, err)
		}
	}

	view := s.view(w, ws)
	return view, fnErr
}

func (s *WizardService) view(w *wizard.Wizard, ws *wizardSession) *WizardView {
	cur := w.Current()
	d := w.Draft()
	v := &WizardView{
		Step:       w.Step(),
		Total:      w.Len(),
		StepID:     cur.ID,
		Title:      cur.Title,
		Prompt:     cur.Prompt,
		Field:      cur.Field,
		Steps:      make([]StepInfo, 0, w.Len()),
		CanAdvance: w.CanAdvance(),
		CanRetreat: w.Step() > 1,
		IsFinal:    w.IsFinal(),
		Ready:      w.Ready(),
		Previewing: ws.capturer.Previewing(),
		Recording:  ws.capturer.Recording(),
		Draft: DraftView{
			Title:       d.Title,
			Description: d.Description,
			UnlockDate:  d.UnlockDate,
			Message:     d.Message,
			Guardians:   append([]string{}, d.Guardians...),
			Files:       make([]FileInfo, 0, len(d.Files)),
		},
	}
	for _, st := range w.Steps() {
		v.Steps = append(v.Steps, StepInfo{ID: st.ID, Title: st.Title})
	}
	for i, f := range d.Files {
		v.Draft.Files = append(v.Draft.Files, FileInfo{Index: i, Name: f.Name, ContentType: f.ContentType, Size: len(f.Data)})
	}
	return v
}

// View returns the current wizard, starting a fresh draft when none exists.
func (s *WizardService) View(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.update(ctx, id, nil)
}

// Next advances one step. A guard that does not hold yields
// ErrAdvanceRefused with the unchanged view.
func (s *WizardService) Next(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		if !w.Advance() {
			return ErrAdvanceRefused
		}
		return nil
	})
}

// Back retreats one step; on step 1 it is a no-op.
func (s *WizardService) Back(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		w.Retreat()
		return nil
	})
}

// SetFields assigns text fields by name. Either all are applied or none.
func (s *WizardService) SetFields(ctx context.Context, id wizard.Identity, fields map[string]string) (*WizardView, error) {
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		next := *w.Draft()
		for k, v := range fields {
			if err := next.SetField(k, v); err != nil {
				return err
			}
		}
		*w.Draft() = next
		return nil
	})
}

func (s *WizardService) AddGuardian(ctx context.Context, id wizard.Identity, email string) (*WizardView, error) {
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		w.Draft().AddGuardian(email)
		return nil
	})
}

func (s *WizardService) RemoveGuardian(ctx context.Context, id wizard.Identity, email string) (*WizardView, error) {
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		w.Draft().RemoveGuardian(email)
		return nil
	})
}

func (s *WizardService) checkSize(files []wizard.File) error {
	if s.opts.MaxUploadBytes <= 0 {
		return nil
	}
	for _, f := range files {
		if int64(len(f.Data)) > s.opts.MaxUploadBytes {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
	}
	return nil
}

// AddFiles appends externally chosen files to the draft.
func (s *WizardService) AddFiles(ctx context.Context, id wizard.Identity, files []wizard.File) (*WizardView, error) {
	if err := s.checkSize(files); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		if !w.Has(wizard.StepMedia) {
			return ErrNoMediaStep
		}
		w.Draft().AddFiles(files...)
		return nil
	})
}

func (s *WizardService) RemoveFile(ctx context.Context, id wizard.Identity, index int) (*WizardView, error) {
	return s.update(ctx, id, func(w *wizard.Wizard) error {
		if !w.Draft().RemoveFile(index) {
			return ErrNoSuchFile
		}
		return nil
	})
}

// capture runs a media operation after checking the layout has a media
// step, then returns the refreshed view with any produced file folded in.
func (s *WizardService) capture(ctx context.Context, id wizard.Identity, op func(ws *wizardSession) error) (*WizardView, error) {
	ws := s.session(ctx, id.SessionID)

	ws.mu.Lock()
	w, err := s.load(ctx, id.SessionID)
	ws.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !w.Has(wizard.StepMedia) {
		return nil, ErrNoMediaStep
	}

	if err := op(ws); err != nil {
		return nil, err
	}
	return s.update(ctx, id, nil)
}

func (s *WizardService) StartCamera(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.capture(ctx, id, func(ws *wizardSession) error {
		return ws.capturer.StartPreview(ctx)
	})
}

// PushFrame feeds a preview or recording frame from the client's camera.
func (s *WizardService) PushFrame(ctx context.Context, id wizard.Identity, img image.Image) error {
	ws := s.session(ctx, id.SessionID)
	if ws.device == nil {
		return media.ErrPermissionDenied
	}
	return ws.device.PushFrame(img)
}

func (s *WizardService) Snapshot(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.capture(ctx, id, func(ws *wizardSession) error {
		_, err := ws.capturer.CapturePhoto(ctx)
		return err
	})
}

func (s *WizardService) StopCamera(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.capture(ctx, id, func(ws *wizardSession) error {
		return ws.capturer.StopPreview()
	})
}

func (s *WizardService) StartRecording(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.capture(ctx, id, func(ws *wizardSession) error {
		return ws.capturer.StartRecording(ctx)
	})
}

// PushChunk feeds one encoded recording chunk from the client.
func (s *WizardService) PushChunk(ctx context.Context, id wizard.Identity, chunk []byte) error {
	ws := s.session(ctx, id.SessionID)
	if ws.device == nil {
		return media.ErrPermissionDenied
	}
	return ws.device.PushChunk(ctx, chunk)
}

func (s *WizardService) StopRecording(ctx context.Context, id wizard.Identity) (*WizardView, error) {
	return s.capture(ctx, id, func(ws *wizardSession) error {
		_, err := ws.capturer.StopRecording(ctx)
		return err
	})
}

// Submit hands a snapshot of the wizard to the submitter outside the
// session lock, so a second submit for the same session reports busy. On
// success the draft is destroyed.
func (s *WizardService) Submit(ctx context.Context, id wizard.Identity) (wizard.Result, *WizardView) {
	ws := s.session(ctx, id.SessionID)

	ws.mu.Lock()
	w, err := s.load(ctx, id.SessionID)
	if err == nil {
		if files := ws.drain(); len(files) > 0 {
			w.Draft().AddFiles(files...)
			if err = s.drafts.Save(ctx, id.SessionID, w.State()); err != nil {
				err = fmt.Errorf("%w: %w", wizard.ErrPersistence, err)
			}
		}
	}
	ws.mu.Unlock()
	if err != nil {
		return wizard.Result{Status: wizard.StatusFailed, Err: err}, nil
	}

	res := s.submitter.Submit(ctx, w)
	if !res.OK() {
		return res, s.view(w, ws)
	}

	_ = s.discard(ctx, id, ws)
	return res, s.view(w, ws)
}

// Discard destroys the draft and releases any capture hardware.
func (s *WizardService) Discard(ctx context.Context, id wizard.Identity) error {
	return s.discard(ctx, id, s.session(ctx, id.SessionID))
}

func (s *WizardService) discard(ctx context.Context, id wizard.Identity, ws *wizardSession) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if err := ws.capturer.Close(); err != nil {
		s.logger.Warn(ctx, "release capture hardware", "session_id", id.SessionID, "error", err)
	}
	ws.drain()

	if err := s.drafts.Delete(ctx, id.SessionID); err != nil {
		s.logger.Error(ctx, "delete draft failed", "session_id", id.SessionID, "error", err)
		return fmt.Errorf("%w: %w", wizard.ErrPersistence, err)
	}
	return nil
}

// Forget destroys a session's draft and releases its hardware and
// in-memory state. Called on logout.
func (s *WizardService) Forget(ctx context.Context, sessionID string) {
	s.release(ctx, sessionID)
	if err := s.drafts.Delete(ctx, sessionID); err != nil {
		s.logger.Error(ctx, "delete draft failed", "session_id", sessionID, "error", err)
	}
}

func (s *WizardService) release(ctx context.Context, sessionID string) {
	s.mu.Lock()
	ws, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		s.closeSession(ctx, sessionID, ws)
	}
}

func (s *WizardService) closeSession(ctx context.Context, sessionID string, ws *wizardSession) {
	if err := ws.capturer.Close(); err != nil {
		s.logger.Warn(ctx, "release capture hardware", "session_id", sessionID, "error", err)
	}
	ws.drain()
}

// Close releases every session's capture hardware. Stored drafts are kept.
func (s *WizardService) Close(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.release(ctx, id)
	}
}
