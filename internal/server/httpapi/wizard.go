package httpapi

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/eternalvault/internal/server/services"
	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
	"github.com/go-chi/chi/v5"
)

// SubmitResponse reports a submission outcome.
type SubmitResponse struct {
	Status   wizard.Status        `json:"status"`
	VaultID  string               `json:"vault_id,omitempty"`
	Redirect string               `json:"redirect,omitempty"`
	Error    string               `json:"error,omitempty"`
	Wizard   *services.WizardView `json:"wizard,omitempty"`
}

type wizardOp func(ctx context.Context, id wizard.Identity) (*services.WizardView, error)

// run calls op for the session's wizard and writes the resulting view.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, op wizardOp) {
	id, _ := sessions.FromContext(r.Context())
	v, err := op(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.logger, w, err, v)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) wizardView(w http.ResponseWriter, r *http.Request) { h.run(w, r, h.wizard.View) }
func (h *Handler) wizardNext(w http.ResponseWriter, r *http.Request) { h.run(w, r, h.wizard.Next) }
func (h *Handler) wizardBack(w http.ResponseWriter, r *http.Request) { h.run(w, r, h.wizard.Back) }

func (h *Handler) wizardPatch(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeJSON(r, &fields); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	h.run(w, r, func(ctx context.Context, id wizard.Identity) (*services.WizardView, error) {
		return h.wizard.SetFields(ctx, id, fields)
	})
}

func (h *Handler) addGuardian(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	h.run(w, r, func(ctx context.Context, id wizard.Identity) (*services.WizardView, error) {
		return h.wizard.AddGuardian(ctx, id, req.Email)
	})
}

func (h *Handler) removeGuardian(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	h.run(w, r, func(ctx context.Context, id wizard.Identity) (*services.WizardView, error) {
		return h.wizard.RemoveGuardian(ctx, id, email)
	})
}

func (h *Handler) addFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), h.logger, w, services.ErrFileTooLarge, nil)
			return
		}
		writeError(r.Context(), h.logger, w, errors.Join(errBadRequest, err), nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var files []wizard.File
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeError(r.Context(), h.logger, w, fmt.Errorf("open %s: %w", fh.Filename, err), nil)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(r.Context(), h.logger, w, fmt.Errorf("read %s: %w", fh.Filename, err), nil)
			return
		}
		files = append(files, wizard.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	h.run(w, r, func(ctx context.Context, id wizard.Identity) (*services.WizardView, error) {
		return h.wizard.AddFiles(ctx, id, files)
	})
}

func (h *Handler) removeFile(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(r.Context(), h.logger, w, errors.Join(errBadRequest, err), nil)
		return
	}
	h.run(w, r, func(ctx context.Context, id wizard.Identity) (*services.WizardView, error) {
		return h.wizard.RemoveFile(ctx, id, i)
	})
}

func (h *Handler) cameraStart(w http.ResponseWriter, r *http.Request) { h.run(w, r, h.wizard.StartCamera) }
func (h *Handler) cameraStop(w http.ResponseWriter, r *http.Request)  { h.run(w, r, h.wizard.StopCamera) }
func (h *Handler) cameraSnapshot(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.wizard.Snapshot)
}

// cameraFrame accepts one JPEG or PNG frame from the client's camera.
func (h *Handler) cameraFrame(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())

	img, _, err := image.Decode(http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes))
	if err != nil {
		writeError(r.Context(), h.logger, w, errors.Join(errBadRequest, err), nil)
		return
	}
	if err := h.wizard.PushFrame(r.Context(), id, img); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordingStart(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.wizard.StartRecording)
}

func (h *Handler) recordingStop(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.wizard.StopRecording)
}

// recordingChunk accepts one raw encoded media chunk.
func (h *Handler) recordingChunk(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())

	chunk, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes))
	if err != nil {
		writeError(r.Context(), h.logger, w, errors.Join(errBadRequest, err), nil)
		return
	}
	if err := h.wizard.PushChunk(r.Context(), id, chunk); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())

	res, view := h.wizard.Submit(r.Context(), id)
	body := SubmitResponse{Status: res.Status, VaultID: res.VaultID, Redirect: res.Redirect, Wizard: view}

	code := http.StatusCreated
	if !res.OK() {
		var public bool
		code, public = statusOf(res.Err)
		switch res.Status {
		case wizard.StatusUnauthenticated:
			code = http.StatusUnauthorized
		case wizard.StatusNotReady, wizard.StatusBusy:
			code = http.StatusConflict
		}
		body.Error = res.Err.Error()
		if !public && code == http.StatusInternalServerError {
			h.logger.Error(r.Context(), "submit failed", "user_id", id.UserID, "error", res.Err)
			body.Error = wizard.ErrPersistence.Error()
		}
	}
	writeJSON(w, code, body)
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())
	if err := h.wizard.Discard(r.Context(), id); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	h.run(w, r, h.wizard.View)
}
