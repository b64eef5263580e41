package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/media"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
	"github.com/dmitrijs2005/eternalvault/internal/server/services"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error      string               `json:"error"`
	Redirect   string               `json:"redirect,omitempty"`
	Alert      bool                 `json:"alert,omitempty"`
	CanAdvance *bool                `json:"can_advance,omitempty"`
	Wizard     *services.WizardView `json:"wizard,omitempty"`
}

var errBadRequest = errors.New("malformed request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps service errors to HTTP status codes. The bool reports
// whether the error text is safe to show.
func statusOf(err error) (int, bool) {
	switch {
	case errors.Is(err, common.ErrBadCredentials),
		errors.Is(err, common.ErrEmptyCredential),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrSessionRevoked),
		errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, true

	case errors.Is(err, media.ErrPermissionDenied):
		return http.StatusForbidden, true

	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, common.ErrEmailTaken),
		errors.Is(err, services.ErrAdvanceRefused),
		errors.Is(err, services.ErrNoMediaStep),
		errors.Is(err, wizard.ErrNotReady),
		errors.Is(err, wizard.ErrSubmitBusy),
		errors.Is(err, media.ErrCaptureActive),
		errors.Is(err, media.ErrDeviceBusy),
		errors.Is(err, media.ErrNoPreview),
		errors.Is(err, media.ErrNotRecording),
		errors.Is(err, media.ErrNoStream),
		errors.Is(err, media.ErrNoFrame),
		errors.Is(err, media.ErrNoAudio),
		errors.Is(err, media.ErrStreamClosed),
		errors.Is(err, media.ErrEmptyRecording):
		return http.StatusConflict, true

	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, true

	case errors.Is(err, wizard.ErrBadUnlock):
		return http.StatusUnprocessableEntity, true

	case errors.Is(err, common.ErrWeakPassword),
		errors.Is(err, common.ErrInvalidEmail),
		errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, services.ErrNoSuchFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, true
	}
	return http.StatusInternalServerError, false
}

func writeError(ctx context.Context, l logging.Logger, w http.ResponseWriter, err error, view *services.WizardView) {
	status, public := statusOf(err)
	body := ErrorBody{Error: err.Error(), Wizard: view}

	switch status {
	case http.StatusUnauthorized:
		body.Redirect = routes.Login
	case http.StatusForbidden:
		body.Error = media.ErrPermissionDenied.Error()
		body.Alert = true
	}
	if errors.Is(err, services.ErrAdvanceRefused) {
		no := false
		body.CanAdvance = &no
	}
	if !public {
		l.Error(ctx, "request failed", "error", err)
		body.Error = common.ErrorInternal.Error()
	}

	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
