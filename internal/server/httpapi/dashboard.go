package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())

	d, err := h.dashboard.Get(r.Context(), id.UserID)
	if err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) getVault(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())

	v, err := h.dashboard.Vault(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
