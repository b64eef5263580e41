package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
	"github.com/dmitrijs2005/eternalvault/internal/server/services"
	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
)

// RegistrationMessage is returned after a successful sign up.
const RegistrationMessage = "Registration successful! You can now sign in."

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Redirect     string `json:"redirect,omitempty"`
}

type MessageResponse struct {
	Message  string `json:"message,omitempty"`
	ID       string `json:"id,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  "EternalVault",
		"links": []string{routes.Login, routes.Register, routes.Dashboard, routes.CreateVault},
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_SERVING"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}

	id, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: RegistrationMessage, ID: id, Redirect: routes.Login})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}

	pair, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, Redirect: routes.Dashboard})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), h.logger, w, err, nil)
			return
		}
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(common.RefreshCookieName); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		writeError(r.Context(), h.logger, w, common.ErrInvalidToken, nil)
		return
	}

	pair, err := h.auth.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := sessions.FromContext(r.Context())

	if err := h.auth.SignOut(r.Context(), id); err != nil {
		writeError(r.Context(), h.logger, w, err, nil)
		return
	}
	h.wizard.Forget(r.Context(), id.SessionID)

	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, MessageResponse{Redirect: routes.Home})
}

func (h *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, h.cookie(common.SessionCookieName, pair.AccessToken, h.opts.AccessTTL))
	http.SetCookie(w, h.cookie(common.RefreshCookieName, pair.RefreshToken, h.opts.RefreshTTL))
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{common.SessionCookieName, common.RefreshCookieName} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
