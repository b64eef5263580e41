package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
	"github.com/dmitrijs2005/eternalvault/internal/server/sessions"
	"github.com/go-chi/chi/v5/middleware"
)

// accessToken reads a bearer token, falling back to the session cookie.
func accessToken(r *http.Request) string {
	if v := r.Header.Get(common.AuthorizationHeader); v != "" {
		if tok, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// sessionGate admits requests carrying a valid, unrevoked access token.
// Anything else is sent to the login screen: page loads by redirect, other
// calls by a 401 naming the redirect.
func (h *Handler) sessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tok := accessToken(r)
		err := common.ErrorUnauthorized
		if tok != "" {
			id, authErr := h.auth.Authenticate(ctx, tok)
			if authErr == nil {
				next.ServeHTTP(w, r.WithContext(sessions.WithIdentity(ctx, id)))
				return
			}
			err = authErr
		}

		if status, _ := statusOf(err); status != http.StatusUnauthorized {
			writeError(ctx, h.logger, w, err, nil)
			return
		}

		h.logger.Debug(ctx, "session rejected", "path", r.URL.Path, "reason", err)
		if r.Method == http.MethodGet {
			http.Redirect(w, r, routes.Login, http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: err.Error(), Redirect: routes.Login})
	})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
