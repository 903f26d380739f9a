// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/auditlog"
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"go.uber.org/zap"
)

type Handler struct {
	Queries  *portalqueries.Queries
	Sessions *session.Manager
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(q *portalqueries.Queries, sessions *session.Manager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Queries:  q,
		Sessions: sessions,
		AuditLog: audit,
		Log:      logger,
	}
}

// ServeSignOut handles GET and POST /sign-out. Signing out without a token
// still clears the cookie and redirects home.
func (h *Handler) ServeSignOut(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.For(w, r)

	userID, signedIn := 0, false
	if u, ok := auth.CurrentUser(r); ok {
		userID, signedIn = u.ID, true
	} else if tok, ok := sess.Token(); ok {
		userID, _ = session.UserID(tok)
		signedIn = true
	}

	h.Queries.SignOut(sess)
	if signedIn {
		h.AuditLog.SignOut(r.Context(), r, userID)
		h.Log.Info("user signed out", zap.Int("user_id", userID))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
