package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"go.uber.org/zap"
)

const (
	SignInPath               = "/sign-in"
	RegisterOrganizationPath = "/sign-up/organization"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in backend user injected into r.Context().
type SessionUser struct {
	ID    int
	Email string
	Name  string
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	currentOrgKey  ctxKey = "currentOrganization"
)

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// CurrentOrganization returns the organization loaded by RequireOrganization.
func CurrentOrganization(r *http.Request) (*models.OrganizationProfile, bool) {
	o, ok := r.Context().Value(currentOrgKey).(*models.OrganizationProfile)
	return o, ok && o != nil
}

// WithUser returns r carrying u. Used by LoadSessionUser and by tests.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithOrganization returns r carrying org.
func WithOrganization(r *http.Request, org *models.OrganizationProfile) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentOrgKey, org))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Middleware resolves the token cookie into a user and an organization.
type Middleware struct {
	sessions *session.Manager
	queries  *portalqueries.Queries
	log      *zap.Logger

	// OnError renders a failure to load the current organization.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

func NewMiddleware(sessions *session.Manager, queries *portalqueries.Queries, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{
		sessions: sessions,
		queries:  queries,
		log:      log,
		OnError: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "service unavailable", http.StatusBadGateway)
		},
	}
}

// LoadSessionUser injects the user into context when the token resolves to
// one. A token the backend rejects is cleared. Other failures leave the
// request anonymous and the token in place.
func (m *Middleware) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.sessions.For(w, r)
		if _, ok := sess.Token(); !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		st, err := m.queries.CurrentUser(ctx, sess)
		cancel()

		switch {
		case err == nil && st.SignedIn:
			name := st.User.Email
			if st.User.Username != nil && *st.User.Username != "" {
				name = *st.User.Username
			}
			r = WithUser(r, &SessionUser{ID: st.User.ID, Email: st.User.Email, Name: name})
		case apiclient.IsKind(err, apiclient.KindUnauthorized):
			m.log.Info("token rejected by backend; signing out")
			m.queries.SignOut(sess)
		case err != nil:
			m.log.Warn("could not resolve current user", zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn lets requests through when the session holds a token.
// Otherwise:
//   - HTMX: sends HX-Redirect to /sign-in?return=...
//   - HTML: 303 redirect to /sign-in?return=...
//   - API:  401 Unauthorized with a plain error body.
func (m *Middleware) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.sessions.For(w, r).Token(); ok {
			next.ServeHTTP(w, r)
			return
		}
		redirect(w, r, SignInPath+"?return="+url.QueryEscape(currentURI(r)), http.StatusUnauthorized)
	})
}

// RequireOrganization loads the signed-in user's organization into context
// and sends users without one to the registration form. Mount it after
// RequireSignedIn.
func (m *Middleware) RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.sessions.For(w, r)
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		org, err := m.queries.CurrentOrganization(ctx, sess)
		cancel()

		switch {
		case apiclient.IsKind(err, apiclient.KindUnauthorized):
			m.queries.SignOut(sess)
			redirect(w, r, SignInPath+"?return="+url.QueryEscape(currentURI(r)), http.StatusUnauthorized)
		case err != nil:
			m.log.Warn("could not load current organization", zap.Error(err))
			m.OnError(w, r, err)
		case org == nil:
			redirect(w, r, RegisterOrganizationPath, http.StatusForbidden)
		default:
			next.ServeHTTP(w, WithOrganization(r, org))
		}
	})
}

// RedirectIfSignedIn sends signed-in users to to. Sign-in and sign-up pages
// use it. Mount it after LoadSessionUser.
func RedirectIfSignedIn(to string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUser(r); ok && r.Method == http.MethodGet {
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

// redirect sends HTMX requests an HX-Redirect with status, browsers a 303
// and API callers a plain status.
func redirect(w http.ResponseWriter, r *http.Request, dest string, status int) {
	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(status)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	http.Error(w, strings.ToLower(http.StatusText(status)), status)
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
