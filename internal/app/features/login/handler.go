// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	authstore "github.com/dalemusser/fwsm/internal/app/store/auth"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/auditlog"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/navigation"
	"github.com/dalemusser/fwsm/internal/app/system/ratelimit"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const (
	msgIncorrect = "Incorrect email or password"
	msgUnknown   = "An unknown error occured"
)

type Handler struct {
	Queries     *portalqueries.Queries
	Sessions    *session.Manager
	Limiter     *ratelimit.SignInLimiter // nil disables throttling
	AuditLog    *auditlog.Logger
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
	TokenMaxAge time.Duration
}

func NewHandler(
	q *portalqueries.Queries,
	sessions *session.Manager,
	limiter *ratelimit.SignInLimiter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	tokenMaxAge time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Queries:     q,
		Sessions:    sessions,
		Limiter:     limiter,
		AuditLog:    audit,
		ErrLog:      errLog,
		Log:         logger,
		TokenMaxAge: tokenMaxAge,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type signInFormData struct {
	formutil.Base
	Identifier string // echoed back; the password never is
	ReturnURL  string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data signInFormData) {
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	templates.Render(w, r, "sign_in", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /sign-in                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, signInFormData{
		ReturnURL: navigation.SafeBackURL(r, navigation.SignInReturn),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /sign-in                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignInPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/sign-in")
		return
	}

	data := signInFormData{
		Identifier: formutil.Trim(r, "identifier"),
		ReturnURL:  navigation.SafeBackURL(r, navigation.SignInReturn),
	}
	data.Errors = formutil.Errors{}
	password := r.FormValue("password")

	formutil.Email(data.Errors, "identifier", data.Identifier, "Please enter a valid email address")
	formutil.Required(data.Errors, "password", password, "Please enter your password")
	if data.Errors.Any() {
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, data.Identifier); !ok {
			h.AuditLog.SignInRateLimited(r.Context(), r, data.Identifier)
			data.SetError(reason)
			h.render(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sess := h.Sessions.For(w, r)
	user, err := h.Queries.SignIn(ctx, sess, authstore.Credentials{
		Identifier: data.Identifier,
		Password:   password,
	}, h.TokenMaxAge)

	switch {
	case err == nil:
	case apiclient.IsKind(err, apiclient.KindInvalidCredentials):
		h.AuditLog.SignInFailed(r.Context(), r, data.Identifier, "invalid_credentials")
		data.SetError(msgIncorrect)
		h.render(w, r, http.StatusUnauthorized, data)
		return
	default:
		h.Log.Warn("sign-in failed", zap.String("outcome", apiclient.Classify(err).String()), zap.Error(err))
		h.AuditLog.SignInFailed(r.Context(), r, data.Identifier, apiclient.Classify(err).String())
		data.SetError(msgUnknown)
		h.render(w, r, http.StatusBadGateway, data)
		return
	}

	if h.Limiter != nil {
		h.Limiter.Succeeded(data.Identifier)
	}
	h.AuditLog.SignInSuccess(r.Context(), r, user.ID, data.Identifier)
	h.Log.Info("user signed in", zap.Int("user_id", user.ID))

	http.Redirect(w, r, data.ReturnURL, http.StatusSeeOther)
}
