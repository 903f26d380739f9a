// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	authstore "github.com/dalemusser/fwsm/internal/app/store/auth"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/auditlog"
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const (
	msgUnknown  = "An unknown error occured"
	msgMismatch = "Passwords do not match"
)

// Handler serves account sign-up and the organization registration that
// follows it.
type Handler struct {
	Queries     *portalqueries.Queries
	Sessions    *session.Manager
	AuditLog    *auditlog.Logger
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
	TokenMaxAge time.Duration
}

func NewHandler(
	q *portalqueries.Queries,
	sessions *session.Manager,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	tokenMaxAge time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Queries:     q,
		Sessions:    sessions,
		AuditLog:    audit,
		ErrLog:      errLog,
		Log:         logger,
		TokenMaxAge: tokenMaxAge,
	}
}

type signUpFormData struct {
	formutil.Base
	Email string
}

func (h *Handler) renderSignUp(w http.ResponseWriter, r *http.Request, status int, data signUpFormData) {
	formutil.SetBase(&data.Base, r, "Sign up", "/")
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	templates.Render(w, r, "sign_up", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /sign-up                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignUp(w http.ResponseWriter, r *http.Request) {
	h.renderSignUp(w, r, http.StatusOK, signUpFormData{})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /sign-up                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignUpPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/sign-up")
		return
	}

	data := signUpFormData{Email: formutil.Trim(r, "email")}
	data.Errors = formutil.Errors{}
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	formutil.Email(data.Errors, "email", data.Email, "Please enter a valid email address")
	formutil.MinLen(data.Errors, "password", password, limits.PasswordMin, "Password must be at least 8 characters")
	if password != confirm {
		data.Errors.Add("confirmPassword", msgMismatch)
	}
	if data.Errors.Any() {
		h.renderSignUp(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Queries.SignUp(ctx, h.Sessions.For(w, r), authstore.Registration{
		Email:    data.Email,
		Password: password,
	}, h.TokenMaxAge)
	if err != nil {
		outcome := apiclient.Classify(err).String()
		h.AuditLog.SignUpFailed(r.Context(), r, data.Email, outcome)

		status := http.StatusBadGateway
		msg, ok := data.ApplyBackendError(err)
		if ok {
			status = http.StatusBadRequest
		} else {
			h.Log.Warn("sign-up failed", zap.String("outcome", outcome), zap.Error(err))
		}
		if msg == "" {
			msg = msgUnknown
		}
		data.SetError(msg)
		h.renderSignUp(w, r, status, data)
		return
	}

	h.AuditLog.SignUp(r.Context(), r, user.ID, data.Email)
	h.Log.Info("user signed up", zap.Int("user_id", user.ID))
	http.Redirect(w, r, auth.RegisterOrganizationPath, http.StatusSeeOther)
}
