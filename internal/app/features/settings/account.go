// internal/app/features/settings/account.go
package settings

import (
	"context"
	"net/http"

	authstore "github.com/dalemusser/fwsm/internal/app/store/auth"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"go.uber.org/zap"
)

const (
	msgPasswordChanged   = "Your password has been successfully changed."
	msgPasswordIncorrect = "The password is incorrect"
	msgPasswordMismatch  = "Passwords do not match"
)

type accountFormData struct {
	formutil.Base
}

func (h *Handler) renderAccount(w http.ResponseWriter, r *http.Request, status int, data accountFormData) {
	formutil.SetBase(&data.Base, r, "Edit your account settings", "/settings/profile")
	render(w, r, status, "settings_account", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /settings/account                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeAccount(w http.ResponseWriter, r *http.Request) {
	h.renderAccount(w, r, http.StatusOK, accountFormData{})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /settings/account                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/settings/account")
		return
	}

	pc := authstore.PasswordChange{
		CurrentPassword:      r.FormValue("currentPassword"),
		Password:             r.FormValue("password"),
		PasswordConfirmation: r.FormValue("confirmPassword"),
	}
	data := accountFormData{}
	data.Errors = formutil.Errors{}
	formutil.Required(data.Errors, "currentPassword", pc.CurrentPassword, "Please enter your current password")
	formutil.MinLen(data.Errors, "password", pc.Password, limits.PasswordMin, "Password must be at least 8 characters")
	if pc.Password != pc.PasswordConfirmation {
		data.Errors.Add("confirmPassword", msgPasswordMismatch)
	}
	if data.Errors.Any() {
		h.renderAccount(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	uid := userID(r)
	err := h.Queries.ChangePassword(ctx, h.Sessions.For(w, r), pc, h.TokenMaxAge)
	switch {
	case err == nil:
	case apiclient.IsKind(err, apiclient.KindIncorrectPassword):
		h.AuditLog.PasswordChangeFailed(r.Context(), r, uid, "incorrect_password")
		data.Errors.Add("currentPassword", msgPasswordIncorrect)
		h.renderAccount(w, r, http.StatusBadRequest, data)
		return
	case apiclient.Classify(err) == apiclient.OutcomeUnauthenticated,
		apiclient.IsKind(err, apiclient.KindUnauthorized):
		h.ErrLog.HandleBackendError(w, r, "change password failed", err, "/settings/account")
		return
	default:
		h.Log.Warn("change password failed", zap.Error(err))
		h.AuditLog.PasswordChangeFailed(r.Context(), r, uid, apiclient.Classify(err).String())
		data.SetError(msgUnknown)
		h.renderAccount(w, r, http.StatusBadGateway, data)
		return
	}

	h.AuditLog.PasswordChanged(r.Context(), r, uid)
	viewdata.Flash(r, msgPasswordChanged)
	http.Redirect(w, r, "/settings/account", http.StatusSeeOther)
}
