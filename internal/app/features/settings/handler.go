// internal/app/features/settings/handler.go
package settings

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/fwsm/internal/app/features/errors"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	uploadstore "github.com/dalemusser/fwsm/internal/app/store/uploads"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/auditlog"
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/fwsm/internal/app/system/formutil"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const msgUnknown = "An unknown error occured. Please try again shortly."

// UploadConfig bounds the logo and gallery uploads.
type UploadConfig struct {
	MaxBytes  int64
	MaxImages int
}

// Handler owns the signed-in organization's settings pages. Every route is
// mounted behind RequireSignedIn and RequireOrganization.
type Handler struct {
	Queries     *portalqueries.Queries
	Sessions    *session.Manager
	AuditLog    *auditlog.Logger
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
	Uploads     UploadConfig
	TokenMaxAge time.Duration
}

func NewHandler(
	q *portalqueries.Queries,
	sessions *session.Manager,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	uploads UploadConfig,
	tokenMaxAge time.Duration,
	logger *zap.Logger,
) *Handler {
	if uploads.MaxBytes <= 0 {
		uploads.MaxBytes = uploadstore.DefaultMaxBytes
	}
	if uploads.MaxImages <= 0 {
		uploads.MaxImages = uploadstore.DefaultMaxImages
	}
	return &Handler{
		Queries:     q,
		Sessions:    sessions,
		AuditLog:    audit,
		ErrLog:      errLog,
		Log:         logger,
		Uploads:     uploads,
		TokenMaxAge: tokenMaxAge,
	}
}

// organization returns the organization RequireOrganization loaded. Without
// one the user is sent to registration and ok is false.
func organization(w http.ResponseWriter, r *http.Request) (*models.OrganizationProfile, bool) {
	org, ok := auth.CurrentOrganization(r)
	if !ok {
		http.Redirect(w, r, auth.RegisterOrganizationPath, http.StatusSeeOther)
		return nil, false
	}
	return org, true
}

func userID(r *http.Request) int {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return 0
}

// render writes status before rendering so failed submissions keep their
// status code.
func render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	templates.Render(w, r, name, data)
}

// rejected puts a backend validation error onto the form. Other failures are
// left to the error logger.
func rejected(err error, b *formutil.Base) bool {
	if !apiclient.IsKind(err, apiclient.KindValidation) {
		return false
	}
	msg, _ := b.ApplyBackendError(err)
	if msg == "" {
		msg = msgUnknown
	}
	b.SetError(msg)
	return true
}
