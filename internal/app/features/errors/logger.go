// internal/app/features/errors/logger.go
package errors

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures and renders the matching page. Every
// server error gets a reference id that appears both in the log and on the
// page.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}

// LogServerError logs err with a new reference id and renders the generic
// failure page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	ref := uuid.NewString()
	e.Log.Error(msg, append(e.fields(r, err), zap.String("ref", ref))...)
	RenderServerError(w, r, userMsg, ref, backURL)
}

// LogBadRequest logs at warn level and renders a 400 page with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	RenderBadRequest(w, r, userMsg, backURL)
}

// HTMXLogServerError logs err and answers an HTMX partial request with a
// short plain-text message that the page shows inline.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	ref := uuid.NewString()
	e.Log.Error(msg, append(e.fields(r, err), zap.String("ref", ref))...)
	if userMsg == "" {
		userMsg = "Something went wrong."
	}
	http.Error(w, userMsg+" (ref "+ref+")", http.StatusInternalServerError)
}

// HandleBackendError maps a backend failure to a response:
//   - not signed in or token rejected: redirect to sign-in
//   - unreachable backend or backend 5xx: retryable 502 page
//   - 404: not found page
//   - 403: access denied page
//   - other rejections: the backend message on a 400 page
//   - unexpected response shape: logged server error with reference id
func (e *ErrorLogger) HandleBackendError(w http.ResponseWriter, r *http.Request, msg string, err error, backURL string) {
	switch apiclient.Classify(err) {
	case apiclient.OutcomeOK:
		return
	case apiclient.OutcomeUnauthenticated:
		e.redirectToSignIn(w, r)
		return
	case apiclient.OutcomeNetwork:
		e.Log.Warn(msg, e.fields(r, err)...)
		e.unavailable(w, r)
		return
	case apiclient.OutcomeDomain:
		de, _ := apiclient.AsDomain(err)
		switch de.Kind {
		case apiclient.KindUnauthorized:
			e.redirectToSignIn(w, r)
		case apiclient.KindNotFound:
			RenderNotFound(w, r, "", backURL)
		case apiclient.KindForbidden:
			RenderForbidden(w, r, "", backURL)
		case apiclient.KindServer, apiclient.KindRateLimited:
			e.Log.Warn(msg, append(e.fields(r, err), zap.Int("status", de.Status))...)
			e.unavailable(w, r)
		default:
			userMsg := de.Message
			if userMsg == "" {
				userMsg = "An unknown error occured"
			}
			e.LogBadRequest(w, r, msg, err, userMsg, backURL)
		}
		return
	default:
		e.LogServerError(w, r, msg, err, "", backURL)
	}
}

// BackendError is HandleBackendError with a generic message, for use as a
// middleware error callback.
func (e *ErrorLogger) BackendError(w http.ResponseWriter, r *http.Request, err error) {
	e.HandleBackendError(w, r, "backend request failed", err, "/")
}

func (e *ErrorLogger) unavailable(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		http.Error(w, "The directory is unavailable. Please try again.", http.StatusBadGateway)
		return
	}
	RenderUnavailable(w, r)
}

func (e *ErrorLogger) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	dest := auth.SignInPath + "?return=" + url.QueryEscape(httpnav.CurrentPath(r))
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
