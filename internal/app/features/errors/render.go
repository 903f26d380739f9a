// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Status    int
	Heading   string
	Message   string
	Reference string // shown so users can quote it; matches the log entry
	RetryURL  string
}

func render(w http.ResponseWriter, r *http.Request, status int, vm pageData) {
	vm.Status = status
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", vm)
}

// RenderNotFound shows a friendly "not found" page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "The page you are looking for does not exist."
	}
	vm := pageData{BaseVM: viewdata.NewBaseVM(r, "Not found", backOr(r, backURL)), Heading: "Not found", Message: msg}
	render(w, r, http.StatusNotFound, vm)
}

// RenderForbidden shows a friendly access error page with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	vm := pageData{BaseVM: viewdata.NewBaseVM(r, "Access denied", backOr(r, backURL)), Heading: "Access denied", Message: msg}
	render(w, r, http.StatusForbidden, vm)
}

// RenderBadRequest shows a page for a request the backend or the portal
// refused.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	vm := pageData{BaseVM: viewdata.NewBaseVM(r, "Something went wrong", backOr(r, backURL)), Heading: "Something went wrong", Message: msg}
	render(w, r, http.StatusBadRequest, vm)
}

// RenderServerError shows the generic failure page with a reference id.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, ref, backURL string) {
	if msg == "" {
		msg = "Something went wrong. Please try again later."
	}
	vm := pageData{
		BaseVM:    viewdata.NewBaseVM(r, "Something went wrong", backOr(r, backURL)),
		Heading:   "Something went wrong",
		Message:   msg,
		Reference: ref,
	}
	render(w, r, http.StatusInternalServerError, vm)
}

// RenderUnavailable shows the retryable "service unavailable" page used
// when the backend cannot be reached.
func RenderUnavailable(w http.ResponseWriter, r *http.Request) {
	vm := pageData{
		BaseVM:   viewdata.NewBaseVM(r, "Service unavailable", "/"),
		Heading:  "We can't reach the directory right now",
		Message:  "Please try again in a moment.",
		RetryURL: httpnav.CurrentPath(r),
	}
	render(w, r, http.StatusBadGateway, vm)
}

func backOr(r *http.Request, backURL string) string {
	if backURL != "" {
		return backURL
	}
	return httpnav.ResolveBackURL(r, "/")
}
