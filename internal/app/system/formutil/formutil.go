// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form should be re-rendered with:
// - The user's previously entered values (echoed back)
// - A message per invalid field, plus an optional form-level error
// - All the context data needed for the form (dropdowns, etc.)
//
// Example usage:
//
//	type profileData struct {
//		formutil.Base
//		Name  string
//		Email string
//	}
//
//	data := profileData{Name: name, Email: email}
//	formutil.SetBase(&data.Base, r, "Profile", "/")
//	formutil.Required(data.Errors, "name", name, "Name is required")
//	if data.Errors.Any() {
//		templates.Render(w, r, "settings_profile", data)
//	}
package formutil

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// Errors maps a form field name to its message. The first message recorded
// for a field wins.
type Errors map[string]string

// Add records msg for field unless it already has one.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Any reports whether any field failed.
func (e Errors) Any() bool { return len(e) > 0 }

// Get returns the message for field, or "".
func (e Errors) Get(field string) string { return e[field] }

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	viewdata.BaseVM
	Error   string // form-level error, shown above the fields
	Success string // form-level confirmation
	Errors  Errors
}

// SetBase populates the common Base fields from the request.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
	if b.Errors == nil {
		b.Errors = Errors{}
	}
}

// SetError sets the form-level error message.
func (b *Base) SetError(msg string) {
	b.Error = msg
}

// ApplyBackendError copies field messages from a backend validation error
// onto b and returns the backend message. ok is false when err is not a
// backend rejection.
func (b *Base) ApplyBackendError(err error) (msg string, ok bool) {
	de, ok := apiclient.AsDomain(err)
	if !ok {
		return "", false
	}
	if b.Errors == nil {
		b.Errors = Errors{}
	}
	for field, m := range de.Fields {
		b.Errors.Add(field, m)
	}
	return de.Message, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reading values                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Trim returns the trimmed form value for key.
func Trim(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// Int parses the form value for key as a positive integer.
func Int(r *http.Request, key string) (int, bool) {
	return PositiveInt(Trim(r, key))
}

// PositiveInt parses s as an integer greater than zero.
func PositiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Optional returns nil for an empty string and &s otherwise.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/*─────────────────────────────────────────────────────────────────────────────*
| Validation                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Required records msg when v is empty.
func Required(errs Errors, field, v, msg string) bool {
	if v == "" {
		errs.Add(field, msg)
		return false
	}
	return true
}

// Email records msg when v is not a plain email address.
func Email(errs Errors, field, v, msg string) bool {
	if !ValidEmail(v) {
		errs.Add(field, msg)
		return false
	}
	return true
}

// ValidEmail reports whether v is a bare address such as a@b.example.
func ValidEmail(v string) bool {
	if v == "" || strings.ContainsAny(v, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	at := strings.LastIndexByte(v, '@')
	return at > 0 && strings.Contains(v[at+1:], ".")
}

// MinLen records msg when v has fewer than n characters.
func MinLen(errs Errors, field, v string, n int, msg string) bool {
	if utf8.RuneCountInString(v) < n {
		errs.Add(field, msg)
		return false
	}
	return true
}

// MaxLen records msg when v has more than n characters.
func MaxLen(errs Errors, field, v string, n int, msg string) bool {
	if utf8.RuneCountInString(v) > n {
		errs.Add(field, msg)
		return false
	}
	return true
}

// URL records msg when v is set and is not an absolute http(s) URL.
func URL(errs Errors, field, v, msg string) bool {
	if v != "" && !urlutil.IsValidAbsHTTPURL(v) {
		errs.Add(field, msg)
		return false
	}
	return true
}
