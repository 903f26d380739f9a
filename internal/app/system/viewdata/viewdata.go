// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown in the header and page titles.
const DefaultSiteName = "Food Waste Solution Map"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserID     int
	UserName   string
	UserEmail  string

	// Set on pages behind RequireOrganization.
	OrganizationID   int
	OrganizationName string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// Notices queued by the previous request (e.g. "Your profile has been
	// successfully updated").
	Flashes []string
}

var siteName = DefaultSiteName

// Init overrides the site name. Call once at startup from bootstrap.
func Init(name string) {
	if name != "" {
		siteName = name
	}
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    siteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}

	if u, ok := auth.CurrentUser(r); ok && u != nil {
		vm.IsLoggedIn = true
		vm.UserID = u.ID
		vm.UserName = u.Name
		vm.UserEmail = u.Email
	}
	if org, ok := auth.CurrentOrganization(r); ok {
		vm.OrganizationID = org.ID
		vm.OrganizationName = org.Attributes.Name
	}
	if s, ok := session.FromRequest(r); ok {
		vm.Flashes = s.Flashes()
	}
	return vm
}

// Flash queues msg for the next page rendered for this browser.
func Flash(r *http.Request, msg string) {
	if s, ok := session.FromRequest(r); ok {
		s.AddFlash(msg)
	}
}
