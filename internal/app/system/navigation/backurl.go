// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/platform").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedPrefixes are paths a return URL must not start with. They keep
	// the sign-in flow from bouncing back into itself.
	ExcludedPrefixes []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string

	// PreserveQueryParam is an optional query parameter carried onto the
	// fallback URL, e.g. "sector" for the directory.
	PreserveQueryParam string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks the "return" query parameter, then the form value, rejects
// anything that is not a local path (open redirects), applies the prefix
// rules and falls back to opts.Fallback.
//
//	url := navigation.SafeBackURL(r, navigation.SignInReturn)
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}

	if ret != "" && allowed(ret, opts) {
		return ret
	}

	fallback := opts.Fallback
	if opts.PreserveQueryParam != "" {
		param := query.Get(r, opts.PreserveQueryParam)
		if param == "" {
			param = strings.TrimSpace(r.FormValue(opts.PreserveQueryParam))
		}
		if param != "" {
			sep := "?"
			if strings.Contains(fallback, "?") {
				sep = "&"
			}
			fallback += sep + opts.PreserveQueryParam + "=" + param
		}
	}
	return fallback
}

func allowed(ret string, opts BackURLOptions) bool {
	if !strings.HasPrefix(ret, "/") || strings.HasPrefix(ret, "//") {
		return false
	}
	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return false
	}
	for _, p := range opts.ExcludedPrefixes {
		if strings.HasPrefix(ret, p) {
			return false
		}
	}
	return true
}

// Common back URL configurations.
var (
	// SignInReturn is where a successful sign-in lands.
	SignInReturn = BackURLOptions{
		ExcludedPrefixes: []string{"/sign-in", "/sign-up", "/sign-out"},
		Fallback:         "/",
	}

	// PlatformBackURL is the back link of an organization profile.
	PlatformBackURL = BackURLOptions{
		AllowedPrefix:      "/platform",
		ExcludedPrefixes:   []string{"/platform/organization/"},
		Fallback:           "/platform",
		PreserveQueryParam: "sector",
	}
)
