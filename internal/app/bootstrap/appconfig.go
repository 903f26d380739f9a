// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and the environment name; everything the portal
// needs to reach the content backend and keep visitors signed in lives here.
type AppConfig struct {
	SiteName string // shown in the header and page titles

	// Content backend
	APIURL     string        // base URL of the REST backend, e.g. https://cms.example.org/api
	APITimeout time.Duration // per-request ceiling on the HTTP client

	// Handler deadlines on backend calls (zero keeps the default)
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutUpload time.Duration

	// Token cookie
	TokenCookie    string        // cookie name holding the backend token
	TokenMaxAge    time.Duration // lifetime of the token cookie
	CookieHashKey  string        // HMAC key for the token cookie (≥ 32 bytes)
	CookieBlockKey string        // AES key for the token cookie (blank disables encryption)

	// Flash messages
	SessionKey    string // signing key for the flash cookie
	SessionName   string // flash cookie name
	SessionDomain string // cookie domain (blank means current host)

	CSRFKey string // 32-byte key for gorilla/csrf

	// Query cache
	CacheTTL        time.Duration
	CacheFailureTTL time.Duration
	CacheMaxEntries int
	WarmCache       bool // prefetch sectors and the home page on startup

	// Uploads
	UploadMaxBytes  int64
	UploadMaxImages int

	// Optional MongoDB for the audit trail. Blank URI keeps audit events in
	// the log only.
	MongoURI      string
	MongoDatabase string

	// Audit logging
	AuditLogAuth  string // "all", "db", "log" or "off"
	AuditLogAdmin string

	// Sign-in throttling
	SignInRateLimit  int
	SignInRateWindow time.Duration
}

