// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	uploadstore "github.com/dalemusser/fwsm/internal/app/store/uploads"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devCookieHashKey = "dev-only-change-me-please-0123456789ABCDEF"
	devSessionKey    = "dev-only-flash-key-change-me-0123456789AB"
	devCSRFKey       = "dev-only-csrf-key-change-me-0123"
)

// appConfigKeys defines the configuration keys for the portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_url, token_cookie, etc.
//   - Environment variables: FWSM_API_URL, FWSM_TOKEN_COOKIE, etc.
//   - Command-line flags: --api_url, --token_cookie, etc.
var appConfigKeys = []config.AppKey{
	{Name: "site_name", Default: viewdata.DefaultSiteName, Desc: "Site name shown in the header and page titles"},

	{Name: "api_url", Default: "http://localhost:1337/api", Desc: "Base URL of the content backend REST API"},
	{Name: "api_timeout", Default: "15s", Desc: "HTTP client timeout for backend requests"},

	// Handler deadlines
	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for health checks"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single reads and sign-in"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list pages and composed page loads"},
	{Name: "timeout_upload", Default: "60s", Desc: "Deadline for image uploads"},

	// Token cookie
	{Name: "token_cookie", Default: "fwsm-token", Desc: "Name of the cookie holding the backend token"},
	{Name: "token_max_age", Default: "720h", Desc: "Lifetime of the token cookie (e.g., 720h)"},
	{Name: "cookie_hash_key", Default: devCookieHashKey, Desc: "Token cookie signing key, at least 32 bytes (must be strong in production)"},
	{Name: "cookie_block_key", Default: "", Desc: "Token cookie encryption key, 16/24/32 bytes (blank disables encryption)"},

	// Flash messages
	{Name: "session_key", Default: devSessionKey, Desc: "Flash cookie signing key (must be strong in production)"},
	{Name: "session_name", Default: "fwsm-flash", Desc: "Flash cookie name"},
	{Name: "session_domain", Default: "", Desc: "Cookie domain (blank means current host)"},

	{Name: "csrf_key", Default: devCSRFKey, Desc: "CSRF token key, exactly 32 bytes"},

	// Query cache
	{Name: "cache_ttl", Default: "5m", Desc: "Lifetime of cached backend reads"},
	{Name: "cache_failure_ttl", Default: "0s", Desc: "Lifetime of a cached backend failure (0 retries on the next page view)"},
	{Name: "cache_max_entries", Default: 1000, Desc: "Maximum number of cached backend reads"},
	{Name: "warm_cache", Default: true, Desc: "Prefetch sectors and the home page on startup"},

	// Uploads
	{Name: "upload_max_bytes", Default: uploadstore.DefaultMaxBytes, Desc: "Maximum size of one uploaded image in bytes"},
	{Name: "upload_max_images", Default: uploadstore.DefaultMaxImages, Desc: "Maximum number of product images per organization"},

	// Optional audit store
	{Name: "mongo_uri", Default: "", Desc: "MongoDB URI for the audit trail (blank keeps audit events in the log only)"},
	{Name: "mongo_database", Default: "fwsm", Desc: "MongoDB database name"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Organization event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Sign-in throttling
	{Name: "signin_rate_limit", Default: 10, Desc: "Sign-in attempts allowed per client IP and window (0 disables)"},
	{Name: "signin_rate_window", Default: "15m", Desc: "Sign-in throttling window"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, FWSM_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FWSM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		SiteName: appValues.String("site_name"),

		APIURL:     appValues.String("api_url"),
		APITimeout: appValues.Duration("api_timeout", 15*time.Second),

		// Handler deadlines
		TimeoutPing:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutUpload: appValues.Duration("timeout_upload", timeouts.DefaultUpload),

		// Token cookie
		TokenCookie:    appValues.String("token_cookie"),
		TokenMaxAge:    appValues.Duration("token_max_age", 30*24*time.Hour),
		CookieHashKey:  appValues.String("cookie_hash_key"),
		CookieBlockKey: appValues.String("cookie_block_key"),

		// Flash messages
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		CSRFKey: appValues.String("csrf_key"),

		// Query cache
		CacheTTL:        appValues.Duration("cache_ttl", 5*time.Minute),
		CacheFailureTTL: appValues.Duration("cache_failure_ttl", 0),
		CacheMaxEntries: appValues.Int("cache_max_entries"),
		WarmCache:       appValues.Bool("warm_cache"),

		// Uploads
		UploadMaxBytes:  int64(appValues.Int("upload_max_bytes")),
		UploadMaxImages: appValues.Int("upload_max_images"),

		// Audit store
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		// Sign-in throttling
		SignInRateLimit:  appValues.Int("signin_rate_limit"),
		SignInRateWindow: appValues.Duration("signin_rate_window", 15*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The backend URL must be an absolute http(s) URL. In production the
// development keys are refused and every key must have a usable length.
// The MongoDB URI is only checked when one is configured.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateAPIURL(appCfg.APIURL); err != nil {
		logger.Error("invalid api_url", zap.String("api_url", appCfg.APIURL), zap.Error(err))
		return err
	}

	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}

	if len(appCfg.CSRFKey) != 32 {
		return fmt.Errorf("csrf_key must be exactly 32 bytes, got %d", len(appCfg.CSRFKey))
	}
	switch len(appCfg.CookieBlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("cookie_block_key must be 16, 24 or 32 bytes, got %d", len(appCfg.CookieBlockKey))
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.CookieHashKey) < 32 || appCfg.CookieHashKey == devCookieHashKey {
			return fmt.Errorf("cookie_hash_key must be set to a strong value of at least 32 bytes in production")
		}
		if len(appCfg.SessionKey) < 32 || appCfg.SessionKey == devSessionKey {
			return fmt.Errorf("session_key must be set to a strong value of at least 32 bytes in production")
		}
		if appCfg.CSRFKey == devCSRFKey {
			return fmt.Errorf("csrf_key must be changed in production")
		}
	}

	return nil
}

func validateAPIURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("api_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}
