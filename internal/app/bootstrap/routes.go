// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	aboutfeature "github.com/dalemusser/fwsm/internal/app/features/about"
	errorsfeature "github.com/dalemusser/fwsm/internal/app/features/errors"
	healthfeature "github.com/dalemusser/fwsm/internal/app/features/health"
	homefeature "github.com/dalemusser/fwsm/internal/app/features/home"
	loginfeature "github.com/dalemusser/fwsm/internal/app/features/login"
	logoutfeature "github.com/dalemusser/fwsm/internal/app/features/logout"
	platformfeature "github.com/dalemusser/fwsm/internal/app/features/platform"
	settingsfeature "github.com/dalemusser/fwsm/internal/app/features/settings"
	_ "github.com/dalemusser/fwsm/internal/app/features/shared/views"
	signupfeature "github.com/dalemusser/fwsm/internal/app/features/signup"
	themesfeature "github.com/dalemusser/fwsm/internal/app/features/themes"
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/dalemusser/fwsm/internal/app/system/limits"
	"github.com/dalemusser/fwsm/internal/app/system/session"
	"github.com/dalemusser/fwsm/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It boots the template engine, installs
// the request-wide middleware (CSRF, cookies, current user) and mounts the
// feature routers: the public pages, the directory, the auth flows and the
// organization settings.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		s, err := newServices(appCfg, deps, logger)
		if err != nil {
			return nil, err
		}
		svc = s
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := session.NewManager(session.Config{
		CookieName: appCfg.TokenCookie,
		MaxAge:     appCfg.TokenMaxAge,
		HashKey:    []byte(appCfg.CookieHashKey),
		BlockKey:   []byte(appCfg.CookieBlockKey),
		Domain:     appCfg.SessionDomain,
		Secure:     secure,
		FlashKey:   []byte(appCfg.SessionKey),
		FlashName:  appCfg.SessionName,
	}, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)
	viewdata.Init(appCfg.SiteName)

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	authMW := auth.NewMiddleware(sessionMgr, svc.queries, logger)
	authMW.OnError = errLog.BackendError

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators.
	// Mounted ahead of the cookie and CSRF middleware.
	healthHandler := healthfeature.NewHandler(svc.api, deps.AuditMongoClient, svc.cache, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(r chi.Router) {
		r.Use(requestGuards(appCfg, secure, logger)...)
		r.Use(sessionMgr.Middleware)

		// Global auth middleware: resolves the token cookie into the current
		// user, available to all handlers via auth.CurrentUser(r).
		r.Use(authMW.LoadSessionUser)

		// Public pages
		homeHandler := homefeature.NewHandler(svc.queries, errLog, logger)
		r.Mount("/", homefeature.Routes(homeHandler))

		aboutHandler := aboutfeature.NewHandler(svc.queries, errLog, logger)
		r.Mount("/about", aboutfeature.Routes(aboutHandler))

		themesHandler := themesfeature.NewHandler(svc.queries, errLog, logger)
		r.Mount("/themes", themesfeature.Routes(themesHandler))

		// Organization directory and profiles
		platformHandler := platformfeature.NewHandler(svc.queries, errLog, logger)
		r.Mount("/platform", platformfeature.Routes(platformHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(svc.queries, sessionMgr, signInLimiter, svc.audit, errLog, appCfg.TokenMaxAge, logger)
		r.Mount(auth.SignInPath, loginfeature.Routes(loginHandler))

		signupHandler := signupfeature.NewHandler(svc.queries, sessionMgr, svc.audit, errLog, appCfg.TokenMaxAge, logger)
		r.Mount("/sign-up", signupfeature.Routes(signupHandler, authMW))

		logoutHandler := logoutfeature.NewHandler(svc.queries, sessionMgr, svc.audit, logger)
		r.Mount("/sign-out", logoutfeature.Routes(logoutHandler))

		// Organization settings
		settingsHandler := settingsfeature.NewHandler(svc.queries, sessionMgr, svc.audit, errLog,
			settingsfeature.UploadConfig{
				MaxBytes:  appCfg.UploadMaxBytes,
				MaxImages: appCfg.UploadMaxImages,
			}, appCfg.TokenMaxAge, logger)
		r.Mount("/settings", settingsfeature.Routes(settingsHandler, authMW))

		// Error pages
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.NotFound(errorsHandler.NotFound)
	})

	return r, nil
}

// requestGuards run ahead of the cookie and auth middleware. The body cap
// comes first because the CSRF check parses the form, uploads included.
func requestGuards(appCfg AppConfig, secure bool, logger *zap.Logger) []func(http.Handler) http.Handler {
	guards := []func(http.Handler) http.Handler{middleware.RequestSize(maxRequestBody(appCfg))}
	if !secure {
		guards = append(guards, plaintextCSRF)
	}
	return append(guards, csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, "Your form has expired. Please reload the page and try again.", "/")
		})),
	))
}

// maxRequestBody is the largest body any route accepts: a full gallery
// upload, or the product form when that is larger.
func maxRequestBody(appCfg AppConfig) int64 {
	n := int64(appCfg.UploadMaxImages)*appCfg.UploadMaxBytes + limits.MaxFormSize
	if n < limits.MaxProductFormSize {
		n = limits.MaxProductFormSize
	}
	return n
}

// plaintextCSRF marks requests as plain HTTP so the CSRF origin check does
// not demand TLS during local development.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
