// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/fwsm/internal/app/store/audit"
	"github.com/dalemusser/fwsm/internal/app/store/queries/portalqueries"
	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/app/system/auditlog"
	"github.com/dalemusser/fwsm/internal/app/system/countries"
	"github.com/dalemusser/fwsm/internal/app/system/querycache"
	"github.com/dalemusser/fwsm/internal/app/system/ratelimit"
	"github.com/dalemusser/fwsm/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// services are built once in Startup and shared with BuildHandler and
// Shutdown, which WAFFLE calls with the same config and deps.
type services struct {
	api     *apiclient.Client
	cache   *querycache.Cache
	queries *portalqueries.Queries
	audit   *auditlog.Logger
}

var (
	svc           *services
	signInLimiter *ratelimit.SignInLimiter
	stopWarming   context.CancelFunc
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the country list, builds the backend client and query cache, and starts
// warming the cache in the background when warm_cache is set.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := countries.Load(); err != nil {
		logger.Error("country list load failed", zap.Error(err))
		return err
	}
	timeouts.Configure(timeoutConfig(appCfg))
	logger.Info("backend timeouts", zap.Any("timeouts", timeouts.Current()))

	s, err := newServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	svc = s

	if appCfg.SignInRateLimit > 0 {
		signInLimiter = ratelimit.NewSignInLimiter(appCfg.SignInRateLimit, appCfg.SignInRateWindow)
	}

	if appCfg.WarmCache {
		var warmCtx context.Context
		warmCtx, stopWarming = context.WithCancel(context.WithoutCancel(ctx))
		go warmCache(warmCtx, s.queries, logger)
	}
	return nil
}

func timeoutConfig(appCfg AppConfig) timeouts.Config {
	return timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Upload: appCfg.TimeoutUpload,
	}
}

func newServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	api, err := apiclient.Open(appCfg.APIURL,
		apiclient.WithLogger(logger),
		apiclient.WithTimeout(appCfg.APITimeout),
	)
	if err != nil {
		logger.Error("backend client init failed", zap.Error(err))
		return nil, fmt.Errorf("backend client: %w", err)
	}

	cache := querycache.New(querycache.Config{
		TTL:        appCfg.CacheTTL,
		FailureTTL: appCfg.CacheFailureTTL,
		MaxEntries: appCfg.CacheMaxEntries,
		Logger:     logger,
	})

	var store *audit.Store
	if deps.AuditMongoDatabase != nil {
		store = audit.New(deps.AuditMongoDatabase)
	}

	return &services{
		api:     api,
		cache:   cache,
		queries: portalqueries.New(api, cache, logger),
		audit: auditlog.New(store, logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
	}, nil
}

// warmCache prefetches the reads every visitor triggers. A backend that is
// still starting is retried a few times. Startup runs it in the background.
func warmCache(ctx context.Context, q *portalqueries.Queries, logger *zap.Logger) {
	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    4 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	const attempts = 4
	for {
		err := warmOnce(ctx, q)
		if err == nil {
			logger.Info("query cache warmed", zap.Any("cache", q.Cache().Stats()))
			return
		}
		if int(b.Attempt())+1 >= attempts {
			logger.Warn("query cache warming gave up", zap.Float64("attempts", b.Attempt()+1), zap.Error(err))
			return
		}
		// A failed read is cached briefly; drop it so the retry reaches the backend.
		q.Cache().Invalidate(querycache.Sectors, querycache.HomePage)
		wait := b.Duration()
		logger.Info("query cache warming failed, retrying", zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func warmOnce(ctx context.Context, q *portalqueries.Queries) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := q.Sectors(gctx)
		return err
	})
	g.Go(func() error {
		_, err := q.Home(gctx)
		return err
	})
	return g.Wait()
}
