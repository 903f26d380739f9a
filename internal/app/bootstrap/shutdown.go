// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if stopWarming != nil {
		stopWarming()
	}
	if signInLimiter != nil {
		signInLimiter.Close()
	}
	if deps.AuditMongoClient != nil {
		logger.Info("disconnecting audit MongoDB client")
		if err := deps.AuditMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
