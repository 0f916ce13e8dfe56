package bootstrap

import (
	"context"
	"locator-healer/internal/config"
	"locator-healer/internal/console"
	"locator-healer/internal/healing"
	"locator-healer/internal/ports"
	"locator-healer/internal/report"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func runConsole(
	lc fx.Lifecycle,
	consoleInterface *console.Interface,
	browser ports.BrowserManager,
	store *healing.Store,
	writer *report.Writer,
	conf *config.Config,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting self-healing locator console...")

			if err := browser.Launch(ctx); err != nil {
				logger.Error("Failed to launch browser", zap.Error(err))

				return err
			}

			if path := conf.HealingConfig.SnapshotPath; path != "" {
				if _, err := os.Stat(path); err == nil {
					snapshot, err := writer.LoadSnapshot(path)
					if err != nil {
						logger.Warn("Failed to load fingerprint snapshot", zap.Error(err))
					} else {
						store.ImportState(snapshot)
					}
				}
			}

			go func() {
				if err := consoleInterface.Start(); err != nil {
					logger.Error("Console interface error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down...")

			if path := conf.HealingConfig.SnapshotPath; path != "" {
				if err := writer.WriteSnapshot(store.ExportState(), path); err != nil {
					logger.Error("Failed to persist fingerprint snapshot", zap.Error(err))
				}
			}

			if err := consoleInterface.Stop(); err != nil {
				logger.Error("Failed to stop console", zap.Error(err))
			}

			if err := browser.Close(ctx); err != nil {
				logger.Error("Failed to close browser", zap.Error(err))
			}

			return nil
		},
	})
}
