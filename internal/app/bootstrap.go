package app

import (
	"context"
	"log/slog"

	"microservices-demo/internal/config"
	"microservices-demo/internal/logger"
	"microservices-demo/internal/telemetry"
	"microservices-demo/internal/version"
)

// Bootstrap loads configuration, points remote logging at Loki and starts
// tracing and profiling. Call the returned func before exiting.
func Bootstrap(ctx context.Context, appName, appPort string) (*config.Config, func()) {
	logger.Instance()
	cfg := config.Instance(appName, appPort)
	logger.ConfigureRemote(cfg.RemoteLogHttpURI, cfg.AppName)

	logger.Info(ctx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
		slog.String("env", cfg.Env),
	)

	shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		logger.Warn(ctx, "Telemetry disabled", slog.String("error", err.Error()))
	}
	return cfg, shutdown
}
