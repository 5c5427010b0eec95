package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"microservices-demo/internal/app"
	"microservices-demo/internal/client"
	"microservices-demo/internal/logger"
	"microservices-demo/internal/model"
	"microservices-demo/internal/service"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, shutdown := app.Bootstrap(globalCtx, "GatewayClient", "0")
	defer shutdown()

	logger.Info(globalCtx, "HTTP client started",
		slog.String("target", cfg.GatewayURL),
		slog.Int64("delay_ms", cfg.ClientDelayMs),
	)

	gw := client.NewHTTPClient(cfg.GatewayURL, 2*time.Second)

	for {
		poll(globalCtx, gw)

		select {
		case <-globalCtx.Done():
			logger.Info(context.Background(), "HTTP client stopped")
			return
		case <-time.After(cfg.ClientDelay()):
		}
	}
}

func poll(ctx context.Context, gw *client.HTTPClient) {
	health, err := client.DoJSON[service.GatewayHealth](gw, client.RequestOptions{Method: http.MethodGet, URL: "/health", Context: ctx})
	if err != nil {
		logger.Error(ctx, "Failed to request health", slog.String("error", err.Error()))
		return
	}
	logger.Info(ctx, "Received health",
		slog.String("status", health.Data.Status),
		slog.Any("services", health.Data.Services),
	)

	users, err := client.DoJSON[[]model.User](gw, client.RequestOptions{Method: http.MethodGet, URL: "/api/users", Context: ctx})
	if err != nil {
		logger.Error(ctx, "Failed to request users", slog.String("error", err.Error()))
	} else {
		logger.Info(ctx, "Received users", slog.Int("status", users.StatusCode), slog.Int("count", len(users.Data)))
	}

	products, err := client.DoJSON[[]model.Product](gw, client.RequestOptions{Method: http.MethodGet, URL: "/api/products", Context: ctx})
	if err != nil {
		logger.Error(ctx, "Failed to request products", slog.String("error", err.Error()))
	} else {
		logger.Info(ctx, "Received products", slog.Int("status", products.StatusCode), slog.Int("count", len(products.Data)))
	}
}
