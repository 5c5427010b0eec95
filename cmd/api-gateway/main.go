package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"microservices-demo/internal/app"
	handler "microservices-demo/internal/handler/http"
	"microservices-demo/internal/logger"
	"microservices-demo/internal/service"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, shutdown := app.Bootstrap(globalCtx, service.GatewayName, "5000")
	defer shutdown()

	gateway := service.NewGatewayService(cfg.UpstreamTimeout(),
		service.Upstream{Name: service.UserServiceUpstream, BaseURL: cfg.UserServiceURL},
		service.Upstream{Name: service.ProductServiceUpstream, BaseURL: cfg.ProductServiceURL},
	)
	for _, u := range gateway.Upstreams() {
		logger.Info(globalCtx, "Upstream registered", slog.String("name", u.Name), slog.String("url", u.BaseURL))
	}

	mux := http.NewServeMux()
	handler.NewGatewayHandler(gateway).Register(mux)
	handler.NewHealthHandler(service.NewHealthService(gateway)).Register(mux)

	if err := app.Run(globalCtx, cfg, mux); err != nil {
		logger.Error(globalCtx, "Server failed", slog.String("error", err.Error()))
		shutdown()
		os.Exit(1)
	}
}
