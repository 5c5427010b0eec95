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
	"microservices-demo/internal/model"
	"microservices-demo/internal/service"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, shutdown := app.Bootstrap(globalCtx, "ProductService", "5002")
	defer shutdown()

	res := &app.Resources{}
	defer res.Close(context.Background())

	// Wiring
	store, err := app.NewStore(globalCtx, cfg, res, "products", model.SeedProducts())
	if err != nil {
		logger.Error(globalCtx, "Failed to initialise store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	productService := service.NewProductService(store, app.NewPublisher(globalCtx, cfg, res))

	mux := http.NewServeMux()
	handler.NewEntityHandler(productService, "products").Register(mux)

	if err := app.Run(globalCtx, cfg, mux); err != nil {
		logger.Error(globalCtx, "Server failed", slog.String("error", err.Error()))
		res.Close(context.Background())
		shutdown()
		os.Exit(1)
	}
}
