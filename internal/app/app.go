package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"microservices-demo/internal/config"
	grpcHandler "microservices-demo/internal/handler/grpc"
	"microservices-demo/internal/logger"
	middleware_grpc "microservices-demo/internal/middleware/grpc"
	middleware_http "microservices-demo/internal/middleware/http"

	"github.com/justinas/alice"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Handler wraps mux with the middleware every service shares.
func Handler(mux http.Handler) http.Handler {
	return alice.New(middleware_http.RequestID, middleware_http.TraceMiddleware).Then(mux)
}

// Run serves mux on APP_PORT, plus a gRPC health endpoint on GRPC_PORT when
// set, until ctx is cancelled. Both servers are drained on the way out.
func Run(ctx context.Context, cfg *config.Config, mux http.Handler) error {
	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	var grpcServer *grpc.Server
	var grpcLis net.Listener
	var healthServer *health.Server
	if cfg.GrpcPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.GrpcPort, err)
		}
		grpcLis = lis
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()))
		healthServer = grpcHandler.NewHealthServer(cfg.AppName)
		grpcHandler.Register(grpcServer, healthServer)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(ctx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			logger.Info(ctx, "gRPC server running", slog.String("addr", grpcLis.Addr().String()))
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve grpc: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down", slog.String("app", cfg.AppName))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		var shutdownErr error
		if grpcServer != nil {
			// Watchers see NOT_SERVING before their streams are cut.
			healthServer.Shutdown()
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("shutdown http: %w", err)
		}
		if grpcServer != nil {
			stopGRPC(shutdownCtx, grpcServer)
		}
		if shutdownErr != nil {
			return shutdownErr
		}
		logger.Info(context.Background(), "Server exited cleanly", slog.String("app", cfg.AppName))
		return nil
	})

	return g.Wait()
}

// stopGRPC drains in-flight RPCs until ctx expires, then closes whatever is
// left. Long-lived streams such as health Watch never drain on their own.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn(context.Background(), "gRPC drain timed out, closing open streams")
		s.Stop()
		<-stopped
	}
}
