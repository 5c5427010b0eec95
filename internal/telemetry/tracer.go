package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"microservices-demo/internal/config"
	"microservices-demo/internal/logger"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}()

// Init installs the global tracer provider and propagators and starts the
// Pyroscope agent when configured. The returned func flushes and stops both.
func Init(ctx context.Context, cfg *config.Config) (func(), error) {
	log := logger.Instance()

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return func() {}, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			attribute.String("env", cfg.Env),
		),
	)
	if err != nil {
		return func() {}, fmt.Errorf("create resource: %w", err)
	}

	opts := []trace.TracerProviderOption{trace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(opts...)

	// Set tracer provider WITH pyroscope attached
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry Tracer initialized", slog.Bool("exporting", exporter != nil))

	var profiler *pyroscope.Profiler
	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"env": cfg.Env},
		})
		if err != nil {
			log.Error("Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			log.Info("Pyroscope started successfully")
		}
	}

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", slog.String("error", err.Error()))
		}
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", slog.String("error", err.Error()))
			}
		}
	}, nil
}

// newExporter prefers OTLP over gRPC, then stdout. nil means spans are
// created (for log correlation) but not exported.
func newExporter(ctx context.Context, cfg *config.Config) (trace.SpanExporter, error) {
	switch {
	case cfg.RemoteTraceRpcURI != "":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		return exp, nil
	case cfg.TraceStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, nil
	}
}
