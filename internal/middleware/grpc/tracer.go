package middleware_grpc

import (
	"context"
	"log/slog"
	"time"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("GrpcMiddleware")

func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.GetTextMapPropagator().Extract(ctx, telemetry.MetadataTextMapCarrier(md.Copy()))

		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if ids := md.Get("x-request-id"); len(ids) > 0 {
			ctx = logger.ContextWithRequestID(ctx, ids[0])
		}

		var remoteAddr string
		if p, ok := peer.FromContext(ctx); ok {
			remoteAddr = p.Addr.String()
		}
		span.SetAttributes(
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("net.peer.addr", remoteAddr),
		)

		reqAttrs := logger.LogGRPCRequest(info.FullMethod, md, req, "incoming::request")
		logger.Info(ctx, "GRPC", append(reqAttrs, slog.String("grpc.remote", remoteAddr))...)

		start := time.Now()
		resp, err = handler(ctx, req)

		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(info.FullMethod, code, resp, time.Since(start), "incoming::response")...)
		return resp, err
	}
}
