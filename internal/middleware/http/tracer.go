package middleware_http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"microservices-demo/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("HttpMiddleware")

// ResponseWriter captures status, size and the first MaxBodyLogged bytes of the body.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	buf        bytes.Buffer
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	if rw.buf.Len() < logger.MaxBodyLogged {
		toCopy := logger.MaxBodyLogged - rw.buf.Len()
		if len(b) < toCopy {
			toCopy = len(b)
		}
		rw.buf.Write(b[:toCopy])
	}
	return n, err
}

func (rw *ResponseWriter) Status() int {
	return rw.statusCode
}

// TraceMiddleware starts a server span per request (continuing any incoming
// trace), exposes the trace id as X-Trace-ID and logs request and response.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.RequestURI()),
			),
		)
		defer func() {
			if rec := recover(); rec != nil {
				span.RecordError(fmt.Errorf("panic: %v", rec))
				span.SetStatus(codes.Error, "panic occurred")
				span.End()
				panic(rec)
			}
			span.End()
		}()

		r = r.WithContext(ctx)
		logger.Info(ctx, "HTTP", logger.LogHTTPRequest(r, "incoming::request")...)

		rw := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if span.SpanContext().HasTraceID() {
			rw.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		start := time.Now()
		next.ServeHTTP(rw, r)

		span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
		if rw.statusCode >= 500 {
			span.SetStatus(codes.Error, "internal server error")
		} else if rw.statusCode >= 400 {
			span.SetStatus(codes.Error, "client error")
		} else {
			span.SetStatus(codes.Ok, "")
		}

		attrs := logger.LogHTTPResponse(r, rw.Header(), rw.statusCode, rw.buf.Bytes(), time.Since(start), "incoming::response")
		logger.Info(ctx, "HTTP", attrs...)
	})
}
