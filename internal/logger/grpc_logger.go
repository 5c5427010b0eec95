package logger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Zero values are kept so an empty health check service name still shows up.
var protoJSON = protojson.MarshalOptions{UseProtoNames: true, EmitUnpopulated: true}

// splitMethod turns "/grpc.health.v1.Health/Check" into its service and method.
func splitMethod(fullMethod string) (service, method string) {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i], trimmed[i+1:]
	}
	return "", trimmed
}

func rpcAttrs(fullMethod, direction string) []slog.Attr {
	service, method := splitMethod(fullMethod)
	return []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.service", service),
		slog.String("grpc.method", method),
	}
}

// MetadataAttrs applies the HTTP header allow-list and masking to gRPC metadata.
func MetadataAttrs(md metadata.MD) []slog.Attr {
	return headerAttrs("grpc.header.", md)
}

func messageAttrs(prefix string, m any) []slog.Attr {
	switch v := m.(type) {
	case nil:
		return nil
	case proto.Message:
		if b, err := protoJSON.Marshal(v); err == nil {
			return jsonAttrs(prefix, b)
		}
	}
	return []slog.Attr{slog.String(prefix, redact(prefix, fmt.Sprint(m)))}
}

func LogGRPCRequest(fullMethod string, md metadata.MD, req any, direction string) []slog.Attr {
	attrs := rpcAttrs(fullMethod, direction)
	attrs = append(attrs, MetadataAttrs(md)...)
	return append(attrs, messageAttrs("grpc.request", req)...)
}

// LogGRPCResponse uses the same duration_ms key as HTTP responses.
func LogGRPCResponse(fullMethod string, code codes.Code, resp any, duration time.Duration, direction string) []slog.Attr {
	attrs := append(rpcAttrs(fullMethod, direction),
		slog.String("grpc.code", code.String()),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)
	return append(attrs, messageAttrs("grpc.response", resp)...)
}
