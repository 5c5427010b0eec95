package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewHealthServer reports SERVING for the empty (server-wide) name and for each
// given service name. It mirrors the HTTP /health endpoint, which is constant.
func NewHealthServer(names ...string) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, n := range names {
		hs.SetServingStatus(n, healthpb.HealthCheckResponse_SERVING)
	}
	return hs
}

// Register attaches the health service and server reflection to s.
func Register(s *grpc.Server, hs *health.Server) {
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
}
