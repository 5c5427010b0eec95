package service

import (
	"context"
	"log/slog"

	"microservices-demo/internal/logger"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const (
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	GatewayName = "ApiGateway"
)

var HealthServiceTracer = otel.Tracer("HealthService")

// UpstreamStatus is the outcome of one upstream health check. Err holds a
// transport failure; StatusCode is set when the upstream answered.
type UpstreamStatus struct {
	Upstream   string
	StatusCode int
	Err        error
}

func (u UpstreamStatus) Healthy() bool {
	return u.Err == nil && u.StatusCode >= 200 && u.StatusCode < 300
}

func (u UpstreamStatus) Status() string {
	if u.Healthy() {
		return StatusHealthy
	}
	return StatusUnhealthy
}

type GatewayHealth struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Services map[string]string `json:"services"`
}

// HealthService derives the gateway's composite health from its upstreams.
type HealthService struct {
	gateway *GatewayService
}

func NewHealthService(gateway *GatewayService) *HealthService {
	return &HealthService{
		gateway: gateway,
	}
}

// CheckUpstream calls GET {upstream}/health. It never returns an error;
// failures are recorded in the result.
func (s *HealthService) CheckUpstream(ctx context.Context, upstream Upstream) UpstreamStatus {
	result := UpstreamStatus{Upstream: upstream.Name}

	resp, err := s.gateway.Forward(ctx, upstream.Name, "GET", "/health", nil, nil)
	if err != nil {
		result.Err = err
		return result
	}
	result.StatusCode = resp.StatusCode
	return result
}

// Check queries every upstream concurrently and waits for all of them.
func (s *HealthService) Check(ctx context.Context) GatewayHealth {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()

	upstreams := s.gateway.Upstreams()
	results := make([]UpstreamStatus, len(upstreams))

	var g errgroup.Group
	for i, u := range upstreams {
		g.Go(func() error {
			results[i] = s.CheckUpstream(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	health := Aggregate(results)
	for _, r := range results {
		if !r.Healthy() {
			attrs := []slog.Attr{slog.String("upstream", r.Upstream), slog.Int("status", r.StatusCode)}
			if r.Err != nil {
				attrs = append(attrs, slog.String("error", r.Err.Error()))
			}
			logger.Warn(ctx, "Upstream unhealthy", attrs...)
		}
	}
	return health
}

// Aggregate is healthy only when every upstream is healthy.
func Aggregate(results []UpstreamStatus) GatewayHealth {
	health := GatewayHealth{
		Status:   StatusHealthy,
		Service:  GatewayName,
		Services: make(map[string]string, len(results)),
	}
	for _, r := range results {
		health.Services[r.Upstream] = r.Status()
		if !r.Healthy() {
			health.Status = StatusDegraded
		}
	}
	return health
}
