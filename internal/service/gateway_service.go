package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microservices-demo/internal/client"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	UserServiceUpstream    = "userService"
	ProductServiceUpstream = "productService"
)

var ErrUnknownUpstream = errors.New("unknown upstream")

var GatewayServiceTracer = otel.Tracer("GatewayService")

// Upstream is a backend the gateway routes to, addressed by static config.
type Upstream struct {
	Name    string
	BaseURL string
}

// GatewayService forwards requests verbatim. It holds no mutable state after
// construction.
type GatewayService struct {
	upstreams []Upstream
	clients   map[string]*client.HTTPClient
}

func NewGatewayService(timeout time.Duration, upstreams ...Upstream) *GatewayService {
	clients := make(map[string]*client.HTTPClient, len(upstreams))
	for _, u := range upstreams {
		clients[u.Name] = client.NewHTTPClient(u.BaseURL, timeout)
	}
	return &GatewayService{
		upstreams: upstreams,
		clients:   clients,
	}
}

func (s *GatewayService) Upstreams() []Upstream {
	out := make([]Upstream, len(s.upstreams))
	copy(out, s.upstreams)
	return out
}

func (s *GatewayService) client(name string) (*client.HTTPClient, error) {
	c, ok := s.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpstream, name)
	}
	return c, nil
}

// Forward sends method+path (path may include a query string) to the named
// upstream and returns its reply unparsed. Non-2xx replies are not errors.
func (s *GatewayService) Forward(ctx context.Context, upstream, method, path string, body []byte, headers map[string]string) (*client.Response[[]byte], error) {
	ctx, span := GatewayServiceTracer.Start(ctx, "GatewayService.Forward",
		trace.WithAttributes(
			attribute.String("gateway.upstream", upstream),
			attribute.String("gateway.method", method),
			attribute.String("gateway.path", path),
		),
	)
	defer span.End()

	c, err := s.client(upstream)
	if err != nil {
		return nil, err
	}

	opts := client.RequestOptions{
		Method:  method,
		URL:     path,
		Headers: headers,
		Context: ctx,
	}
	if len(body) > 0 {
		opts.Body = body
	}

	resp, err := c.Do(opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("forward to %s: %w", upstream, err)
	}
	return resp, nil
}
