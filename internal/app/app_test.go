package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"microservices-demo/internal/config"
	"microservices-demo/internal/events"
	handler "microservices-demo/internal/handler/http"
	"microservices-demo/internal/logger"
	"microservices-demo/internal/model"
	"microservices-demo/internal/repository"
	"microservices-demo/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHandlerAddsRequestID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	Handler(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{AppName: "TestService", AppPort: "0", GrpcPort: "0", ShutdownTimeoutMs: 1000}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, http.NewServeMux()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHandlerForwardsLargeBodyIntact(t *testing.T) {
	var received atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := io.Copy(io.Discard, r.Body)
		received.Store(n)
		w.Header().Set("Location", "/api/users/4")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":4}`))
	}))
	t.Cleanup(upstream.Close)

	gw := service.NewGatewayService(0,
		service.Upstream{Name: service.UserServiceUpstream, BaseURL: upstream.URL},
		service.Upstream{Name: service.ProductServiceUpstream, BaseURL: upstream.URL},
	)
	mux := http.NewServeMux()
	handler.NewGatewayHandler(gw).Register(mux)

	payload := `{"name":"` + strings.Repeat("a", 2*logger.MaxBodyLogged) + `","email":"big@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	Handler(mux).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/api/users/4", rr.Header().Get("Location"))
	assert.EqualValues(t, len(payload), received.Load())
}

func freePort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return strconv.Itoa(port)
}

func TestRunStopsWithOpenHealthWatch(t *testing.T) {
	grpcPort := freePort(t)
	cfg := &config.Config{AppName: "TestService", AppPort: "0", GrpcPort: grpcPort, ShutdownTimeoutMs: 500}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, http.NewServeMux()) }()

	conn, err := grpc.NewClient("127.0.0.1:"+grpcPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)
	var stream healthpb.Health_WatchClient
	require.Eventually(t, func() bool {
		s, err := client.Watch(context.Background(), &healthpb.HealthCheckRequest{Service: "TestService"})
		if err != nil {
			return false
		}
		first, err := s.Recv()
		if err != nil {
			return false
		}
		stream = s
		return first.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 3*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return with a health watch open")
	}

	// The watcher is told before the stream is cut, or the stream ends.
	next, err := stream.Recv()
	if err == nil {
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, next.GetStatus())
	}
}

func TestNewStoreMemory(t *testing.T) {
	res := &Resources{}
	store, err := NewStore(context.Background(), &config.Config{StoreBackend: config.StoreMemory}, res, "users", model.SeedUsers())
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryStore[model.User]{}, store)

	users, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore(context.Background(), &config.Config{StoreBackend: "redis"}, &Resources{}, "users", model.SeedUsers())
	assert.Error(t, err)
}

func TestNewPublisherWithoutBroker(t *testing.T) {
	pub := NewPublisher(context.Background(), &config.Config{}, &Resources{})
	assert.IsType(t, events.NopPublisher{}, pub)
}

func TestResourcesCloseReverseOrder(t *testing.T) {
	var order []int
	res := &Resources{}
	res.add(func(context.Context) { order = append(order, 1) })
	res.add(func(context.Context) { order = append(order, 2) })

	res.Close(context.Background())
	res.Close(context.Background())

	assert.Equal(t, []int{2, 1}, order)
}
