package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"microservices-demo/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayFixture struct {
	users    *httptest.Server
	products *httptest.Server
	mux      *http.ServeMux
}

func newGateway(t *testing.T, users, products http.Handler) *gatewayFixture {
	t.Helper()
	f := &gatewayFixture{
		users:    httptest.NewServer(users),
		products: httptest.NewServer(products),
	}
	t.Cleanup(f.users.Close)
	t.Cleanup(f.products.Close)

	gw := service.NewGatewayService(0,
		service.Upstream{Name: service.UserServiceUpstream, BaseURL: f.users.URL},
		service.Upstream{Name: service.ProductServiceUpstream, BaseURL: f.products.URL},
	)
	f.mux = http.NewServeMux()
	NewGatewayHandler(gw).Register(f.mux)
	NewHealthHandler(service.NewHealthService(gw)).Register(f.mux)
	return f
}

func TestGatewayRelaysList(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())

	rr := serve(f.mux, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	assert.Len(t, users, 3)
}

func TestGatewayRelaysBodyVerbatim(t *testing.T) {
	raw := `[ {"id":1,   "extra":"kept"} ]`
	products := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(raw))
	})
	f := newGateway(t, newUserMux(), products)

	rr := serve(f.mux, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, raw, rr.Body.String())
}

func TestGatewayGetByID(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())

	rr := serve(f.mux, http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"name":"Laptop","description":"High-performance laptop","price":999.99}`, rr.Body.String())
}

func TestGatewayGetByIDUpstream404(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())

	rr := serve(f.mux, http.MethodGet, "/api/users/42", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGatewayGetByIDNonIntegerIsJSON404(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())

	for _, target := range []string{"/api/users/abc", "/api/products/1.5"} {
		rr := serve(f.mux, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, target)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"), target)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), target)
		assert.Equal(t, "not found", body["error"], target)
	}
}

func TestGatewayGetByIDUpstream500MapsTo404(t *testing.T) {
	broken := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := newGateway(t, broken, newProductMux())

	rr := serve(f.mux, http.MethodGet, "/api/users/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGatewayCreateThroughToBackend(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())

	rr := serve(f.mux, http.MethodPost, "/api/products", `{"name":"Monitor","description":"4K Display","price":299.99}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/api/products/4", rr.Header().Get("Location"))
	assert.JSONEq(t, `{"id":4,"name":"Monitor","description":"4K Display","price":299.99}`, rr.Body.String())

	rr = serve(f.mux, http.MethodGet, "/api/products/4", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGatewayUpstreamDownIsServerError(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())
	f.users.Close()

	rr := serve(f.mux, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGatewayHealthHealthy(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())

	rr := serve(f.mux, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"ApiGateway","services":{"userService":"healthy","productService":"healthy"}}`, rr.Body.String())
}

func TestGatewayHealthDegradedWhenOneDown(t *testing.T) {
	f := newGateway(t, newUserMux(), newProductMux())
	f.products.Close()

	rr := serve(f.mux, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","service":"ApiGateway","services":{"userService":"healthy","productService":"unhealthy"}}`, rr.Body.String())
}
