package middleware_http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"microservices-demo/internal/logger"

	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "from-client")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "from-client", seen)
	assert.Equal(t, "from-client", rr.Header().Get(RequestIDHeader))
}

func TestTraceMiddlewarePreservesStatusAndBody(t *testing.T) {
	var body string
	h := alice.New(RequestID, TraceMiddleware).ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":4}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, `{"name":"x"}`, body)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `{"id":4}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestResponseWriterCapturesBody(t *testing.T) {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("hello"))
	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, "hello", rw.buf.String())
	assert.EqualValues(t, 5, rw.size)
	assert.Equal(t, http.StatusTeapot, rw.Status())
}
