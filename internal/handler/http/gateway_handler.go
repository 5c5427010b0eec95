package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/service"

	"go.opentelemetry.io/otel"
)

var HttpGatewayHandlerTracer = otel.Tracer("HttpGatewayHandler")

// Routes maps a public resource name to the upstream that owns it.
var Routes = map[string]string{
	"users":    service.UserServiceUpstream,
	"products": service.ProductServiceUpstream,
}

// GatewayHandler relays /api/* to the owning backend without re-encoding bodies.
type GatewayHandler struct {
	gateway *service.GatewayService
}

func NewGatewayHandler(gateway *service.GatewayService) *GatewayHandler {
	return &GatewayHandler{
		gateway: gateway,
	}
}

func (h *GatewayHandler) Register(mux *http.ServeMux) {
	for resource, upstream := range Routes {
		base := "/api/" + resource
		mux.HandleFunc("GET "+base, h.List(upstream))
		mux.HandleFunc("POST "+base, h.Create(upstream))
		mux.HandleFunc("GET "+base+"/{id}", h.GetByID(upstream))
	}
}

// List relays the upstream status and body as is.
func (h *GatewayHandler) List(upstream string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := HttpGatewayHandlerTracer.Start(r.Context(), "HttpGatewayHandler.List")
		defer span.End()

		resp, err := h.gateway.Forward(ctx, upstream, http.MethodGet, r.URL.RequestURI(), nil, nil)
		if err != nil {
			h.upstreamFailed(w, r, upstream, err)
			return
		}
		relay(w, resp.StatusCode, resp.RawBody)
	}
}

// GetByID maps any non-2xx upstream answer to 404.
func (h *GatewayHandler) GetByID(upstream string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := HttpGatewayHandlerTracer.Start(r.Context(), "HttpGatewayHandler.GetByID")
		defer span.End()

		if _, err := strconv.Atoi(r.PathValue("id")); err != nil {
			WriteJSONError(w, http.StatusNotFound, "not found", fmt.Sprintf("%q is not a valid id", r.PathValue("id")))
			return
		}

		resp, err := h.gateway.Forward(ctx, upstream, http.MethodGet, r.URL.RequestURI(), nil, nil)
		if err != nil {
			h.upstreamFailed(w, r, upstream, err)
			return
		}
		if !resp.IsSuccess() {
			WriteJSONError(w, http.StatusNotFound, "not found", "")
			return
		}
		relay(w, http.StatusOK, resp.RawBody)
	}
}

// Create forwards the request body untouched and relays status, Location and body.
func (h *GatewayHandler) Create(upstream string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := HttpGatewayHandlerTracer.Start(r.Context(), "HttpGatewayHandler.Create")
		defer span.End()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "failed to read request body", err.Error())
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}

		resp, err := h.gateway.Forward(ctx, upstream, http.MethodPost, r.URL.RequestURI(), body,
			map[string]string{"Content-Type": contentType})
		if err != nil {
			h.upstreamFailed(w, r, upstream, err)
			return
		}

		if loc := resp.GetHeader("Location"); loc != "" {
			w.Header().Set("Location", loc)
		}
		relay(w, resp.StatusCode, resp.RawBody)
	}
}

func (h *GatewayHandler) upstreamFailed(w http.ResponseWriter, r *http.Request, upstream string, err error) {
	logger.Error(r.Context(), "Upstream request failed",
		slog.String("upstream", upstream),
		slog.String("error", err.Error()),
	)
	WriteJSONError(w, http.StatusInternalServerError, "upstream request failed", err.Error())
}

func relay(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
