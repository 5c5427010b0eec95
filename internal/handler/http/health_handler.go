package http

import (
	"net/http"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/service"

	"go.opentelemetry.io/otel"
)

// HealthHandler serves the gateway's composite health. It always answers 200;
// a failing upstream shows up as "degraded" in the body.
type HealthHandler struct {
	service *service.HealthService
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Check)
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Debug(ctx, "HttpHealthHandler")

	writeJSON(w, http.StatusOK, h.service.Check(ctx))
}
