package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/model"
	"microservices-demo/internal/repository"
	"microservices-demo/internal/service"

	"go.opentelemetry.io/otel"
)

var HttpEntityHandlerTracer = otel.Tracer("HttpEntityHandler")

// EntityHandler serves /health and /api/{resource}[/{id}] for one backend service.
type EntityHandler[T model.Entity[T]] struct {
	service  *service.EntityService[T]
	resource string
}

func NewEntityHandler[T model.Entity[T]](service *service.EntityService[T], resource string) *EntityHandler[T] {
	return &EntityHandler[T]{
		service:  service,
		resource: resource,
	}
}

func (h *EntityHandler[T]) Register(mux *http.ServeMux) {
	base := "/api/" + h.resource
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET "+base, h.GetAll)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base+"/{id}", h.GetByID)
}

func (h *EntityHandler[T]) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.HealthCheck())
}

func (h *EntityHandler[T]) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpEntityHandlerTracer.Start(r.Context(), h.service.Name()+".GetAll")
	defer span.End()

	items, err := h.service.ListAll(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list", slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "failed to list "+h.resource, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetByID answers 404 for unknown ids and for ids that are not integers.
func (h *EntityHandler[T]) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpEntityHandlerTracer.Start(r.Context(), h.service.Name()+".GetByID")
	defer span.End()

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		WriteJSONError(w, http.StatusNotFound, "not found", fmt.Sprintf("%q is not a valid id", r.PathValue("id")))
		return
	}

	item, err := h.service.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		WriteJSONError(w, http.StatusNotFound, "not found", fmt.Sprintf("%s %d does not exist", h.resource, id))
		return
	}
	if err != nil {
		logger.Error(ctx, "Failed to get", slog.Int("id", id), slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "failed to get "+h.resource, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *EntityHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpEntityHandlerTracer.Start(r.Context(), h.service.Name()+".Create")
	defer span.End()

	var candidate T
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	created, err := h.service.Create(ctx, candidate)
	if err != nil {
		logger.Error(ctx, "Failed to create", slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "failed to create "+h.resource, err.Error())
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/%s/%d", h.resource, created.GetID()))
	writeJSON(w, http.StatusCreated, created)
}
