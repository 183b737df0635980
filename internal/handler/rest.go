package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/model"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// RESTHandler handles REST API requests for the inventory.
type RESTHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(s store.Store, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		store:  s,
		logger: logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/inventory", h.GetInventory).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/inventory/advance", h.Advance).Methods(http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ListItems handles GET /api/v1/items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// GetItem handles GET /api/v1/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleStoreError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST /api/v1/items requests. Only the name is
// checked; sell_in and quality are stocked as given.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := model.NewItem(input.Name, input.SellIn, input.Quality)
	if err := item.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.Create(r.Context(), item)
	if err != nil {
		h.handleStoreError(w, err, "create item")
		return
	}

	h.logger.Info("item stocked",
		zap.String("id", created.ID),
		zap.String("name", created.Name),
		zap.Stringer("category", created.Category),
		operatorField(r),
	)
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(created))
}

// DeleteItem handles DELETE /api/v1/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.handleStoreError(w, err, "delete item")
		return
	}

	h.logger.Info("item removed", zap.String("id", id), operatorField(r))

	h.writeJSON(w, http.StatusNoContent, nil)
}

// GetInventory handles GET /api/v1/inventory requests.
func (h *RESTHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.Report(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "read inventory")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(report))
}

// Advance handles POST /api/v1/inventory/advance requests. An empty body
// advances a single day.
func (h *RESTHandler) Advance(w http.ResponseWriter, r *http.Request) {
	input := AdvanceRequest{Days: 1}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.store.Advance(r.Context(), input.Days)
	if err != nil {
		h.handleStoreError(w, err, "advance inventory")
		return
	}

	h.logger.Debug("advance requested", zap.Int("days", input.Days), operatorField(r))

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(report))
}

// operatorField names the authenticated operator, if any.
func operatorField(r *http.Request) zap.Field {
	if op, ok := auth.FromContext(r.Context()); ok {
		return zap.String("operator", op.Name)
	}
	return zap.Skip()
}

// handleStoreError maps store errors to HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid item ID")
	case errors.Is(err, store.ErrInvalidDays):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNilItem):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{
		Code:    status,
		Message: message,
	})
}
