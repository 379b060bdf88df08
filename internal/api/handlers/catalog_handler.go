package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/pkg/utils"
)

// CatalogService defines the catalog operations used by the handler.
type CatalogService interface {
	List(ctx context.Context) (*services.CatalogListing, error)
	RegisterItem(ctx context.Context, req entities.CreateItemRequest) (*entities.Item, error)
	DefineComposite(ctx context.Context, req entities.DefineCompositeRequest) (*entities.Item, error)
	DeleteItem(ctx context.Context, name string) error
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}

// CatalogHandler handles item registry requests
type CatalogHandler struct {
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListItems handles GET /api/catalog/items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// CreateItem handles POST /api/catalog/items
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	item, err := h.service.RegisterItem(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

// DefineComposite handles POST /api/catalog/composites
func (h *CatalogHandler) DefineComposite(w http.ResponseWriter, r *http.Request) {
	var req entities.DefineCompositeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	item, err := h.service.DefineComposite(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

// DeleteItem handles DELETE /api/catalog/items/{name}
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "item name is required")
		return
	}
	if err := h.service.DeleteItem(r.Context(), name); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suggest handles GET /api/catalog/suggest
func (h *CatalogHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", utils.DefaultSuggestLimit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	names, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": names,
		"count":       len(names),
	})
}
