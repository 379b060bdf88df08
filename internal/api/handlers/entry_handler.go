package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
)

// EntriesService lists the normalized diary.
type EntriesService interface {
	Entries(ctx context.Context) (*services.EntriesResult, error)
}

// DiaryService records new entries.
type DiaryService interface {
	CreateEntry(ctx context.Context, req *entities.NewEntryRequest) (*entities.RawRecord, error)
}

// EntryHandler handles diary entry requests
type EntryHandler struct {
	entries EntriesService
	diary   DiaryService
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entries EntriesService, diary DiaryService) *EntryHandler {
	return &EntryHandler{entries: entries, diary: diary}
}

// ListEntries handles GET /api/entries
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	result, err := h.entries.Entries(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// CreateEntry handles POST /api/entries
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entities.NewEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	record, err := h.diary.CreateEntry(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, record)
}
