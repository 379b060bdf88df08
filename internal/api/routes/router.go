package routes

import (
	"net/http"

	"github.com/portoseguro/backend/internal/api/handlers"
	"github.com/portoseguro/backend/internal/api/middleware"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	entryHandler    *handlers.EntryHandler
	analysisHandler *handlers.AnalysisHandler
	catalogHandler  *handlers.CatalogHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	entryHandler *handlers.EntryHandler,
	analysisHandler *handlers.AnalysisHandler,
	catalogHandler *handlers.CatalogHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		entryHandler:    entryHandler,
		analysisHandler: analysisHandler,
		catalogHandler:  catalogHandler,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Diary entries
	r.mux.HandleFunc("GET /api/entries", r.entryHandler.ListEntries)
	r.mux.HandleFunc("POST /api/entries", r.entryHandler.CreateEntry)

	// Analysis
	r.mux.HandleFunc("GET /api/analysis/triggers", r.analysisHandler.GetTriggers)
	r.mux.HandleFunc("GET /api/analysis/overview", r.analysisHandler.GetOverview)

	// Catalog
	r.mux.HandleFunc("GET /api/catalog/items", r.catalogHandler.ListItems)
	r.mux.HandleFunc("POST /api/catalog/items", r.catalogHandler.CreateItem)
	r.mux.HandleFunc("DELETE /api/catalog/items/{name}", r.catalogHandler.DeleteItem)
	r.mux.HandleFunc("POST /api/catalog/composites", r.catalogHandler.DefineComposite)
	r.mux.HandleFunc("GET /api/catalog/suggest", r.catalogHandler.Suggest)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.mux)(handler)

	// CORS wraps everything so preflights never reach the mux
	handler = middleware.CORSMiddleware(handler)

	return handler
}
