package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typesense/typesense-go/v2/typesense"

	"github.com/portoseguro/backend/internal/domain/entities"
	tsclient "github.com/portoseguro/backend/internal/infrastructure/clients/typesense"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *TypesenseAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := typesense.NewClient(typesense.WithServer(srv.URL), typesense.WithAPIKey("test"))
	return NewTypesenseAdapter(tsclient.NewFromClient(client))
}

func TestDocumentID_StableAcrossSpelling(t *testing.T) {
	assert.Equal(t, DocumentID("Pão de Queijo"), DocumentID("  PÃO DE  QUEIJO"))
	assert.NotEqual(t, DocumentID("ARROZ"), DocumentID("FEIJÃO"))
}

func TestTypesenseAdapter_Index(t *testing.T) {
	var got map[string]interface{}
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/catalog_items/documents", r.URL.Path)
		assert.Equal(t, "upsert", r.URL.Query().Get("action"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(got)
	})

	err := adapter.Index(context.Background(), entities.Item{ID: "batata doce", Kind: entities.ItemKindBaseFood})
	require.NoError(t, err)

	assert.Equal(t, "BATATA DOCE", got["name"])
	assert.Equal(t, "base_food", got["kind"])
	assert.Equal(t, DocumentID("BATATA DOCE"), got["id"])
}

func TestTypesenseAdapter_Suggest(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/catalog_items/documents/search", r.URL.Path)
		assert.Equal(t, "ARR", r.URL.Query().Get("q"))
		assert.Equal(t, "name", r.URL.Query().Get("query_by"))
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"found": 2,
			"out_of": 5,
			"page": 1,
			"search_time_ms": 1,
			"hits": [
				{"document": {"id": "a", "name": "ARROZ", "kind": "base_food"}},
				{"document": {"id": "b", "name": "ARROZ INTEGRAL", "kind": "base_food"}}
			]
		}`))
	})

	names, err := adapter.Suggest(context.Background(), "arr", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"ARROZ", "ARROZ INTEGRAL"}, names)
}

func TestTypesenseAdapter_SuggestServerError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := adapter.Suggest(context.Background(), "arr", 3)
	assert.Error(t, err)
}

func TestTypesenseAdapter_InitSchemaCreatesMissingCollection(t *testing.T) {
	var created map[string]interface{}
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/catalog_items":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name": "catalog_items", "num_documents": 0, "created_at": 1, "fields": []}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	require.NoError(t, adapter.InitSchema(context.Background()))
	assert.Equal(t, "catalog_items", created["name"])
}

func TestTypesenseAdapter_Reset(t *testing.T) {
	called := false
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/collections/catalog_items", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "catalog_items", "num_documents": 3, "created_at": 1, "fields": []}`))
	})

	require.NoError(t, adapter.Reset(context.Background()))
	assert.True(t, called)
}
