package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	tsclient "github.com/portoseguro/backend/internal/infrastructure/clients/typesense"
	"github.com/portoseguro/backend/pkg/utils"
)

const collectionName = "catalog_items"

// itemNamespace derives stable document ids from item names, which may
// contain spaces and accents.
var itemNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("portoseguro:catalog_items"))

// TypesenseAdapter implements item autocomplete using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements ItemSearchProvider
var _ providers.ItemSearchProvider = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// DocumentID returns the Typesense document id of an item.
func DocumentID(itemID string) string {
	return uuid.NewSHA1(itemNamespace, []byte(utils.CanonicalItemID(itemID))).String()
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(collectionName).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "name", Type: "string", Sort: pointer.True()},
			{Name: "kind", Type: "string", Facet: pointer.True()},
		},
		TokenSeparators: &[]string{"-", "/"},
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

// Reset drops the collection so the next InitSchema recreates it.
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	if _, err := a.client.Client().Collection(collectionName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete typesense collection: %w", err)
	}
	return nil
}

// Index indexes a catalog item
func (a *TypesenseAdapter) Index(ctx context.Context, item entities.Item) error {
	name := utils.CanonicalItemID(item.ID)
	document := map[string]interface{}{
		"id":   DocumentID(name),
		"name": name,
		"kind": string(item.Kind),
	}

	if _, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index item %s: %w", name, err)
	}
	return nil
}

// Delete removes an item from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	if _, err := a.client.Client().Collection(collectionName).Document(DocumentID(id)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete item from index: %w", err)
	}
	return nil
}

// Suggest returns item names matching prefix, typo tolerant.
func (a *TypesenseAdapter) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = utils.DefaultSuggestLimit
	}
	q := utils.CanonicalItemID(prefix)
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name"),
		PerPage: pointer.Int(limit),
	}
	if q == "*" {
		params.SortBy = pointer.String("name:asc")
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	if result.Hits == nil {
		return []string{}, nil
	}

	names := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if name, ok := (*hit.Document)["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
