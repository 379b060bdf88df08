package providers

import (
	"context"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// ItemSearchProvider indexes catalog items for autocomplete.
type ItemSearchProvider interface {
	InitSchema(ctx context.Context) error
	Index(ctx context.Context, item entities.Item) error
	Delete(ctx context.Context, id string) error
	// Suggest returns item ids starting with (or fuzzily matching) prefix.
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}
