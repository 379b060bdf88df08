package repositories

import (
	"context"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// CatalogRepository defines the interface for item catalog operations.
type CatalogRepository interface {
	// Load builds a registry snapshot; the version changes on every write.
	Load(ctx context.Context) (*entities.Registry, error)
	Upsert(ctx context.Context, item entities.Item) error
	Delete(ctx context.Context, id string) error
}
