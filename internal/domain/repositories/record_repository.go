package repositories

import (
	"context"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// RecordRepository is the diary record store. Records are append-only.
type RecordRepository interface {
	// List returns every record ordered by Seq.
	List(ctx context.Context) ([]*entities.RawRecord, error)
	// Append stores a record, assigning ID (when empty), Seq and CreatedAt.
	Append(ctx context.Context, record *entities.RawRecord) error
	Count(ctx context.Context) (int, error)
}
