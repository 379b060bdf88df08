package services

import (
	"context"
	"fmt"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	"github.com/portoseguro/backend/internal/domain/repositories"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	"github.com/portoseguro/backend/pkg/utils"
)

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Records   int `json:"records"`
	Skipped   int `json:"skipped"`
	Items     int `json:"items"`
	Unchanged int `json:"unchanged"`
}

// ImportService loads spreadsheet exports and catalog files into the stores.
type ImportService struct {
	records  repositories.RecordRepository
	catalog  repositories.CatalogRepository
	eventBus providers.EventBus
}

// NewImportService creates a new import service. eventBus may be nil.
func NewImportService(records repositories.RecordRepository, catalog repositories.CatalogRepository, eventBus providers.EventBus) *ImportService {
	return &ImportService{records: records, catalog: catalog, eventBus: eventBus}
}

// ImportRecords appends rows in order. Rows whose id is already stored are
// skipped, so re-importing the same export is a no-op.
func (s *ImportService) ImportRecords(ctx context.Context, rows []*entities.RawRecord) (*ImportResult, error) {
	existing, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.ID] = struct{}{}
	}

	result := &ImportResult{}
	for _, row := range rows {
		if row.ID != "" {
			if _, dup := seen[row.ID]; dup {
				result.Skipped++
				continue
			}
		}
		record := &entities.RawRecord{ID: row.ID, Fields: row.Fields, CreatedAt: row.CreatedAt}
		if err := s.records.Append(ctx, record); err != nil {
			return result, fmt.Errorf("failed to import row %d: %w", row.Seq, err)
		}
		seen[record.ID] = struct{}{}
		result.Records++
	}

	observability.LoggerFromContext(ctx).Info().
		Int("imported", result.Records).
		Int("skipped", result.Skipped).
		Msg("records imported")
	if result.Records > 0 {
		publish(ctx, s.eventBus, entities.NewDiaryEvent(entities.DiaryEventEntryCreated, "import"))
	}
	return result, nil
}

// SeedCatalog upserts every item of registry whose stored definition differs.
// Implicit composite members are stored too, so the store ends up holding the
// full vocabulary.
func (s *ImportService) SeedCatalog(ctx context.Context, registry *entities.Registry) (*ImportResult, error) {
	current, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, item := range registry.Items() {
		if stored, ok := current.Resolve(item.ID); ok && sameItem(stored, item) {
			result.Unchanged++
			continue
		}
		if err := s.catalog.Upsert(ctx, item); err != nil {
			return result, fmt.Errorf("failed to seed item %s: %w", item.ID, err)
		}
		result.Items++
	}

	observability.LoggerFromContext(ctx).Info().
		Int("items", result.Items).
		Int("unchanged", result.Unchanged).
		Msg("catalog seeded")
	if result.Items > 0 {
		publish(ctx, s.eventBus, entities.NewDiaryEvent(entities.DiaryEventCatalogUpdated, "seed"))
	}
	return result, nil
}

func sameItem(a, b entities.Item) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Composite == nil || b.Composite == nil {
		return a.Composite == nil && b.Composite == nil
	}
	return sameList(a.Composite.Main, b.Composite.Main) &&
		sameList(a.Composite.Minor, b.Composite.Minor) &&
		sameList(a.Composite.Trackers, b.Composite.Trackers)
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if utils.CanonicalItemID(a[i]) != utils.CanonicalItemID(b[i]) {
			return false
		}
	}
	return true
}
