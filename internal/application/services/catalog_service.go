package services

import (
	"context"
	"fmt"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	"github.com/portoseguro/backend/internal/domain/repositories"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	apperrors "github.com/portoseguro/backend/pkg/errors"
	"github.com/portoseguro/backend/pkg/utils"
)

// CatalogListing is the registry as exposed to clients.
type CatalogListing struct {
	Version int64           `json:"version"`
	Items   []entities.Item `json:"items"`
}

// CatalogService manages the item registry.
type CatalogService struct {
	catalog  repositories.CatalogRepository
	search   providers.ItemSearchProvider
	eventBus providers.EventBus
}

// NewCatalogService creates a new catalog service. search and eventBus may be nil.
func NewCatalogService(catalog repositories.CatalogRepository, search providers.ItemSearchProvider, eventBus providers.EventBus) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		search:   search,
		eventBus: eventBus,
	}
}

// List returns every registered item, implicit composite members included.
func (s *CatalogService) List(ctx context.Context) (*CatalogListing, error) {
	registry, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogListing{Version: registry.Version(), Items: registry.Items()}, nil
}

// RegisterItem adds a new base food or tracker. Names are trimmed and upper
// cased; registering an existing name is a conflict.
func (s *CatalogService) RegisterItem(ctx context.Context, req entities.CreateItemRequest) (*entities.Item, error) {
	id := utils.CanonicalItemID(req.Name)
	if id == "" {
		return nil, apperrors.NewValidationError("item name is required")
	}
	kind := req.Kind
	if kind == "" {
		kind = entities.ItemKindBaseFood
	}
	if kind != entities.ItemKindBaseFood && kind != entities.ItemKindTracker {
		return nil, apperrors.NewValidationErrorf("items can only be registered as %s or %s; use composites for recipes",
			entities.ItemKindBaseFood, entities.ItemKindTracker)
	}

	registry, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := registry.Resolve(id); exists {
		return nil, apperrors.NewConflictError(fmt.Sprintf("item %s already exists", id))
	}

	item := entities.Item{ID: id, Kind: kind}
	if err := s.save(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DefineComposite creates or replaces a composite. Members may not be
// composites themselves, and the name may not belong to a plain item.
func (s *CatalogService) DefineComposite(ctx context.Context, req entities.DefineCompositeRequest) (*entities.Item, error) {
	id := utils.CanonicalItemID(req.Name)
	if id == "" {
		return nil, apperrors.NewValidationError("composite name is required")
	}

	def := entities.CompositeDef{
		Main:     canonicalMembers(req.Main),
		Minor:    canonicalMembers(req.Minor),
		Trackers: canonicalMembers(req.Trackers),
	}
	if len(def.Members()) == 0 {
		return nil, apperrors.NewValidationErrorf("composite %s has no members", id)
	}

	registry, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	if existing, ok := registry.Resolve(id); ok && existing.Kind != entities.ItemKindComposite {
		return nil, apperrors.NewConflictError(fmt.Sprintf("%s is already registered as %s", id, existing.Kind))
	}
	for _, member := range def.Members() {
		if member == id {
			return nil, apperrors.NewValidationErrorf("composite %s cannot contain itself", id)
		}
		if item, ok := registry.Resolve(member); ok && item.Kind == entities.ItemKindComposite {
			return nil, apperrors.NewValidationErrorf("composite %s cannot contain composite %s", id, member)
		}
	}
	for _, tracker := range def.Trackers {
		if item, ok := registry.Resolve(tracker); ok && item.Kind != entities.ItemKindTracker {
			return nil, apperrors.NewValidationErrorf("%s is a %s, not a tracker", tracker, item.Kind)
		}
	}

	item := entities.Item{ID: id, Kind: entities.ItemKindComposite, Composite: &def}
	if err := s.save(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item from the catalog and the search index.
func (s *CatalogService) DeleteItem(ctx context.Context, name string) error {
	id := utils.CanonicalItemID(name)
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("item", id).Msg("failed to remove item from search index")
		}
	}
	publish(ctx, s.eventBus, entities.NewDiaryEvent(entities.DiaryEventCatalogUpdated, id))
	return nil
}

// Suggest autocompletes item names. The search index is preferred; the
// registry itself is the fallback when the index is absent or failing.
func (s *CatalogService) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = utils.DefaultSuggestLimit
	}

	if s.search != nil {
		names, err := s.search.Suggest(ctx, prefix, limit)
		if err == nil {
			return names, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search suggest failed, falling back to registry")
	}

	registry, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	items := registry.Items()
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.ID)
	}
	return utils.SuggestNames(prefix, names, limit), nil
}

// Reindex pushes every registered item into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, apperrors.NewValidationError("no search index configured")
	}
	if err := s.search.InitSchema(ctx); err != nil {
		return 0, apperrors.NewExternalError("failed to prepare search index", err)
	}

	registry, err := s.catalog.Load(ctx)
	if err != nil {
		return 0, err
	}
	indexed := 0
	for _, item := range registry.Items() {
		if err := s.search.Index(ctx, item); err != nil {
			return indexed, apperrors.NewExternalError(fmt.Sprintf("failed to index %s", item.ID), err)
		}
		indexed++
	}
	return indexed, nil
}

func (s *CatalogService) save(ctx context.Context, item entities.Item) error {
	if err := s.catalog.Upsert(ctx, item); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.Index(ctx, item); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("item", item.ID).Msg("failed to index item")
		}
	}
	observability.LoggerFromContext(ctx).Info().Str("item", item.ID).Str("kind", string(item.Kind)).Msg("catalog updated")
	publish(ctx, s.eventBus, entities.NewDiaryEvent(entities.DiaryEventCatalogUpdated, item.ID))
	return nil
}

func canonicalMembers(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		id := utils.CanonicalItemID(name)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
