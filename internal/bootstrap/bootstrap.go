// Package bootstrap wires configuration into the stores, caches and indexes
// shared by the API server and the command line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/adapters/cache"
	"github.com/portoseguro/backend/internal/adapters/database"
	"github.com/portoseguro/backend/internal/adapters/events"
	"github.com/portoseguro/backend/internal/adapters/file"
	"github.com/portoseguro/backend/internal/adapters/search"
	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	"github.com/portoseguro/backend/internal/domain/repositories"
	"github.com/portoseguro/backend/internal/infrastructure/clients/postgres"
	"github.com/portoseguro/backend/internal/infrastructure/clients/redis"
	"github.com/portoseguro/backend/internal/infrastructure/clients/sqlite"
	"github.com/portoseguro/backend/internal/infrastructure/clients/typesense"
	"github.com/portoseguro/backend/pkg/config"
)

// cachePrefix namespaces every Redis key written by this service.
const cachePrefix = "portoseguro:"

// Stores holds the record and catalog repositories plus whatever must be
// closed when the process exits.
type Stores struct {
	Records repositories.RecordRepository
	Catalog repositories.CatalogRepository
	closers []func() error
}

// Close releases every opened connection.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// CacheRecords wraps the record store in a read-through cache.
func (s *Stores) CacheRecords(c providers.CacheProvider) {
	if c == nil {
		return
	}
	s.Records = database.NewCachedRecordAdapter(s.Records, c)
}

func (s *Stores) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// OpenStores connects the configured record store and makes sure its schema exists.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	var client database.SQLClient
	stores := &Stores{}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		stores.onClose(pg.Close)
		client = pg
	default:
		lite, err := sqlite.NewClient(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		stores.onClose(lite.Close)
		client = lite
	}

	if err := database.EnsureSchema(ctx, client); err != nil {
		stores.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	stores.Records = database.NewRecordAdapter(client)
	stores.Catalog = database.NewCatalogAdapter(client)
	log.Info().Str("driver", cfg.Store.Driver).Msg("record store ready")
	return stores, nil
}

// Messaging is the cache and event bus pair. Both are backed by Redis when
// it is enabled and reachable, and by in-process implementations otherwise.
type Messaging struct {
	Cache    providers.CacheProvider
	EventBus providers.EventBus
	Shared   bool
	closers  []func() error
}

// Close closes the event bus and the Redis connection.
func (m *Messaging) Close() error {
	var errs []error
	for _, fn := range m.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// OpenMessaging picks the cache and event bus implementation.
func OpenMessaging(ctx context.Context, cfg *config.Config) *Messaging {
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err == nil {
			bus := events.NewRedisEventBus(client)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("using Redis cache and event bus")
			return &Messaging{
				Cache:    cache.NewRedisAdapter(client, cachePrefix),
				EventBus: bus,
				Shared:   true,
				closers:  []func() error{bus.Close, client.Close},
			}
		}
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-process cache")
	}

	bus := events.NewMemoryEventBus()
	return &Messaging{
		Cache:    cache.NewMemoryAdapter(cache.DefaultMemoryEntries),
		EventBus: bus,
		closers:  []func() error{bus.Close},
	}
}

// OpenSearch returns the Typesense-backed item index, or nil when search is
// disabled or unreachable.
func OpenSearch(ctx context.Context, cfg *config.Config) providers.ItemSearchProvider {
	if !cfg.Typesense.Enabled {
		return nil
	}
	client, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, suggestions will use the registry")
		return nil
	}
	adapter := search.NewTypesenseAdapter(client)
	if err := adapter.InitSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to init Typesense schema")
	}
	return adapter
}

// AnalysisConfig maps the environment onto the analysis service settings.
func AnalysisConfig(cfg *config.Config) (services.AnalysisServiceConfig, error) {
	loc, err := cfg.Analysis.Location()
	if err != nil {
		return services.AnalysisServiceConfig{}, err
	}
	crisis, err := entities.ParseCrisisMode(cfg.Analysis.Crisis)
	if err != nil {
		return services.AnalysisServiceConfig{}, err
	}

	return services.AnalysisServiceConfig{
		Pipeline: analysis.PipelineConfig{
			Location:        loc,
			CrisisThreshold: cfg.Analysis.CrisisThreshold,
			LookbackDays:    cfg.Analysis.LookbackDays,
			Guardrails: analysis.GuardrailConfig{
				MinBaseDays: cfg.Analysis.MinBaseDays,
				MaxListed:   cfg.Analysis.MaxListed,
			},
		},
		Defaults: entities.AnalysisParams{
			EffectWindowDays: cfg.Analysis.WindowDays,
			MinIntensity:     entities.Level(cfg.Analysis.MinIntensity),
			MinExposureDays:  cfg.Analysis.MinExposureDays,
			Crisis:           crisis,
			CrisisThreshold:  cfg.Analysis.CrisisThreshold,
		},
		CacheTTL: cfg.Analysis.CacheTTL(),
	}, nil
}

// SeedRegistry is the catalog loaded into an empty store: the configured
// YAML file when set, the built-in catalog otherwise.
func SeedRegistry(cfg *config.Config) (*entities.Registry, error) {
	if cfg.Catalog.Path == "" {
		return file.DefaultRegistry(), nil
	}
	return file.LoadCatalog(cfg.Catalog.Path)
}

// EnsureCatalog seeds the store when it holds no items yet.
func EnsureCatalog(ctx context.Context, cfg *config.Config, importer *services.ImportService, catalog repositories.CatalogRepository) error {
	current, err := catalog.Load(ctx)
	if err != nil {
		return err
	}
	if current.Len() > 0 {
		return nil
	}
	seed, err := SeedRegistry(cfg)
	if err != nil {
		return err
	}
	result, err := importer.SeedCatalog(ctx, seed)
	if err != nil {
		return err
	}
	log.Info().Int("items", result.Items).Msg("seeded empty catalog")
	return nil
}
