package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/portoseguro/backend/internal/adapters/file"
	"github.com/portoseguro/backend/internal/api/handlers"
	"github.com/portoseguro/backend/internal/api/routes"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/bootstrap"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	"github.com/portoseguro/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)
	observability.SetLevel(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		telemetry, err := observability.Setup(ctx, observability.SetupOptions{
			ServiceName:    cfg.OTEL.ServiceName,
			ServiceVersion: cfg.OTEL.ServiceVersion,
			Endpoint:       cfg.OTEL.Endpoint,
			ExportLogs:     cfg.OTEL.LogsEnabled,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			if telemetry.LoggerProvider != nil {
				observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment,
					observability.NewOTelHook(telemetry.LoggerProvider, cfg.OTEL.ServiceName))
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	messaging := bootstrap.OpenMessaging(ctx, cfg)
	defer messaging.Close()
	stores.CacheRecords(messaging.Cache)

	itemSearch := bootstrap.OpenSearch(ctx, cfg)

	analysisCfg, err := bootstrap.AnalysisConfig(cfg)
	if err != nil {
		return err
	}
	analysisService := services.NewAnalysisService(stores.Records, stores.Catalog, messaging.Cache, metrics, analysisCfg)
	diaryService := services.NewDiaryService(stores.Records, stores.Catalog, messaging.EventBus,
		analysisCfg.Pipeline.Location, cfg.Analysis.CrisisThreshold)
	catalogService := services.NewCatalogService(stores.Catalog, itemSearch, messaging.EventBus)
	importService := services.NewImportService(stores.Records, stores.Catalog, messaging.EventBus)

	if err := bootstrap.EnsureCatalog(ctx, cfg, importService, stores.Catalog); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	invalidation := services.NewCacheInvalidationService(messaging.Cache, messaging.EventBus)
	if err := invalidation.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation service")
	} else {
		defer invalidation.Stop()
	}

	router := routes.NewRouter(
		handlers.NewEntryHandler(analysisService, diaryService),
		handlers.NewAnalysisHandler(analysisService),
		handlers.NewCatalogHandler(catalogService),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watcher, err := file.NewCatalogWatcher(cfg.Catalog.Path, file.DefaultDebounce,
			func(ctx context.Context, registry *entities.Registry) error {
				_, err := importService.SeedCatalog(ctx, registry)
				return err
			})
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Catalog.Path).Msg("catalog watcher disabled")
		} else {
			g.Go(func() error {
				if err := watcher.Start(gctx); err != nil {
					return err
				}
				<-gctx.Done()
				watcher.Stop()
				return nil
			})
		}
	}

	log.Info().
		Bool("shared_cache", messaging.Shared).
		Bool("search_index", itemSearch != nil).
		Bool("catalog_watch", cfg.Catalog.Watch).
		Msg("services ready")

	return g.Wait()
}
