package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/adapters/search"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/bootstrap"
	"github.com/portoseguro/backend/internal/infrastructure/clients/typesense"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	"github.com/portoseguro/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the catalog collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("portoseguro-indexer", os.Getenv("ENV"))
	observability.SetLevel(os.Getenv("LOG_LEVEL"))

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return fmt.Errorf("failed to connect to typesense: %w", err)
	}
	index := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("reset requested, deleting catalog collection")
		if err := index.Reset(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	catalogService := services.NewCatalogService(stores.Catalog, index, nil)
	start := time.Now()
	indexed, err := catalogService.Reindex(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("items", indexed).Dur("took", time.Since(start)).Msg("indexing complete")
	return nil
}
