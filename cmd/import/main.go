package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/adapters/file"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/bootstrap"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	"github.com/portoseguro/backend/pkg/config"
)

func main() {
	var csvPath string
	var catalogPath string

	flag.StringVar(&csvPath, "csv", "", "Spreadsheet export to append to the record store")
	flag.StringVar(&catalogPath, "catalog", "", "YAML catalog to merge into the stored catalog")
	flag.Parse()

	observability.InitLogger("portoseguro-import", os.Getenv("ENV"))
	observability.SetLevel(os.Getenv("LOG_LEVEL"))

	if csvPath == "" && catalogPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to import: pass -csv and/or -catalog")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, csvPath, catalogPath); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func run(ctx context.Context, csvPath, catalogPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	// Publishing through Redis lets a running API drop its cached reports.
	messaging := bootstrap.OpenMessaging(ctx, cfg)
	defer messaging.Close()

	svc := services.NewImportService(stores.Records, stores.Catalog, messaging.EventBus)
	start := time.Now()

	// The catalog goes first so imported rows resolve against it.
	if catalogPath != "" {
		registry, err := file.LoadCatalog(catalogPath)
		if err != nil {
			return err
		}
		result, err := svc.SeedCatalog(ctx, registry)
		if err != nil {
			return err
		}
		log.Info().
			Str("path", catalogPath).
			Int("upserted", result.Items).
			Int("unchanged", result.Unchanged).
			Msg("catalog imported")
	}

	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", csvPath, err)
		}
		defer f.Close()

		rows, err := file.ReadRecords(f)
		if err != nil {
			return err
		}
		result, err := svc.ImportRecords(ctx, rows)
		if err != nil {
			return err
		}
		log.Info().
			Str("path", csvPath).
			Int("imported", result.Records).
			Int("skipped", result.Skipped).
			Msg("records imported")
	}

	log.Info().Dur("took", time.Since(start)).Msg("import complete")
	return nil
}
