package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/portoseguro/backend/internal/adapters/file"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/bootstrap"
	"github.com/portoseguro/backend/pkg/config"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// siblingCatalog is looked up next to a CSV export when --catalog is not set.
const siblingCatalog = "catalogo.yaml"

type options struct {
	csvPath     string
	catalogPath string
	format      string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "portoseguro",
		Short: "Personal symptom correlation over a food and bowel diary",
		Long: `portoseguro normalizes a food and bowel diary, labels the days that were
calm enough to serve as a baseline and ranks which foods preceded a crisis.

Records are read from a spreadsheet export (--csv) or from the store
configured through the environment (STORE_DRIVER, SQLITE_PATH, DB_*).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatTable && opts.format != formatJSON {
				return fmt.Errorf("unknown format %q (use %s or %s)", opts.format, formatTable, formatJSON)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.csvPath, "csv", "", "Spreadsheet export to analyze instead of the record store")
	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "YAML item catalog (defaults to catalogo.yaml next to the export)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", formatTable, "Output format: table or json")

	rootCmd.AddCommand(
		newTriggersCmd(opts),
		newEntriesCmd(opts),
		newOverviewCmd(opts),
	)
	return rootCmd
}

// analysisService opens the configured sources. The returned func releases them.
func (o *options) analysisService(ctx context.Context) (*services.AnalysisService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	analysisCfg, err := bootstrap.AnalysisConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	if o.csvPath != "" {
		catalogPath := o.catalogPath
		if catalogPath == "" {
			catalogPath = filepath.Join(filepath.Dir(o.csvPath), siblingCatalog)
		}
		svc := services.NewAnalysisService(
			file.NewCSVRecordSource(o.csvPath),
			file.NewCatalogFile(catalogPath),
			nil, nil, analysisCfg,
		)
		return svc, func() {}, nil
	}

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if o.catalogPath != "" {
		stores.Catalog = file.NewCatalogFile(o.catalogPath)
	}
	svc := services.NewAnalysisService(stores.Records, stores.Catalog, nil, nil, analysisCfg)
	return svc, func() { stores.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
