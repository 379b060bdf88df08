package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/bootstrap"
	"github.com/portoseguro/backend/internal/evaluation"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	"github.com/portoseguro/backend/pkg/config"
)

func main() {
	var goldenPath string
	var k int
	flag.StringVar(&goldenPath, "scenarios", "config/golden_scenarios.json", "Golden scenario file")
	flag.IntVar(&k, "k", evaluation.DefaultK, "Ranking depth scored by Recall@K and MRR@K")
	flag.Parse()

	observability.InitLogger("portoseguro-evaluate", os.Getenv("ENV"))
	observability.SetLevel(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	analysisCfg, err := bootstrap.AnalysisConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analysis configuration")
	}

	scenarios, err := evaluation.LoadGoldenScenarios(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golden scenarios")
	}
	if err := evaluation.ValidateGoldenScenarios(scenarios); err != nil {
		log.Fatal().Err(err).Msg("invalid golden scenarios")
	}

	runner := evaluation.NewRunner(analysisCfg.Pipeline, k)
	summary, err := runner.Run(context.Background(), scenarios)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
