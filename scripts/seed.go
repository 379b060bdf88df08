package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/bootstrap"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	"github.com/portoseguro/backend/pkg/config"
)

// Seeds a demo diary ending today: a calm routine with beans every fifth
// day, each followed by a loose evening stool.
func main() {
	var days int
	var seed uint64
	flag.IntVar(&days, "days", 60, "Number of diary days to generate")
	flag.Uint64Var(&seed, "seed", 42, "Random seed for stool and symptom noise")
	flag.Parse()

	observability.InitLogger("portoseguro-seed", "development")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	importService := services.NewImportService(stores.Records, stores.Catalog, nil)
	if err := bootstrap.EnsureCatalog(ctx, cfg, importService, stores.Catalog); err != nil {
		log.Fatal().Err(err).Msg("failed to seed catalog")
	}

	analysisCfg, err := bootstrap.AnalysisConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analysis configuration")
	}
	diary := services.NewDiaryService(stores.Records, stores.Catalog, nil,
		analysisCfg.Pipeline.Location, cfg.Analysis.CrisisThreshold)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start := time.Now().AddDate(0, 0, -days+1)
	created := 0

	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format(entities.DateLayout)
		for _, req := range demoDay(date, d, rng) {
			if _, err := diary.CreateEntry(ctx, req); err != nil {
				log.Error().Err(err).Str("date", date).Str("time", req.Time).Msg("failed to create entry")
				continue
			}
			created++
		}
	}

	log.Info().Int("days", days).Int("entries", created).Msg("seeding complete")
}

func demoDay(date string, day int, rng *rand.Rand) []*entities.NewEntryRequest {
	calm := 3 + rng.IntN(2)
	breakfast := &entities.NewEntryRequest{
		Date:  date,
		Time:  "08:00",
		Stool: &calm,
		Selections: map[entities.Level][]string{
			entities.LevelNormal: {"TAPIOCA", "OVO"},
			entities.LevelLight:  {"CAFÉ"},
		},
	}
	if day%7 == 0 {
		breakfast.WaistCm = 80 + float64(rng.IntN(40))/10
	}

	lunch := &entities.NewEntryRequest{
		Date: date,
		Time: "12:30",
		Selections: map[entities.Level][]string{
			entities.LevelNormal: {"ARROZ", "FRANGO"},
			entities.LevelLight:  {"CENOURA"},
		},
	}
	entries := []*entities.NewEntryRequest{breakfast, lunch}

	if day%5 == 4 {
		lunch.Selections[entities.LevelHeavy] = []string{"FEIJÃO"}
		loose := 6 + rng.IntN(2)
		entries = append(entries, &entities.NewEntryRequest{
			Date:     date,
			Time:     "20:30",
			Stool:    &loose,
			Symptoms: []string{"Gases", "Cólica"},
		})
	} else if rng.IntN(4) == 0 {
		entries = append(entries, &entities.NewEntryRequest{
			Date:       date,
			Time:       "16:00",
			Selections: map[entities.Level][]string{entities.LevelLight: {"BANANA"}},
		})
	}
	return entries
}
