package analysis_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/internal/domain/entities"
	apperrors "github.com/portoseguro/backend/pkg/errors"
)

func ovo(level entities.Level) map[string]entities.Level {
	return map[string]entities.Level{"OVO": level}
}

// eggHistory has OVO on five safe-harbor days (Mar 1-5) and a general crisis
// the same evening on four of them. The crises themselves are not safe harbor.
// Mar 6-10 are safe-harbor days without OVO; Mar 10 has a safe-harbor crisis
// when withBaseCrisis is set.
func eggHistory(withBaseCrisis bool) []entities.LogEntry {
	var entries []entities.LogEntry
	for d := 0; d < 5; d++ {
		entries = append(entries, safe(entry(at(d, 12, 0), 3, ovo(entities.LevelNormal))))
		if d < 4 {
			entries = append(entries, entry(at(d, 20, 0), 6, nil))
		}
	}
	for d := 5; d < 10; d++ {
		stool := 4
		if withBaseCrisis && d == 9 {
			stool = 6
		}
		entries = append(entries, safe(entry(at(d, 12, 0), stool, map[string]entities.Level{"ARROZ": entities.LevelLight})))
	}
	return entries
}

func findStat(t *testing.T, report *entities.TriggerReport, item string) entities.TriggerStat {
	t.Helper()
	for _, s := range report.Items {
		if s.Item == item {
			return s
		}
	}
	t.Fatalf("item %s not in report", item)
	return entities.TriggerStat{}
}

func TestAnalyze_TriggerRateAndImpact(t *testing.T) {
	analyzer := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil)

	report, err := analyzer.Analyze(eggHistory(true), entities.DefaultAnalysisParams())
	require.NoError(t, err)

	assert.Equal(t, 10, report.TotalBaseDays)
	assert.Equal(t, 1, report.CrisisBaseDays)
	assert.InDelta(t, 0.1, report.BasalRisk, 1e-9)
	assert.Equal(t, 10, report.SafeHarborEntries)
	assert.Equal(t, 14, report.TotalEntries)
	assert.False(t, report.InsufficientData)
	assert.False(t, report.LowConfidence)

	egg := findStat(t, report, "OVO")
	assert.Equal(t, 5, egg.ExposureDays)
	assert.Equal(t, 4, egg.TriggeredDays)
	assert.InDelta(t, 0.8, egg.TriggerRate, 1e-9)
	assert.InDelta(t, 20.0, egg.SafetyPct, 1e-9)
	assert.InDelta(t, 8.0, egg.Impact, 1e-9)
	assert.Equal(t, entities.ItemKindBaseFood, egg.Kind)

	// ARROZ: Mar 6-10, the Mar 10 noon crisis falls in the Mar 10 window.
	rice := findStat(t, report, "ARROZ")
	assert.Equal(t, 5, rice.ExposureDays)
	assert.Equal(t, 1, rice.TriggeredDays)
	assert.InDelta(t, 2.0, rice.Impact, 1e-9)

	suspects := report.Suspects(15)
	require.Len(t, suspects, 2)
	assert.Equal(t, "OVO", suspects[0].Item)
}

func TestAnalyze_ZeroBasalRiskMeansZeroImpact(t *testing.T) {
	analyzer := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil)

	report, err := analyzer.Analyze(eggHistory(false), entities.DefaultAnalysisParams())
	require.NoError(t, err)

	assert.Zero(t, report.BasalRisk)
	egg := findStat(t, report, "OVO")
	assert.InDelta(t, 0.8, egg.TriggerRate, 1e-9)
	for _, s := range report.Items {
		assert.Zero(t, s.Impact, s.Item)
	}
	assert.Empty(t, report.Suspects(0))
}

func TestAnalyze_EffectWindow(t *testing.T) {
	var entries []entities.LogEntry
	for d := 0; d < 4; d++ {
		entries = append(entries, safe(entry(at(d*5, 9, 0), 3, ovo(entities.LevelLight))))
	}
	// Exposure day 0: crisis at 23:59 the same day.
	entries = append(entries, entry(at(0, 23, 59), 6, nil))
	// Exposure day 5: crisis exactly at the next midnight, after 23:59.
	entries = append(entries, entry(at(6, 0, 0), 6, nil))
	// Exposure day 10: crisis exactly 2 days after midnight.
	entries = append(entries, entry(at(12, 0, 0), 6, nil))
	// Exposure day 15: crisis at midnight of the exposure day, never counted.
	entries = append(entries, entry(at(15, 0, 0), 6, nil))
	sortEntries(entries)

	tests := []struct {
		window    int
		triggered int
	}{
		{0, 1},
		{1, 2},
		{2, 3},
		{3, 3},
	}

	analyzer := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil)
	for _, tt := range tests {
		params := entities.DefaultAnalysisParams()
		params.EffectWindowDays = tt.window

		report, err := analyzer.Analyze(entries, params)
		require.NoError(t, err)
		egg := findStat(t, report, "OVO")
		assert.Equal(t, tt.triggered, egg.TriggeredDays, "window %d", tt.window)
	}
}

func TestAnalyze_MinIntensityAndExposure(t *testing.T) {
	var entries []entities.LogEntry
	for d := 0; d < 6; d++ {
		level := entities.LevelLight
		if d%2 == 0 {
			level = entities.LevelHeavy
		}
		entries = append(entries, safe(entry(at(d, 12, 0), 3, ovo(level))))
	}
	analyzer := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil)

	params := entities.DefaultAnalysisParams()
	report, err := analyzer.Analyze(entries, params)
	require.NoError(t, err)
	assert.Equal(t, 6, findStat(t, report, "OVO").ExposureDays)

	params.MinIntensity = entities.LevelHeavy
	report, err = analyzer.Analyze(entries, params)
	require.NoError(t, err)
	assert.Empty(t, report.Items, "3 heavy days is below the default minimum of 4")
	assert.True(t, report.InsufficientData)

	params.MinExposureDays = 3
	report, err = analyzer.Analyze(entries, params)
	require.NoError(t, err)
	assert.Equal(t, 3, findStat(t, report, "OVO").ExposureDays)
}

func TestAnalyze_ExposureCountsDistinctDaysInSafeHarborOnly(t *testing.T) {
	var entries []entities.LogEntry
	for d := 0; d < 4; d++ {
		entries = append(entries,
			safe(entry(at(d, 8, 0), 3, ovo(entities.LevelNormal))),
			safe(entry(at(d, 19, 0), 3, ovo(entities.LevelNormal))),
		)
	}
	// Not safe harbor: never an exposure.
	entries = append(entries, entry(at(4, 8, 0), 3, ovo(entities.LevelHeavy)))

	report, err := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil).Analyze(entries, entities.DefaultAnalysisParams())
	require.NoError(t, err)
	assert.Equal(t, 4, findStat(t, report, "OVO").ExposureDays)
	assert.Equal(t, 4, report.TotalBaseDays)
}

func TestAnalyze_CompositesAreNotCandidates(t *testing.T) {
	consumed := map[string]entities.Level{
		"PÃO DE QUEIJO": entities.LevelHeavy,
		"QUEIJO":        entities.LevelHeavy,
		"TAPIOCA":       entities.LevelHeavy,
		"OVO":           entities.LevelLight,
		"LACTOSE":       entities.LevelHeavy,
	}
	var entries []entities.LogEntry
	for d := 0; d < 5; d++ {
		entries = append(entries, safe(entry(at(d, 12, 0), 3, consumed)))
	}

	report, err := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil).Analyze(entries, entities.DefaultAnalysisParams())
	require.NoError(t, err)

	var items []string
	for _, s := range report.Items {
		items = append(items, s.Item)
	}
	assert.Equal(t, []string{"LACTOSE", "OVO", "QUEIJO", "TAPIOCA"}, items)
	assert.Equal(t, entities.ItemKindTracker, findStat(t, report, "LACTOSE").Kind)
}

func TestAnalyze_AcuteMode(t *testing.T) {
	analyzer := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil)
	params := entities.DefaultAnalysisParams()
	params.Crisis = entities.CrisisAcute

	report, err := analyzer.Analyze(eggHistory(true), params)
	require.NoError(t, err)

	// Bristol 6 is not acute.
	assert.Zero(t, report.CrisisBaseDays)
	assert.Zero(t, findStat(t, report, "OVO").TriggeredDays)
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	report, err := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil).Analyze(nil, entities.DefaultAnalysisParams())
	require.NoError(t, err)

	assert.True(t, report.InsufficientData)
	assert.True(t, report.LowConfidence)
	assert.Zero(t, report.BasalRisk)
	assert.Empty(t, report.Items)
	assert.Equal(t, int64(1), report.RegistryVersion)
}

func TestAnalyze_InvalidParams(t *testing.T) {
	params := entities.DefaultAnalysisParams()
	params.EffectWindowDays = 7

	_, err := analysis.NewTriggerAnalyzer(paoDeQueijoRegistry(), nil).Analyze(eggHistory(true), params)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAnalyze_RatesStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	items := []string{"OVO", "ARROZ", "QUEIJO", "LACTOSE"}

	for run := 0; run < 50; run++ {
		var records []*entities.RawRecord
		for i := 0; i < 60; i++ {
			fields := map[string]any{
				"Data":              at(rng.Intn(30), 0, 0).Format("02/01/2006"),
				"Hora":              at(0, rng.Intn(24), rng.Intn(60)).Format("15:04"),
				"Escala de Bristol": rng.Intn(8),
			}
			for _, item := range items {
				if rng.Intn(2) == 0 {
					fields[item] = rng.Intn(4)
				}
			}
			records = append(records, record(int64(i), fields))
		}

		params := entities.DefaultAnalysisParams()
		params.EffectWindowDays = rng.Intn(4)
		params.MinIntensity = entities.Level(1 + rng.Intn(3))
		params.MinExposureDays = 1

		report, err := analysis.NewPipeline(analysis.PipelineConfig{}).Triggers(records, paoDeQueijoRegistry(), params)
		require.NoError(t, err)
		for _, s := range report.Items {
			assert.GreaterOrEqual(t, s.TriggerRate, 0.0)
			assert.LessOrEqual(t, s.TriggerRate, 1.0)
			assert.GreaterOrEqual(t, s.Impact, 0.0)
			assert.InDelta(t, (1-s.TriggerRate)*100, s.SafetyPct, 1e-9)
		}
		assert.GreaterOrEqual(t, report.BasalRisk, 0.0)
		assert.LessOrEqual(t, report.BasalRisk, 1.0)
	}
}
