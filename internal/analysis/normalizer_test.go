package analysis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/internal/domain/entities"
)

func TestNormalize_CompositeExpansion(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})

	entries, stats := n.Normalize([]*entities.RawRecord{
		record(1, map[string]any{
			"Data":          "05/03/2024",
			"Hora":          "08:30",
			"PÃO DE QUEIJO": 3,
		}),
	})
	require.Len(t, entries, 1)
	assert.Equal(t, 1, stats.Kept)

	assert.Equal(t, map[string]entities.Level{
		"PÃO DE QUEIJO": entities.LevelHeavy,
		"QUEIJO":        entities.LevelHeavy,
		"TAPIOCA":       entities.LevelHeavy,
		"OVO":           entities.LevelLight,
		"LACTOSE":       entities.LevelHeavy,
	}, entries[0].Consumption)
}

func TestNormalize_MaxMergeNeverSums(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})

	entries, _ := n.Normalize([]*entities.RawRecord{
		record(1, map[string]any{
			"Data":          "05/03/2024",
			"Hora":          "12:00",
			"PÃO DE QUEIJO": "1",
			"OVO":           "2",
			"LACTOSE":       1,
			"queijo":        "3",
		}),
	})
	require.Len(t, entries, 1)
	c := entries[0].Consumption

	assert.Equal(t, entities.LevelNormal, c["OVO"], "direct 2 beats minor 1")
	assert.Equal(t, entities.LevelLight, c["LACTOSE"], "tracker 1 and bare 1")
	assert.Equal(t, entities.LevelHeavy, c["QUEIJO"], "direct 3 beats main 1")
	assert.Equal(t, entities.LevelLight, c["TAPIOCA"])
	assert.Equal(t, entities.LevelLight, c["PÃO DE QUEIJO"])
}

func TestNormalize_Idempotent(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})
	records := []*entities.RawRecord{
		record(2, map[string]any{"Data": "06/03/2024", "Hora": "09:00", "PÃO DE QUEIJO": 2, "Características": "Gases, dor"}),
		record(1, map[string]any{"Data": "05/03/2024", "Hora": "21:00", "OVO": 1, "Escala de Bristol": 6}),
	}

	first, firstStats := n.Normalize(records)
	second, secondStats := n.Normalize(records)

	assert.Equal(t, first, second)
	assert.Equal(t, firstStats, secondStats)
	assert.Equal(t, "06/03/2024", records[0].Fields["Data"], "input is not modified")
}

func TestNormalize_DropsUnparseableTimestamps(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})

	entries, stats := n.Normalize([]*entities.RawRecord{
		record(1, map[string]any{"Data": "31/02/2024", "Hora": "10:00"}),
		record(2, map[string]any{"Data": "", "Hora": "10:00"}),
		record(3, map[string]any{"Data": "05/03/2024", "Hora": "nope"}),
		nil,
		record(5, map[string]any{"Data": "05/03/2024", "Hora": "10:00"}),
	})

	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].Seq)
	assert.Equal(t, analysis.NormalizeStats{Total: 5, Kept: 1, Dropped: 4}, stats)
}

func TestNormalize_SortsByTimestampThenSeq(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})

	entries, _ := n.Normalize([]*entities.RawRecord{
		record(3, map[string]any{"Data": "05/03/2024", "Hora": "10:00"}),
		record(1, map[string]any{"Data": "06/03/2024", "Hora": "08:00"}),
		record(2, map[string]any{"Data": "05/03/2024", "Hora": "10:00"}),
		record(4, map[string]any{"Data": "04/03/2024", "Hora": "23:00"}),
	})

	var seqs []int64
	for _, e := range entries {
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []int64{4, 2, 3, 1}, seqs)
}

func TestNormalize_StoolScale(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *int
	}{
		{"string", "5", scale(5)},
		{"float", 7.0, scale(7)},
		{"int", 1, scale(1)},
		{"fractional", "5.5", nil},
		{"out of range", 8, nil},
		{"zero", 0, nil},
		{"empty", "", nil},
		{"garbage", "líquida", nil},
		{"missing", nil, nil},
	}

	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]any{"Data": "05/03/2024", "Hora": "10:00"}
			if tt.value != nil {
				fields["Escala de Bristol"] = tt.value
			}
			entries, _ := n.Normalize([]*entities.RawRecord{record(1, fields)})
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Stool)
		})
	}
}

func TestNormalize_ConsumptionCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  entities.Level
	}{
		{"garbage", "abc", entities.LevelNone},
		{"empty", "", entities.LevelNone},
		{"negative", -1, entities.LevelNone},
		{"fractional truncates", "2.7", entities.LevelNormal},
		{"comma decimal", "1,5", entities.LevelLight},
		{"clamped", 5, entities.LevelHeavy},
		{"float", 2.0, entities.LevelNormal},
	}

	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _ := n.Normalize([]*entities.RawRecord{record(1, map[string]any{
				"Data": "05/03/2024", "Hora": "10:00", "ARROZ": tt.value,
			})})
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level("ARROZ"))
			if tt.want == entities.LevelNone {
				assert.NotContains(t, entries[0].Consumption, "ARROZ")
			}
		})
	}
}

func TestNormalize_TagsWaistAndFlags(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{CrisisThreshold: 6})

	entries, stats := n.Normalize([]*entities.RawRecord{record(1, map[string]any{
		"Data":              "05/03/2024",
		"Hora":              "10:00",
		"Escala de Bristol": 6,
		"Características":   "Gases, Dor;  Inchaço  dor",
		"Remédios":          "Buscopan",
		"Circunferencia":    "82,5",
		"Notas":             "  viagem ",
		"CHOCOLATE":         2,
	})})
	require.Len(t, entries, 1)
	e := entries[0]

	assert.Equal(t, []string{"dor", "gases", "inchaço"}, e.Symptoms)
	assert.Equal(t, []string{"buscopan"}, e.Medications)
	require.NotNil(t, e.WaistCm)
	assert.InDelta(t, 82.5, *e.WaistCm, 1e-9)
	assert.Equal(t, "viagem", e.Notes)
	assert.True(t, e.IsCrisis)
	assert.False(t, e.IsAcuteCrisis)
	assert.Equal(t, "2024-03-05", e.Date)
	assert.Equal(t, []string{"CHOCOLATE"}, stats.UnknownColumns)
}

func TestNormalize_ZeroWaistIsAbsent(t *testing.T) {
	n := analysis.NewNormalizer(paoDeQueijoRegistry(), analysis.NormalizerConfig{})
	entries, _ := n.Normalize([]*entities.RawRecord{record(1, map[string]any{
		"Data": "05/03/2024", "Hora": "10:00", "Circunferencia": 0,
	})})
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].WaistCm)
}

func TestParseTimestamp(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	tests := []struct {
		date, clock string
		want        time.Time
		ok          bool
	}{
		{"05/03/2024", "14:30", time.Date(2024, 3, 5, 14, 30, 0, 0, saoPaulo), true},
		{"5/3/2024", "9:05", time.Date(2024, 3, 5, 9, 5, 0, 0, saoPaulo), true},
		{"05-03-2024", "", time.Date(2024, 3, 5, 0, 0, 0, 0, saoPaulo), true},
		{"05.03.2024", "14:30:15", time.Date(2024, 3, 5, 14, 30, 15, 0, saoPaulo), true},
		{"2024-03-05", "14:30", time.Date(2024, 3, 5, 14, 30, 0, 0, saoPaulo), true},
		{"2024-03-05 14:30:00", "", time.Date(2024, 3, 5, 14, 30, 0, 0, saoPaulo), true},
		{"31/02/2024", "10:00", time.Time{}, false},
		{"05/03/2024", "25:00", time.Time{}, false},
		{"ontem", "10:00", time.Time{}, false},
		{"", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.date+" "+tt.clock, func(t *testing.T) {
			got, ok := analysis.ParseTimestamp(tt.date, tt.clock, saoPaulo)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			}
		})
	}
}
