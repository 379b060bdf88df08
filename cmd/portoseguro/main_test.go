package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
)

// writeExport writes ten days of morning entries; FEIJÃO on even days is
// followed by a loose stool in the evening.
func writeExport(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("Data,Hora,Escala de Bristol,Diarreia,Características,ARROZ,FEIJÃO\n")
	for day := 1; day <= 10; day++ {
		feijao := ""
		if day%2 == 0 {
			feijao = "2"
		}
		fmt.Fprintf(&sb, "%02d/03/2024,08:00,4,N,,2,%s\n", day, feijao)
		if day%2 == 0 {
			fmt.Fprintf(&sb, "%02d/03/2024,20:00,6,S,Cólica,,\n", day)
		}
	}
	path := filepath.Join(t.TempDir(), "diario.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTriggersCommand_JSON(t *testing.T) {
	path := writeExport(t)

	out, err := execute(t, "triggers", "--csv", path, "--format", "json", "--window", "0", "--min-days", "1")
	require.NoError(t, err)

	var got triggersOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Report)
	assert.Equal(t, 15, got.Report.TotalEntries)
	assert.Equal(t, 0, got.Report.Params.EffectWindowDays)
	assert.Equal(t, 1, got.Report.Params.MinExposureDays)
	assert.Equal(t, entities.CrisisGeneral, got.Report.Params.Crisis)
}

func TestTriggersCommand_InvalidParams(t *testing.T) {
	path := writeExport(t)

	_, err := execute(t, "triggers", "--csv", path, "--window", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effect window")
}

func TestEntriesCommand_Table(t *testing.T) {
	path := writeExport(t)

	out, err := execute(t, "entries", "--csv", path, "--last", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Diary")
	assert.Contains(t, out, "2024-03-10")
	assert.Contains(t, out, "15 rows read, 15 kept, 0 dropped")
}

func TestRootCommand_UnknownFormat(t *testing.T) {
	path := writeExport(t)

	_, err := execute(t, "overview", "--csv", path, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestSelectEntries(t *testing.T) {
	entries := []entities.LogEntry{
		{ID: "a", IsCrisis: true},
		{ID: "b"},
		{ID: "c", IsCrisis: true},
		{ID: "d", IsCrisis: true},
	}

	crises := selectEntries(entries, true, 2)
	require.Len(t, crises, 2)
	assert.Equal(t, "c", crises[0].ID)
	assert.Equal(t, "d", crises[1].ID)
	assert.Len(t, entries, 4)

	assert.Len(t, selectEntries(entries, false, 0), 4)
}

func TestConsumed(t *testing.T) {
	e := entities.LogEntry{Consumption: map[string]entities.Level{
		"ARROZ":  entities.LevelLight,
		"FEIJÃO": entities.LevelHeavy,
		"OVO":    entities.LevelNone,
		"BANANA": entities.LevelLight,
	}}
	assert.Equal(t, "FEIJÃO(3), ARROZ(1), BANANA(1)", consumed(e))
}

func TestRenderOverview(t *testing.T) {
	first := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	o := &entities.Overview{
		TotalEntries:  1500,
		TotalDays:     10,
		CrisisEntries: 5,
		ItemDays:      []entities.ItemDays{{Item: "ARROZ", Kind: entities.ItemKindBaseFood, Days: 10}},
		Waist:         []entities.WaistPoint{{Timestamp: last, WaistCm: 82.5}},
		FirstEntry:    &first,
		LastEntry:     &last,
	}

	out := renderOverview(o, last.Add(72*time.Hour))
	assert.Contains(t, out, "Entries: 1,500 over 10 day(s)")
	assert.Contains(t, out, "From 01/03/2024 to 10/03/2024 (last entry 3 days ago)")
	assert.Contains(t, out, "ARROZ")
	assert.Contains(t, out, "No symptoms recorded.")
	assert.Contains(t, out, "Latest waist: 82.5 cm")
}

func TestRenderEntries_UnknownColumns(t *testing.T) {
	stool := 6
	out := renderEntries(&services.EntriesResult{
		Entries: []entities.LogEntry{{
			Date:          "2024-03-02",
			Timestamp:     time.Date(2024, 3, 2, 20, 15, 0, 0, time.UTC),
			Stool:         &stool,
			IsCrisis:      true,
			IsAcuteCrisis: true,
		}},
		Stats: analysis.NormalizeStats{Total: 2, Kept: 1, Dropped: 1, UnknownColumns: []string{"KIWI"}},
	})
	assert.Contains(t, out, "20:15")
	assert.Contains(t, out, "acute")
	assert.Contains(t, out, "2 rows read, 1 kept, 1 dropped")
	assert.Contains(t, out, "Columns not in the catalog: KIWI")
}
