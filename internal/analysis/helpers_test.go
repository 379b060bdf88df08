package analysis_test

import (
	"fmt"
	"sort"
	"time"

	"github.com/portoseguro/backend/internal/domain/entities"
)

var day0 = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

// at returns day0 + day days at hh:mm.
func at(day, hh, mm int) time.Time {
	return day0.AddDate(0, 0, day).Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func scale(v int) *int { return &v }

// entry builds a normalized entry. A zero stool means no bowel movement.
func entry(ts time.Time, stool int, consumption map[string]entities.Level) entities.LogEntry {
	e := entities.LogEntry{
		Timestamp:   ts,
		Date:        ts.Format(entities.DateLayout),
		Consumption: consumption,
	}
	if e.Consumption == nil {
		e.Consumption = map[string]entities.Level{}
	}
	if stool > 0 {
		e.Stool = scale(stool)
	}
	e.IsCrisis = entities.GeneralCrisis(5).Matches(&e)
	e.IsAcuteCrisis = entities.AcuteCrisis().Matches(&e)
	return e
}

func safe(e entities.LogEntry) entities.LogEntry {
	e.IsSafeHarbor = true
	return e
}

func record(seq int64, fields map[string]any) *entities.RawRecord {
	return &entities.RawRecord{ID: fmt.Sprintf("rec-%d", seq), Seq: seq, Fields: fields}
}

func paoDeQueijoRegistry() *entities.Registry {
	return entities.MustRegistry(1, []entities.Item{
		{ID: "OVO", Kind: entities.ItemKindBaseFood},
		{ID: "ARROZ", Kind: entities.ItemKindBaseFood},
		{ID: "GLUTEN", Kind: entities.ItemKindTracker},
		{ID: "PÃO DE QUEIJO", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main:     []string{"QUEIJO", "TAPIOCA"},
			Minor:    []string{"OVO"},
			Trackers: []string{"LACTOSE"},
		}},
	})
}

func sortEntries(entries []entities.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
}
