package services_test

import (
	"fmt"

	"github.com/portoseguro/backend/internal/domain/entities"
)

func diaryRegistry(version int64) *entities.Registry {
	return entities.MustRegistry(version, []entities.Item{
		{ID: "ARROZ", Kind: entities.ItemKindBaseFood},
		{ID: "FEIJÃO", Kind: entities.ItemKindBaseFood},
		{ID: "GLUTEN", Kind: entities.ItemKindTracker},
		{ID: "PÃO DE QUEIJO", Kind: entities.ItemKindComposite, Composite: &entities.CompositeDef{
			Main:     []string{"POLVILHO", "QUEIJO"},
			Minor:    []string{"OVO"},
			Trackers: []string{"LACTOSE"},
		}},
	})
}

func sheetRow(seq int64, date, clock string, stool int, items map[string]int) *entities.RawRecord {
	fields := map[string]any{
		entities.FieldDate: date,
		entities.FieldTime: clock,
	}
	if stool > 0 {
		fields[entities.FieldStool] = stool
	}
	for id, level := range items {
		fields[id] = level
	}
	return &entities.RawRecord{ID: fmt.Sprintf("rec-%d", seq), Seq: seq, Fields: fields}
}

func intPtr(v int) *int { return &v }
