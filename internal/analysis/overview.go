package analysis

import (
	"sort"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// DefaultSymptomLimit is how many symptom tags the overview lists.
const DefaultSymptomLimit = 10

// BuildOverview summarizes the whole diary. Unlike trigger analysis it looks at
// every entry and includes composites, so the history can be browsed by dish.
// symptomLimit <= 0 uses DefaultSymptomLimit.
func BuildOverview(entries []entities.LogEntry, registry *entities.Registry, symptomLimit int) *entities.Overview {
	if symptomLimit <= 0 {
		symptomLimit = DefaultSymptomLimit
	}

	ov := &entities.Overview{
		TotalEntries: len(entries),
		ItemDays:     []entities.ItemDays{},
		Symptoms:     []entities.SymptomCount{},
		Waist:        []entities.WaistPoint{},
	}
	if len(entries) == 0 {
		return ov
	}

	days := make(map[string]struct{})
	itemDays := make(map[string]map[string]struct{})
	tagCounts := make(map[string]int)

	for i := range entries {
		e := &entries[i]
		days[e.Date] = struct{}{}
		if e.IsCrisis {
			ov.CrisisEntries++
		}
		if e.IsAcuteCrisis {
			ov.AcuteEntries++
		}
		if e.IsSafeHarbor {
			ov.SafeHarborEntries++
		}
		for id, level := range e.Consumption {
			if level < entities.LevelLight {
				continue
			}
			if itemDays[id] == nil {
				itemDays[id] = make(map[string]struct{})
			}
			itemDays[id][e.Date] = struct{}{}
		}
		for _, tag := range e.Symptoms {
			tagCounts[tag]++
		}
		if e.WaistCm != nil && *e.WaistCm > 0 {
			ov.Waist = append(ov.Waist, entities.WaistPoint{Timestamp: e.Timestamp, WaistCm: *e.WaistCm})
		}
	}
	ov.TotalDays = len(days)

	first, last := entries[0].Timestamp, entries[len(entries)-1].Timestamp
	for i := range entries {
		if entries[i].Timestamp.Before(first) {
			first = entries[i].Timestamp
		}
		if entries[i].Timestamp.After(last) {
			last = entries[i].Timestamp
		}
	}
	ov.FirstEntry, ov.LastEntry = &first, &last

	for id, set := range itemDays {
		kind := entities.ItemKindBaseFood
		if registry != nil {
			if item, ok := registry.Resolve(id); ok {
				kind = item.Kind
			}
		}
		ov.ItemDays = append(ov.ItemDays, entities.ItemDays{Item: id, Kind: kind, Days: len(set)})
	}
	sort.Slice(ov.ItemDays, func(i, j int) bool {
		if ov.ItemDays[i].Days != ov.ItemDays[j].Days {
			return ov.ItemDays[i].Days > ov.ItemDays[j].Days
		}
		return ov.ItemDays[i].Item < ov.ItemDays[j].Item
	})

	for tag, count := range tagCounts {
		ov.Symptoms = append(ov.Symptoms, entities.SymptomCount{
			Tag:   tag,
			Count: count,
			Pct:   float64(count) * 100 / float64(len(entries)),
		})
	}
	sort.Slice(ov.Symptoms, func(i, j int) bool {
		if ov.Symptoms[i].Count != ov.Symptoms[j].Count {
			return ov.Symptoms[i].Count > ov.Symptoms[j].Count
		}
		return ov.Symptoms[i].Tag < ov.Symptoms[j].Tag
	})
	if len(ov.Symptoms) > symptomLimit {
		ov.Symptoms = ov.Symptoms[:symptomLimit]
	}

	return ov
}
