package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/pkg/utils"
)

var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2/1/06",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"15h04",
}

// Layouts tried against the Data cell alone when it already carries a time.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// NormalizerConfig holds the normalizer settings.
type NormalizerConfig struct {
	// Location is used to interpret Data/Hora; defaults to UTC.
	Location *time.Location
	// CrisisThreshold is the general crisis threshold; defaults to 5.
	CrisisThreshold int
}

// NormalizeStats describes what happened to the input records.
type NormalizeStats struct {
	Total   int `json:"total"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
	// UnknownColumns lists item headers not present in the registry.
	UnknownColumns []string `json:"unknown_columns,omitempty"`
}

// Normalizer turns raw store records into sorted LogEntries for one registry.
type Normalizer struct {
	registry *entities.Registry
	config   NormalizerConfig
}

// NewNormalizer creates a normalizer bound to a registry snapshot.
func NewNormalizer(registry *entities.Registry, config NormalizerConfig) *Normalizer {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CrisisThreshold <= 0 {
		config.CrisisThreshold = entities.DefaultCrisisThreshold
	}
	return &Normalizer{registry: registry, config: config}
}

// Normalize converts records into entries sorted by (Timestamp, Seq). Records
// with an unparseable timestamp are dropped. The input is not modified.
func (n *Normalizer) Normalize(records []*entities.RawRecord) ([]entities.LogEntry, NormalizeStats) {
	stats := NormalizeStats{Total: len(records)}
	entries := make([]entities.LogEntry, 0, len(records))
	unknown := make(map[string]struct{})

	for _, rec := range records {
		if rec == nil {
			stats.Dropped++
			continue
		}
		entry, ok := n.normalizeRecord(rec, unknown)
		if !ok {
			stats.Dropped++
			log.Debug().
				Str("record_id", rec.ID).
				Interface("data", rec.Fields[entities.FieldDate]).
				Interface("hora", rec.Fields[entities.FieldTime]).
				Msg("dropping record with unparseable timestamp")
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Seq < entries[j].Seq
	})

	stats.Kept = len(entries)
	if len(unknown) > 0 {
		stats.UnknownColumns = make([]string, 0, len(unknown))
		for h := range unknown {
			stats.UnknownColumns = append(stats.UnknownColumns, h)
		}
		sort.Strings(stats.UnknownColumns)
	}
	return entries, stats
}

func (n *Normalizer) normalizeRecord(rec *entities.RawRecord, unknown map[string]struct{}) (entities.LogEntry, bool) {
	ts, ok := ParseTimestamp(cellString(rec.Fields[entities.FieldDate]), cellString(rec.Fields[entities.FieldTime]), n.config.Location)
	if !ok {
		return entities.LogEntry{}, false
	}

	entry := entities.LogEntry{
		ID:          rec.ID,
		Seq:         rec.Seq,
		Timestamp:   ts,
		Date:        ts.Format(entities.DateLayout),
		Stool:       parseStool(rec.Fields[entities.FieldStool]),
		Consumption: make(map[string]entities.Level),
		Symptoms:    utils.SplitTags(cellString(rec.Fields[entities.FieldSymptoms])),
		Medications: utils.SplitTags(cellString(rec.Fields[entities.FieldMedications])),
		Notes:       strings.TrimSpace(cellString(rec.Fields[entities.FieldNotes])),
	}

	if waist, ok := cellNumber(rec.Fields[entities.FieldWaist]); ok && waist > 0 {
		entry.WaistCm = &waist
	}

	for header, value := range rec.Fields {
		if entities.IsSystemField(header) {
			continue
		}
		level := parseLevel(value)
		item, known := n.registry.Resolve(header)
		if !known {
			if level != entities.LevelNone {
				unknown[header] = struct{}{}
			}
			continue
		}
		if level == entities.LevelNone {
			continue
		}
		expand(entry.Consumption, item, level)
	}

	crisis := entities.GeneralCrisis(n.config.CrisisThreshold)
	entry.IsCrisis = crisis.Matches(&entry)
	entry.IsAcuteCrisis = entities.AcuteCrisis().Matches(&entry)
	return entry, true
}

// expand records one selection into consumption using max-merge. Composites
// expand exactly one level: members are recorded but never expanded further.
func expand(consumption map[string]entities.Level, item entities.Item, level entities.Level) {
	merge(consumption, item.ID, level)
	if item.Kind != entities.ItemKindComposite || item.Composite == nil {
		return
	}
	for _, id := range item.Composite.Main {
		merge(consumption, id, level)
	}
	for _, id := range item.Composite.Minor {
		merge(consumption, id, entities.LevelLight)
	}
	for _, id := range item.Composite.Trackers {
		merge(consumption, id, level)
	}
}

func merge(consumption map[string]entities.Level, id string, level entities.Level) {
	consumption[id] = entities.MaxLevel(consumption[id], level)
}

// ParseTimestamp combines the Data and Hora cells, day first. An empty time
// means midnight.
func ParseTimestamp(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, false
	}

	var day time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, date, loc); err == nil {
			day, parsed = d, true
			break
		}
	}
	if !parsed {
		if clock != "" {
			return time.Time{}, false
		}
		for _, layout := range dateTimeLayouts {
			if t, err := time.ParseInLocation(layout, date, loc); err == nil {
				return t.In(loc), true
			}
		}
		return time.Time{}, false
	}

	if clock == "" {
		return day, true
	}
	for _, layout := range timeLayouts {
		if c, err := time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), true
		}
	}
	return time.Time{}, false
}

// parseStool returns the Bristol scale only for integral values in 1..7.
func parseStool(v any) *int {
	f, ok := cellNumber(v)
	if !ok || f != math.Trunc(f) || f < 1 || f > entities.AcuteCrisisScale {
		return nil
	}
	scale := int(f)
	return &scale
}

// parseLevel coerces an item cell: garbage is 0, fractions truncate, values
// above 3 clamp to 3.
func parseLevel(v any) entities.Level {
	f, ok := cellNumber(v)
	if !ok || f <= 0 {
		return entities.LevelNone
	}
	if f >= float64(entities.LevelHeavy) {
		return entities.LevelHeavy
	}
	return entities.Level(int(f))
}

func cellNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.Replace(x, ",", ".", 1))
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
