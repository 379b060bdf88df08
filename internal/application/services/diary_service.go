package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	"github.com/portoseguro/backend/internal/domain/repositories"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	apperrors "github.com/portoseguro/backend/pkg/errors"
	"github.com/portoseguro/backend/pkg/utils"
)

const (
	sheetDateLayout = "02/01/2006"
	sheetTimeLayout = "15:04"
	diarrheaMark    = "S"
)

// DiaryService records new diary entries.
type DiaryService struct {
	records         repositories.RecordRepository
	catalog         repositories.CatalogRepository
	eventBus        providers.EventBus
	location        *time.Location
	crisisThreshold int
	now             func() time.Time
}

// NewDiaryService creates a new diary service. eventBus may be nil.
func NewDiaryService(
	records repositories.RecordRepository,
	catalog repositories.CatalogRepository,
	eventBus providers.EventBus,
	location *time.Location,
	crisisThreshold int,
) *DiaryService {
	if location == nil {
		location = time.UTC
	}
	if crisisThreshold <= 0 {
		crisisThreshold = entities.DefaultCrisisThreshold
	}
	return &DiaryService{
		records:         records,
		catalog:         catalog,
		eventBus:        eventBus,
		location:        location,
		crisisThreshold: crisisThreshold,
		now:             time.Now,
	}
}

// CreateEntry validates the request, stores it as a sheet-shaped record and
// announces it on the event bus.
func (s *DiaryService) CreateEntry(ctx context.Context, req *entities.NewEntryRequest) (*entities.RawRecord, error) {
	ctx, span := observability.StartSpan(ctx, "DiaryService.CreateEntry")
	defer span.End()

	if req == nil {
		return nil, apperrors.NewValidationError("entry is required")
	}

	registry, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.BuildRecord(req, registry)
	if err != nil {
		return nil, err
	}

	if err := s.records.Append(ctx, record); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("record_id", record.ID).
		Int64("seq", record.Seq).
		Msg("diary entry recorded")

	publish(ctx, s.eventBus, entities.NewDiaryEvent(entities.DiaryEventEntryCreated, record.ID))
	return record, nil
}

// BuildRecord turns a request into the row the diary sheet would hold:
// Data as dd/mm/yyyy, Hora as HH:MM, Diarreia "S" for loose stools, joined
// tag lists, and one column per selected item at its highest level.
func (s *DiaryService) BuildRecord(req *entities.NewEntryRequest, registry *entities.Registry) (*entities.RawRecord, error) {
	now := s.now().In(s.location)
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format(sheetDateLayout)
	}
	clock := strings.TrimSpace(req.Time)
	if clock == "" {
		clock = now.Format(sheetTimeLayout)
	}
	ts, ok := analysis.ParseTimestamp(date, clock, s.location)
	if !ok {
		return nil, apperrors.NewValidationErrorf("invalid date/time %q %q", req.Date, req.Time)
	}

	fields := map[string]any{
		entities.FieldDate:        ts.Format(sheetDateLayout),
		entities.FieldTime:        ts.Format(sheetTimeLayout),
		entities.FieldStool:       "",
		entities.FieldDiarrhea:    "",
		entities.FieldSymptoms:    utils.JoinTags(req.Symptoms),
		entities.FieldMedications: utils.JoinTags(req.Medications),
		entities.FieldWaist:       "",
		entities.FieldNotes:       strings.TrimSpace(req.Notes),
		entities.FieldMood:        strings.TrimSpace(req.Mood),
	}

	if req.Stool != nil {
		stool := *req.Stool
		if stool < 1 || stool > entities.AcuteCrisisScale {
			return nil, apperrors.NewValidationErrorf("bristol scale must be between 1 and %d, got %d", entities.AcuteCrisisScale, stool)
		}
		fields[entities.FieldStool] = stool
		if stool >= s.crisisThreshold {
			fields[entities.FieldDiarrhea] = diarrheaMark
		}
	}

	if req.WaistCm < 0 {
		return nil, apperrors.NewValidationErrorf("waist circumference cannot be negative, got %.1f", req.WaistCm)
	}
	if req.WaistCm > 0 {
		fields[entities.FieldWaist] = req.WaistCm
	}

	levels, err := resolveSelections(req.Selections, registry)
	if err != nil {
		return nil, err
	}
	for id, level := range levels {
		fields[id] = int(level)
	}

	return &entities.RawRecord{Fields: fields}, nil
}

// resolveSelections validates selected items and keeps the highest level per item.
func resolveSelections(selections map[entities.Level][]string, registry *entities.Registry) (map[string]entities.Level, error) {
	levels := make(map[string]entities.Level)
	var unknown []string
	for level, names := range selections {
		if len(names) == 0 {
			continue
		}
		if !level.Valid() {
			return nil, apperrors.NewValidationErrorf("invalid consumption level %d", level)
		}
		for _, name := range names {
			item, ok := registry.Resolve(name)
			if !ok {
				unknown = append(unknown, utils.CanonicalItemID(name))
				continue
			}
			levels[item.ID] = entities.MaxLevel(levels[item.ID], level)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewValidationErrorf("unknown items: %s", strings.Join(unknown, ", "))
	}
	return levels, nil
}

// publish announces a change; delivery failures never fail the write.
func publish(ctx context.Context, bus providers.EventBus, event *entities.DiaryEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, providers.EventChannelDiaryUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("event_type", string(event.EventType)).
			Str("subject_id", event.SubjectID).
			Msg("failed to publish event")
	}
}
