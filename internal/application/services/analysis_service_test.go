package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/portoseguro/backend/internal/adapters/cache"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
	apperrors "github.com/portoseguro/backend/pkg/errors"
	"github.com/portoseguro/backend/tests/mocks"
)

func newAnalysisService(t *testing.T, records []*entities.RawRecord, memCache *cache.MemoryAdapter) *services.AnalysisService {
	t.Helper()
	recordRepo := mocks.NewMockRecordRepository(t)
	catalogRepo := mocks.NewMockCatalogRepository(t)
	recordRepo.EXPECT().List(mock.Anything).Return(records, nil).Maybe()
	catalogRepo.EXPECT().Load(mock.Anything).Return(diaryRegistry(3), nil).Maybe()

	return services.NewAnalysisService(recordRepo, catalogRepo, memCache, nil, services.AnalysisServiceConfig{
		CacheTTL: time.Minute,
	})
}

func twoDayDiary() []*entities.RawRecord {
	return []*entities.RawRecord{
		sheetRow(1, "01/03/2024", "08:00", 4, map[string]int{"ARROZ": 2}),
		sheetRow(2, "02/03/2024", "08:00", 7, nil),
	}
}

func TestAnalysisService_Triggers_FillsDefaultsAndCaches(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryAdapter(16)
	service := newAnalysisService(t, twoDayDiary(), memCache)

	report, err := service.Triggers(ctx, entities.AnalysisParams{EffectWindowDays: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalEntries)
	assert.Equal(t, int64(3), report.RegistryVersion)
	assert.Equal(t, entities.DefaultMinIntensity, report.Params.MinIntensity)
	assert.Equal(t, entities.DefaultMinExposureDays, report.Params.MinExposureDays)
	assert.Equal(t, entities.CrisisGeneral, report.Params.Crisis)
	assert.Equal(t, entities.DefaultCrisisThreshold, report.Params.CrisisThreshold)

	exists, err := memCache.Exists(ctx, "analysis:triggers:v3:n2:w1:i1:d4:general:t5")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAnalysisService_Triggers_ServesCachedReport(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryAdapter(16)
	service := newAnalysisService(t, twoDayDiary(), memCache)

	cached := entities.TriggerReport{BasalRisk: 0.42, TotalEntries: 99}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, memCache.Set(ctx, "analysis:triggers:v3:n2:w0:i2:d3:acute:t5", data, 60))

	report, err := service.Triggers(ctx, entities.AnalysisParams{
		EffectWindowDays: 0,
		MinIntensity:     entities.LevelNormal,
		MinExposureDays:  3,
		Crisis:           entities.CrisisAcute,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.42, report.BasalRisk)
	assert.Equal(t, 99, report.TotalEntries)
}

func TestAnalysisService_Triggers_RejectsInvalidParams(t *testing.T) {
	service := newAnalysisService(t, nil, nil)

	_, err := service.Triggers(context.Background(), entities.AnalysisParams{EffectWindowDays: 4})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = service.Triggers(context.Background(), entities.AnalysisParams{EffectWindowDays: 1, Crisis: "severe"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAnalysisService_Triggers_PropagatesStoreFailure(t *testing.T) {
	recordRepo := mocks.NewMockRecordRepository(t)
	catalogRepo := mocks.NewMockCatalogRepository(t)
	storeErr := errors.New("connection refused")
	recordRepo.EXPECT().List(mock.Anything).Return(nil, storeErr)
	catalogRepo.EXPECT().Load(mock.Anything).Return(diaryRegistry(1), nil).Maybe()

	service := services.NewAnalysisService(recordRepo, catalogRepo, nil, nil, services.AnalysisServiceConfig{})

	_, err := service.Triggers(context.Background(), entities.AnalysisParams{EffectWindowDays: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}

func TestAnalysisService_Entries_DropsUnparseableRecords(t *testing.T) {
	records := append(twoDayDiary(), sheetRow(3, "yesterday", "noon", 3, nil))
	service := newAnalysisService(t, records, nil)

	result, err := service.Entries(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, 1, result.Stats.Dropped)
	assert.Equal(t, int64(3), result.RegistryVersion)
	assert.Equal(t, entities.LevelNormal, result.Entries[0].Consumption["ARROZ"])
	assert.True(t, result.Entries[1].IsAcuteCrisis)
	assert.True(t, result.Entries[1].IsCrisis)
}

func TestAnalysisService_Overview_CachesByLimit(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryAdapter(16)
	service := newAnalysisService(t, twoDayDiary(), memCache)

	overview, err := service.Overview(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalEntries)
	assert.Equal(t, 1, overview.AcuteEntries)

	exists, err := memCache.Exists(ctx, "analysis:overview:v3:n2:l5")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAnalysisService_DefaultsWhenUnconfigured(t *testing.T) {
	service := services.NewAnalysisService(nil, nil, nil, nil, services.AnalysisServiceConfig{})
	assert.Equal(t, entities.DefaultAnalysisParams(), service.Defaults())
}
