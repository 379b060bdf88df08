package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	"github.com/portoseguro/backend/internal/domain/repositories"
	"github.com/portoseguro/backend/internal/infrastructure/observability"
	apperrors "github.com/portoseguro/backend/pkg/errors"
)

// AnalysisCachePattern matches every cached report.
const AnalysisCachePattern = "analysis:*"

// AnalysisServiceConfig configures report computation and caching.
type AnalysisServiceConfig struct {
	Pipeline analysis.PipelineConfig
	// Defaults fill the params a caller leaves at zero.
	Defaults entities.AnalysisParams
	// CacheTTL <= 0 disables report caching.
	CacheTTL time.Duration
}

// EntriesResult is the normalized, labeled diary.
type EntriesResult struct {
	Entries         []entities.LogEntry     `json:"entries"`
	Stats           analysis.NormalizeStats `json:"stats"`
	RegistryVersion int64                   `json:"registry_version"`
}

// Snapshot is one consistent read of the record store and the catalog.
type Snapshot struct {
	Records  []*entities.RawRecord
	Registry *entities.Registry
}

// AnalysisService runs the batch analysis over the current diary. Every call
// reads a fresh snapshot; nothing is carried over between runs except cached
// reports, which are keyed by registry version and record count.
type AnalysisService struct {
	records  repositories.RecordRepository
	catalog  repositories.CatalogRepository
	cache    providers.CacheProvider
	pipeline *analysis.Pipeline
	defaults entities.AnalysisParams
	cacheTTL int
	metrics  *observability.Metrics
}

// NewAnalysisService creates a new analysis service. cache and metrics may be nil.
func NewAnalysisService(
	records repositories.RecordRepository,
	catalog repositories.CatalogRepository,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
	cfg AnalysisServiceConfig,
) *AnalysisService {
	defaults := cfg.Defaults
	if defaults == (entities.AnalysisParams{}) {
		defaults = entities.DefaultAnalysisParams()
	}
	return &AnalysisService{
		records:  records,
		catalog:  catalog,
		cache:    cache,
		pipeline: analysis.NewPipeline(cfg.Pipeline),
		defaults: defaults,
		cacheTTL: int(cfg.CacheTTL / time.Second),
		metrics:  metrics,
	}
}

// Defaults returns the params used for fields a caller leaves unset.
func (s *AnalysisService) Defaults() entities.AnalysisParams {
	return s.defaults
}

// Snapshot loads records and the registry concurrently.
func (s *AnalysisService) Snapshot(ctx context.Context) (*Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, "AnalysisService.Snapshot")
	defer span.End()

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.records.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}
		snap.Records = records
		return nil
	})
	g.Go(func() error {
		registry, err := s.catalog.Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		snap.Registry = registry
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("diary.records", len(snap.Records)),
		attribute.Int64("diary.registry_version", snap.Registry.Version()),
	)
	return &snap, nil
}

// Entries returns the normalized diary with crisis and safe-harbor flags.
func (s *AnalysisService) Entries(ctx context.Context) (*EntriesResult, error) {
	ctx, span := observability.StartSpan(ctx, "AnalysisService.Entries")
	defer span.End()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	entries, stats, err := s.pipeline.Entries(snap.Records, snap.Registry)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to normalize diary", err)
	}
	observability.RecordAnalysisMetric(ctx, s.metrics, "entries", stats.Dropped, time.Since(start))
	s.logStats(ctx, stats)

	return &EntriesResult{
		Entries:         entries,
		Stats:           stats,
		RegistryVersion: snap.Registry.Version(),
	}, nil
}

// WithDefaults fills zero fields of params from the service defaults.
func (s *AnalysisService) WithDefaults(params entities.AnalysisParams) entities.AnalysisParams {
	if params.MinIntensity == 0 {
		params.MinIntensity = s.defaults.MinIntensity
	}
	if params.MinExposureDays == 0 {
		params.MinExposureDays = s.defaults.MinExposureDays
	}
	if params.Crisis == "" {
		params.Crisis = s.defaults.Crisis
	}
	if params.CrisisThreshold == 0 {
		params.CrisisThreshold = s.defaults.CrisisThreshold
	}
	return params
}

// Triggers computes (or returns the cached) trigger report for params.
// EffectWindowDays is taken as given since 0 is a valid window.
func (s *AnalysisService) Triggers(ctx context.Context, params entities.AnalysisParams) (*entities.TriggerReport, error) {
	ctx, span := observability.StartSpan(ctx, "AnalysisService.Triggers")
	defer span.End()

	params = s.WithDefaults(params)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("analysis.window_days", params.EffectWindowDays),
		attribute.Int("analysis.min_intensity", int(params.MinIntensity)),
		attribute.Int("analysis.min_exposure_days", params.MinExposureDays),
		attribute.String("analysis.crisis", string(params.Crisis)),
	)

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("analysis:triggers:v%d:n%d:w%d:i%d:d%d:%s:t%d",
		snap.Registry.Version(), len(snap.Records),
		params.EffectWindowDays, params.MinIntensity, params.MinExposureDays,
		params.Crisis, params.CrisisThreshold)

	var report entities.TriggerReport
	if s.fromCache(ctx, key, &report) {
		return &report, nil
	}

	start := time.Now()
	entries, stats, err := s.pipeline.Entries(snap.Records, snap.Registry)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to normalize diary", err)
	}
	result, err := s.pipeline.Analyze(entries, snap.Registry, params)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordAnalysisMetric(ctx, s.metrics, "triggers", stats.Dropped, time.Since(start))
	s.logStats(ctx, stats)

	observability.LoggerFromContext(ctx).Info().
		Int("entries", result.TotalEntries).
		Int("base_days", result.TotalBaseDays).
		Float64("basal_risk", result.BasalRisk).
		Int("items", len(result.Items)).
		Bool("low_confidence", result.LowConfidence).
		Msg("trigger analysis completed")

	s.toCache(ctx, key, result)
	return result, nil
}

// Overview summarizes the whole diary.
func (s *AnalysisService) Overview(ctx context.Context, symptomLimit int) (*entities.Overview, error) {
	ctx, span := observability.StartSpan(ctx, "AnalysisService.Overview")
	defer span.End()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("analysis:overview:v%d:n%d:l%d", snap.Registry.Version(), len(snap.Records), symptomLimit)
	var overview entities.Overview
	if s.fromCache(ctx, key, &overview) {
		return &overview, nil
	}

	start := time.Now()
	entries, stats, err := s.pipeline.Entries(snap.Records, snap.Registry)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewInternalError("failed to normalize diary", err)
	}
	result := analysis.BuildOverview(entries, snap.Registry, symptomLimit)
	observability.RecordAnalysisMetric(ctx, s.metrics, "overview", stats.Dropped, time.Since(start))

	s.toCache(ctx, key, result)
	return result, nil
}

func (s *AnalysisService) fromCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx, s.metrics, "analysis")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("discarding undecodable cached report")
		return false
	}
	observability.RecordCacheHit(ctx, s.metrics, "analysis")
	return true
}

func (s *AnalysisService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache report")
	}
}

func (s *AnalysisService) logStats(ctx context.Context, stats analysis.NormalizeStats) {
	if stats.Dropped == 0 && len(stats.UnknownColumns) == 0 {
		return
	}
	observability.LoggerFromContext(ctx).Debug().
		Int("dropped", stats.Dropped).
		Strs("unknown_columns", stats.UnknownColumns).
		Msg("records normalized with losses")
}
