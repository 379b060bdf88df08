package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
)

// recordCachePattern matches the cached record list kept by the database layer.
const recordCachePattern = "records:*"

// CacheInvalidationService drops cached reports whenever the diary or the
// catalog changes.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelDiaryUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to diary updates: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit.
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.DiaryEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.DiaryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("subject_id", event.SubjectID).
		Msg("processing cache invalidation")

	patterns := []string{AnalysisCachePattern}
	if event.EventType == entities.DiaryEventEntryCreated {
		patterns = append(patterns, recordCachePattern)
	}
	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate cache")
		}
	}
}

// InvalidateAll drops every cached report and record list.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{AnalysisCachePattern, recordCachePattern} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	log.Info().Msg("invalidated analysis and record caches")
	return nil
}
