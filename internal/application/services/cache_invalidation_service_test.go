package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/portoseguro/backend/internal/adapters/cache"
	"github.com/portoseguro/backend/internal/adapters/events"
	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
)

func seedCache(t *testing.T, c providers.CacheProvider, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, c.Set(context.Background(), key, []byte("{}"), 0))
	}
}

func exists(t *testing.T, c providers.CacheProvider, key string) bool {
	t.Helper()
	ok, err := c.Exists(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestCacheInvalidationService_EntryCreatedDropsReportsAndRecords(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	memCache := cache.NewMemoryAdapter(16)
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	seedCache(t, memCache, "analysis:triggers:v1:n2:w1:i1:d4:general:t5", "records:list", "settings")

	service := services.NewCacheInvalidationService(memCache, bus)
	require.NoError(t, service.Start())
	defer service.Stop()

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelDiaryUpdates,
		entities.NewDiaryEvent(entities.DiaryEventEntryCreated, "rec-1")))

	assert.Eventually(t, func() bool {
		return !exists(t, memCache, "records:list") &&
			!exists(t, memCache, "analysis:triggers:v1:n2:w1:i1:d4:general:t5")
	}, time.Second, 10*time.Millisecond)
	assert.True(t, exists(t, memCache, "settings"))
}

func TestCacheInvalidationService_CatalogUpdateKeepsRecords(t *testing.T) {
	memCache := cache.NewMemoryAdapter(16)
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	seedCache(t, memCache, "analysis:overview:v1:n2:l5", "records:list")

	service := services.NewCacheInvalidationService(memCache, bus)
	require.NoError(t, service.Start())
	defer service.Stop()

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelDiaryUpdates,
		entities.NewDiaryEvent(entities.DiaryEventCatalogUpdated, "ARROZ")))

	assert.Eventually(t, func() bool {
		return !exists(t, memCache, "analysis:overview:v1:n2:l5")
	}, time.Second, 10*time.Millisecond)
	assert.True(t, exists(t, memCache, "records:list"))
}

func TestCacheInvalidationService_InvalidateAll(t *testing.T) {
	memCache := cache.NewMemoryAdapter(16)
	seedCache(t, memCache, "analysis:overview:v1:n2:l5", "records:list", "other")

	service := services.NewCacheInvalidationService(memCache, events.NewMemoryEventBus())
	require.NoError(t, service.InvalidateAll(context.Background()))

	assert.False(t, exists(t, memCache, "analysis:overview:v1:n2:l5"))
	assert.False(t, exists(t, memCache, "records:list"))
	assert.True(t, exists(t, memCache, "other"))
}
