package database

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/providers"
	"github.com/portoseguro/backend/internal/domain/repositories"
)

// CachedRecordAdapter wraps a RecordRepository with a read-through cache of
// the full record list.
type CachedRecordAdapter struct {
	adapter repositories.RecordRepository
	cache   providers.CacheProvider
}

// NewCachedRecordAdapter creates a new cached record adapter
func NewCachedRecordAdapter(adapter repositories.RecordRepository, cache providers.CacheProvider) repositories.RecordRepository {
	return &CachedRecordAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	recordListTTL  = 600
	recordCountTTL = 600
)

// Cache keys; both live under the records: prefix so one pattern clears them.
const (
	RecordCachePattern  = "records:*"
	recordListCacheKey  = "records:list"
	recordCountCacheKey = "records:count"
)

// List returns all records, from cache when possible.
func (a *CachedRecordAdapter) List(ctx context.Context) ([]*entities.RawRecord, error) {
	if cached, err := a.cache.Get(ctx, recordListCacheKey); err == nil {
		var records []*entities.RawRecord
		decodeErr := unmarshalRecords(cached, &records)
		if decodeErr == nil {
			return records, nil
		}
		log.Warn().Err(decodeErr).Msg("failed to unmarshal cached record list")
	}

	records, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := a.cache.Set(ctx, recordListCacheKey, data, recordListTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache record list")
		}
	}
	return records, nil
}

// Append writes through and invalidates the cached list.
func (a *CachedRecordAdapter) Append(ctx context.Context, record *entities.RawRecord) error {
	if err := a.adapter.Append(ctx, record); err != nil {
		return err
	}
	if err := a.cache.DeletePattern(ctx, RecordCachePattern); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate record cache")
	}
	return nil
}

// Count returns the record count, from cache when possible.
func (a *CachedRecordAdapter) Count(ctx context.Context) (int, error) {
	if cached, err := a.cache.Get(ctx, recordCountCacheKey); err == nil {
		var n int
		decodeErr := json.Unmarshal(cached, &n)
		if decodeErr == nil {
			return n, nil
		}
		log.Warn().Err(decodeErr).Msg("failed to unmarshal cached record count")
	}

	n, err := a.adapter.Count(ctx)
	if err != nil {
		return 0, err
	}
	if data, err := json.Marshal(n); err == nil {
		if err := a.cache.Set(ctx, recordCountCacheKey, data, recordCountTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache record count")
		}
	}
	return n, nil
}

// unmarshalRecords decodes cached records keeping numbers as json.Number,
// the same shape the database adapter returns.
func unmarshalRecords(data []byte, out *[]*entities.RawRecord) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}
