package database_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portoseguro/backend/internal/adapters/cache"
	"github.com/portoseguro/backend/internal/adapters/database"
	"github.com/portoseguro/backend/internal/domain/entities"
)

// countingRepository records how often the backing store is hit.
type countingRepository struct {
	records []*entities.RawRecord
	lists   int
	counts  int
}

func (r *countingRepository) List(ctx context.Context) ([]*entities.RawRecord, error) {
	r.lists++
	return r.records, nil
}

func (r *countingRepository) Append(ctx context.Context, record *entities.RawRecord) error {
	record.Seq = int64(len(r.records) + 1)
	r.records = append(r.records, record)
	return nil
}

func (r *countingRepository) Count(ctx context.Context) (int, error) {
	r.counts++
	return len(r.records), nil
}

func TestCachedRecordAdapter_ListReadsThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepository{records: []*entities.RawRecord{
		{ID: "a", Seq: 1, Fields: map[string]any{entities.FieldStool: 6}},
	}}
	repo := database.NewCachedRecordAdapter(backing, cache.NewMemoryAdapter(16))

	first, err := repo.List(ctx)
	require.NoError(t, err)
	second, err := repo.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.lists)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, json.Number("6"), second[0].Fields[entities.FieldStool])
}

func TestCachedRecordAdapter_AppendInvalidates(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepository{}
	repo := database.NewCachedRecordAdapter(backing, cache.NewMemoryAdapter(16))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = repo.List(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, &entities.RawRecord{ID: "b", Fields: map[string]any{}}))

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	assert.Equal(t, 2, backing.lists)
	assert.Equal(t, 2, backing.counts)
}

func TestCachedRecordAdapter_CorruptEntryFallsBackAndLogsDecodeError(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	ctx := context.Background()
	memCache := cache.NewMemoryAdapter(16)
	require.NoError(t, memCache.Set(ctx, "records:list", []byte("{not json"), 60))
	require.NoError(t, memCache.Set(ctx, "records:count", []byte("\"many\""), 60))

	backing := &countingRepository{records: []*entities.RawRecord{{ID: "a", Seq: 1, Fields: map[string]any{}}}}
	repo := database.NewCachedRecordAdapter(backing, memCache)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, backing.lists)
	assert.Equal(t, 1, backing.counts)

	var lines []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, "warn", line["level"])
		assert.NotEmpty(t, line["error"], line["message"])
	}
}
