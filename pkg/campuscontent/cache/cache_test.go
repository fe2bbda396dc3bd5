package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/cache"
	memoryrepo "github.com/tendant/campus-content/pkg/campuscontent/repo/memory"
)

type countingStore struct {
	campuscontent.Store
	queries atomic.Int64
}

func (s *countingStore) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	s.queries.Add(1)
	return s.Store.Query(ctx, q)
}

func setup(t *testing.T, opts ...cache.Option) (*cache.Store, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingStore{Store: memoryrepo.New()}
	return cache.New(inner, client, opts...), inner, mr
}

var byNewest = campuscontent.Order{Field: campuscontent.FieldCreatedAt, Direction: campuscontent.Desc}

func TestQuery_ServesRepeatReadsFromRedis(t *testing.T) {
	ctx := context.Background()
	store, inner, _ := setup(t)

	_, err := store.Insert(ctx, "notes", map[string]any{"title": "Graphs", "downloadCount": 3})
	require.NoError(t, err)

	q := campuscontent.Query{Collection: "notes", OrderBy: byNewest}
	first, err := store.Query(ctx, q)
	require.NoError(t, err)
	second, err := store.Query(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, int64(1), inner.queries.Load())
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "notes", second[0].Collection)
	assert.True(t, first[0].CreatedAt.Equal(second[0].CreatedAt))
	assert.Equal(t, "Graphs", campuscontent.FieldString(second[0].Fields, "title"))
	assert.Equal(t, int64(3), campuscontent.FieldInt64(second[0].Fields, "downloadCount"))
}

func TestQuery_WritesInvalidateCollection(t *testing.T) {
	ctx := context.Background()
	store, inner, _ := setup(t)

	doc, err := store.Insert(ctx, "notes", map[string]any{"downloadCount": 0})
	require.NoError(t, err)

	q := campuscontent.Query{Collection: "notes", OrderBy: byNewest}
	_, err = store.Query(ctx, q)
	require.NoError(t, err)

	require.NoError(t, store.Increment(ctx, "notes", doc.ID, "downloadCount", 1))

	docs, err := store.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.queries.Load())
	assert.Equal(t, int64(1), campuscontent.FieldInt64(docs[0].Fields, "downloadCount"))

	require.NoError(t, store.Delete(ctx, "notes", doc.ID))
	docs, err = store.Query(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQuery_FiltersHaveSeparateEntries(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setup(t)

	_, err := store.Insert(ctx, "marketplace", map[string]any{"category": "books"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "marketplace", map[string]any{"category": "furniture"})
	require.NoError(t, err)

	books, err := store.Query(ctx, campuscontent.Query{
		Collection: "marketplace",
		Where:      &campuscontent.Condition{Field: "category", Op: campuscontent.OpEqual, Value: "books"},
		OrderBy:    byNewest,
	})
	require.NoError(t, err)
	all, err := store.Query(ctx, campuscontent.Query{Collection: "marketplace", OrderBy: byNewest})
	require.NoError(t, err)

	assert.Len(t, books, 1)
	assert.Len(t, all, 2)
}

func TestQuery_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	store, inner, mr := setup(t, cache.WithTTL(time.Minute))

	q := campuscontent.Query{Collection: "events", OrderBy: byNewest}
	_, err := store.Query(ctx, q)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inner.queries.Load())
}

func TestQuery_RedisDownReadsThrough(t *testing.T) {
	ctx := context.Background()
	store, inner, mr := setup(t)

	_, err := store.Insert(ctx, "notes", map[string]any{"title": "Graphs"})
	require.NoError(t, err)

	mr.Close()

	docs, err := store.Query(ctx, campuscontent.Query{Collection: "notes", OrderBy: byNewest})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, int64(1), inner.queries.Load())

	_, err = store.Insert(ctx, "notes", map[string]any{"title": "Trees"})
	assert.NoError(t, err)
}

func TestQuery_InvalidQueryNeverReachesRedis(t *testing.T) {
	store, inner, mr := setup(t)

	_, err := store.Query(context.Background(), campuscontent.Query{})
	assert.ErrorIs(t, err, campuscontent.ErrInvalidQuery)
	assert.Zero(t, inner.queries.Load())
	assert.Empty(t, mr.Keys())
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := cache.NewClient(ctx, mr.Addr())
	require.NoError(t, err)
	client.Close()

	client, err = cache.NewClient(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = cache.NewClient(ctx, "redis://%zz")
	assert.Error(t, err)
}
