package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/repo/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestSQLiteStore_DocumentOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("InsertAndGet", func(t *testing.T) {
		doc, err := store.Insert(ctx, "notes", map[string]any{
			"title": "Thermodynamics", "tags": []string{"physics", "heat"}, "downloadCount": int64(0),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)

		got, err := store.Get(ctx, "notes", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Thermodynamics", campuscontent.FieldString(got.Fields, "title"))
		assert.Equal(t, []string{"physics", "heat"}, campuscontent.FieldStrings(got.Fields, "tags"))
		assert.Equal(t, doc.CreatedAt, got.CreatedAt)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "notes", "missing")
		assert.ErrorIs(t, err, campuscontent.ErrNotFound)
	})

	t.Run("CreatedAtNeverDecreases", func(t *testing.T) {
		var last time.Time
		for i := 0; i < 20; i++ {
			doc, err := store.Insert(ctx, "ticks", map[string]any{"i": i})
			require.NoError(t, err)
			assert.True(t, doc.CreatedAt.After(last))
			last = doc.CreatedAt
		}
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		doc, err := store.Insert(ctx, "marketplace", map[string]any{"status": "available"})
		require.NoError(t, err)

		require.NoError(t, store.UpdateField(ctx, "marketplace", doc.ID, "status", "sold"))
		got, err := store.Get(ctx, "marketplace", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "sold", campuscontent.FieldString(got.Fields, "status"))

		assert.ErrorIs(t, store.UpdateField(ctx, "marketplace", "missing", "status", "sold"), campuscontent.ErrNotFound)
		assert.ErrorIs(t, store.UpdateField(ctx, "marketplace", doc.ID, "bad field", 1), campuscontent.ErrInvalidQuery)

		require.NoError(t, store.Delete(ctx, "marketplace", doc.ID))
		assert.ErrorIs(t, store.Delete(ctx, "marketplace", doc.ID), campuscontent.ErrNotFound)
	})
}

func TestSQLiteStore_Query(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insert := func(collection string, fields map[string]any) string {
		doc, err := store.Insert(ctx, collection, fields)
		require.NoError(t, err)
		return doc.ID
	}

	a := insert("doubts/q1/answers", map[string]any{"upvoteCount": int64(1)})
	b := insert("doubts/q1/answers", map[string]any{"upvoteCount": int64(5)})
	c := insert("doubts/q1/answers", map[string]any{"upvoteCount": int64(1)})
	insert("doubts/q2/answers", map[string]any{"upvoteCount": int64(9)})

	t.Run("NumericDescWithTies", func(t *testing.T) {
		docs, err := store.Query(ctx, campuscontent.Query{
			Collection: "doubts/q1/answers",
			OrderBy:    campuscontent.Order{Field: "upvoteCount", Direction: campuscontent.Desc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []string{b, c, a}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	})

	t.Run("EqualityAndArrayContains", func(t *testing.T) {
		books := insert("marketplace", map[string]any{"category": "Books", "price": 800.0})
		insert("marketplace", map[string]any{"category": "Electronics", "price": 45000.0})
		tagged := insert("projects", map[string]any{"skills": []string{"go", "sql"}})
		insert("projects", map[string]any{"skills": []string{"react"}})

		docs, err := store.Query(ctx, campuscontent.Query{
			Collection: "marketplace",
			Where:      &campuscontent.Condition{Field: "category", Op: campuscontent.OpEqual, Value: "Books"},
			OrderBy:    campuscontent.Order{Field: campuscontent.FieldCreatedAt, Direction: campuscontent.Desc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, books, docs[0].ID)

		docs, err = store.Query(ctx, campuscontent.Query{
			Collection: "projects",
			Where:      &campuscontent.Condition{Field: "skills", Op: campuscontent.OpArrayContains, Value: "go"},
			OrderBy:    campuscontent.Order{Field: campuscontent.FieldCreatedAt, Direction: campuscontent.Desc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, tagged, docs[0].ID)
	})

	t.Run("MissingSortValuesAreSmallest", func(t *testing.T) {
		withDate := insert("events", map[string]any{"date": int64(2000)})
		noDate := insert("events", map[string]any{})

		docs, err := store.Query(ctx, campuscontent.Query{
			Collection: "events",
			OrderBy:    campuscontent.Order{Field: "date", Direction: campuscontent.Asc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, noDate, docs[0].ID)
		assert.Equal(t, withDate, docs[1].ID)
	})

	t.Run("DeleteCollection", func(t *testing.T) {
		require.NoError(t, store.DeleteCollection(ctx, "doubts/q1/answers"))
		docs, err := store.Query(ctx, campuscontent.Query{Collection: "doubts/q1/answers"})
		require.NoError(t, err)
		assert.Empty(t, docs)

		docs, err = store.Query(ctx, campuscontent.Query{Collection: "doubts/q2/answers"})
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

func TestSQLiteStore_ConcurrentIncrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Insert(ctx, "notes", map[string]any{"title": "Hot"})
	require.NoError(t, err)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Increment(ctx, "notes", doc.ID, "downloadCount", 1))
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "notes", doc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, campuscontent.FieldInt64(got.Fields, "downloadCount"))
}

func TestSQLiteStore_BacksService(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	svc, err := campuscontent.New(campuscontent.WithStore(store))
	require.NoError(t, err)

	owner := campuscontent.Identity{ID: "seller", DisplayName: "Seller"}
	id, err := svc.CreateListing(ctx, owner, campuscontent.CreateListingRequest{
		Title: "Desk Lamp", Price: 450, Category: "Others",
	})
	require.NoError(t, err)

	items, err := svc.ListListings(ctx, campuscontent.ListingFilter{Category: "Others", Price: "0-500"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, 450.0, items[0].Price)

	require.NoError(t, svc.UpdateListingStatus(ctx, owner, id, campuscontent.ListingStatusSold))
	items, err = svc.ListListings(ctx, campuscontent.ListingFilter{Category: "Others", Price: "0-500"})
	require.NoError(t, err)
	assert.Empty(t, items)
}
