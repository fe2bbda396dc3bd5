package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/repo/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "campus",
			"POSTGRES_PASSWORD": "campus",
			"POSTGRES_DB":       "campus",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://campus:campus@" + host + ":" + port.Port() + "/campus?sslmode=disable"
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	store := postgres.NewWithPool(pool)
	require.NoError(t, store.Migrate(ctx))

	t.Run("InsertAndGet", func(t *testing.T) {
		doc, err := store.Insert(ctx, "notes", map[string]any{
			"title": "Algebra", "tags": []string{"math"}, "downloadCount": int64(0),
		})
		require.NoError(t, err)
		assert.False(t, doc.CreatedAt.IsZero())

		got, err := store.Get(ctx, "notes", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Algebra", campuscontent.FieldString(got.Fields, "title"))
		assert.Equal(t, []string{"math"}, campuscontent.FieldStrings(got.Fields, "tags"))

		_, err = store.Get(ctx, "notes", "missing")
		assert.ErrorIs(t, err, campuscontent.ErrNotFound)
	})

	t.Run("QueryOrderAndFilters", func(t *testing.T) {
		var ids []string
		for i, cat := range []string{"Books", "Others", "Books"} {
			doc, err := store.Insert(ctx, "marketplace", map[string]any{
				"category": cat, "price": float64(100 * (i + 1)), "tags": []string{cat},
			})
			require.NoError(t, err)
			ids = append(ids, doc.ID)
		}

		docs, err := store.Query(ctx, campuscontent.Query{
			Collection: "marketplace",
			Where:      &campuscontent.Condition{Field: "category", Op: campuscontent.OpEqual, Value: "Books"},
			OrderBy:    campuscontent.Order{Field: campuscontent.FieldCreatedAt, Direction: campuscontent.Desc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, ids[2], docs[0].ID)
		assert.Equal(t, ids[0], docs[1].ID)

		docs, err = store.Query(ctx, campuscontent.Query{
			Collection: "marketplace",
			Where:      &campuscontent.Condition{Field: "tags", Op: campuscontent.OpArrayContains, Value: "Others"},
			OrderBy:    campuscontent.Order{Field: "price", Direction: campuscontent.Asc},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, ids[1], docs[0].ID)
	})

	t.Run("ConcurrentIncrement", func(t *testing.T) {
		doc, err := store.Insert(ctx, "events", map[string]any{"registrationCount": int64(0)})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, store.Increment(ctx, "events", doc.ID, "registrationCount", 1))
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, "events", doc.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 50, campuscontent.FieldInt64(got.Fields, "registrationCount"))
	})

	t.Run("UpdateDeleteCollection", func(t *testing.T) {
		doc, err := store.Insert(ctx, "projects/p1/applicants", map[string]any{"status": "pending"})
		require.NoError(t, err)

		require.NoError(t, store.UpdateField(ctx, "projects/p1/applicants", doc.ID, "status", "accepted"))
		got, err := store.Get(ctx, "projects/p1/applicants", doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "accepted", campuscontent.FieldString(got.Fields, "status"))

		require.NoError(t, store.DeleteCollection(ctx, "projects/p1/applicants"))
		_, err = store.Get(ctx, "projects/p1/applicants", doc.ID)
		assert.ErrorIs(t, err, campuscontent.ErrNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "notes", doc.ID), campuscontent.ErrNotFound)
	})

	t.Run("ServiceOnPostgres", func(t *testing.T) {
		svc, err := campuscontent.New(campuscontent.WithStore(store))
		require.NoError(t, err)

		owner := campuscontent.Identity{ID: "u1", DisplayName: "U1"}
		qid, err := svc.CreateQuestion(ctx, owner, campuscontent.CreateQuestionRequest{Title: "Pointers?"})
		require.NoError(t, err)
		a1, err := svc.CreateAnswer(ctx, owner, qid, campuscontent.CreateAnswerRequest{Body: "one"})
		require.NoError(t, err)
		a2, err := svc.CreateAnswer(ctx, owner, qid, campuscontent.CreateAnswerRequest{Body: "two"})
		require.NoError(t, err)
		require.NoError(t, svc.UpvoteAnswer(ctx, qid, a2))

		answers, err := svc.ListAnswers(ctx, qid)
		require.NoError(t, err)
		require.Len(t, answers, 2)
		assert.Equal(t, a2, answers[0].ID)
		assert.Equal(t, a1, answers[1].ID)
	})
}
