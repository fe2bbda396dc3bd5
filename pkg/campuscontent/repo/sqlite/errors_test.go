package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

// codedError mimics the driver's error type, which exposes the result code.
type codedError struct{ code int }

func (e codedError) Error() string { return "sqlite error" }
func (e codedError) Code() int     { return e.code }

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestHandleSQLiteError(t *testing.T) {
	assert.ErrorIs(t, handleSQLiteError("op", codedError{code: 23}), campuscontent.ErrAccessDenied)
	assert.ErrorIs(t, handleSQLiteError("op", codedError{code: 3}), campuscontent.ErrAccessDenied)
	// extended result codes carry the primary code in the low byte
	assert.ErrorIs(t, handleSQLiteError("op", codedError{code: 8 | (1 << 8)}), campuscontent.ErrAccessDenied)
	assert.False(t, campuscontent.IsAccessDenied(handleSQLiteError("op", codedError{code: 5})))
}

func TestStore_QueryFaults(t *testing.T) {
	ctx := context.Background()
	q := campuscontent.Query{
		Collection: "notes",
		OrderBy:    campuscontent.Order{Field: campuscontent.FieldCreatedAt, Direction: campuscontent.Desc},
	}

	t.Run("AccessDenied", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, created_at, data FROM campus_documents").
			WithArgs("notes").
			WillReturnError(codedError{code: 23})

		_, err := store.Query(ctx, q)
		assert.ErrorIs(t, err, campuscontent.ErrAccessDenied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OtherFault", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("disk I/O error")
		mock.ExpectQuery("SELECT id, created_at, data FROM campus_documents").
			WillReturnError(boom)

		_, err := store.Query(ctx, q)
		assert.ErrorIs(t, err, boom)
		assert.False(t, campuscontent.IsAccessDenied(err))
	})

	t.Run("RowsDecode", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := sqlmock.NewRows([]string{"id", "created_at", "data"}).
			AddRow("n2", int64(2_000_000), `{"title":"B"}`).
			AddRow("n1", int64(1_000_000), `{"title":"A","downloadCount":3}`)
		mock.ExpectQuery("SELECT id, created_at, data FROM campus_documents").WillReturnRows(rows)

		docs, err := store.Query(ctx, q)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "n2", docs[0].ID)
		assert.EqualValues(t, 3, campuscontent.FieldInt64(docs[1].Fields, "downloadCount"))
		assert.Equal(t, int64(1), docs[1].CreatedAt.Unix())
	})
}

func TestStore_IncrementFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("NoRow", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE campus_documents").
			WithArgs("$.viewCount", int64(1), "marketplace", "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Increment(ctx, "marketplace", "missing", "viewCount", 1)
		assert.ErrorIs(t, err, campuscontent.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReadOnly", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE campus_documents").WillReturnError(codedError{code: 8})

		err := store.Increment(ctx, "marketplace", "id", "viewCount", 1)
		assert.ErrorIs(t, err, campuscontent.ErrAccessDenied)
	})
}
