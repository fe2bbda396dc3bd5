package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

const schema = `
CREATE TABLE IF NOT EXISTS campus_documents (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    UNIQUE (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_campus_documents_collection ON campus_documents(collection, created_at, seq);
`

// Store implements campuscontent.Store on an embedded SQLite database using
// JSON text documents.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite database at dsn and creates the document table. Use
// ":memory:" for an in-process database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps a :memory: database alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. The caller runs Migrate.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates the document table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return handleSQLiteError("migrate", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type coder interface {
	Code() int
}

func handleSQLiteError(operation string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return campuscontent.ErrNotFound
	}

	var c coder
	if errors.As(err, &c) {
		switch c.Code() & 0xff {
		case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM, sqlite3.SQLITE_READONLY:
			return fmt.Errorf("%w: %v", campuscontent.ErrAccessDenied, err)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func path(field string) string {
	return "$." + field
}

func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (*campuscontent.Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	doc := &campuscontent.Document{
		ID:         uuid.New().String(),
		Collection: collection,
		Fields:     campuscontent.CloneFields(fields),
	}

	// created_at is bumped past the newest row so it never decreases.
	query := `
		INSERT INTO campus_documents (collection, id, created_at, data)
		VALUES (?, ?, MAX(?, COALESCE((SELECT MAX(created_at) FROM campus_documents), 0) + 1), ?)
		RETURNING created_at`

	var micros int64
	err = s.db.QueryRowContext(ctx, query, collection, doc.ID, s.now().UnixMicro(), string(data)).Scan(&micros)
	if err != nil {
		return nil, handleSQLiteError("insert document", err)
	}
	doc.CreatedAt = time.UnixMicro(micros).UTC()
	return doc, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*campuscontent.Document, error) {
	query := `SELECT id, created_at, data FROM campus_documents WHERE collection = ? AND id = ?`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id), collection)
	if err != nil {
		return nil, handleSQLiteError("get document", err)
	}
	return doc, nil
}

func (s *Store) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, handleSQLiteError("query documents", err)
	}
	defer rows.Close()

	var docs []*campuscontent.Document
	for rows.Next() {
		doc, err := scanDocument(rows, q.Collection)
		if err != nil {
			return nil, handleSQLiteError("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLiteError("query documents", err)
	}
	return docs, nil
}

// buildQuery renders a validated query. SQLite orders NULL first ascending
// and last descending, so missing sort values need no extra clause.
func buildQuery(q campuscontent.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	query := `SELECT id, created_at, data FROM campus_documents WHERE collection = ?`
	args := []any{q.Collection}

	if c := q.Where; c != nil {
		switch c.Op {
		case campuscontent.OpEqual:
			query += ` AND CAST(json_extract(data, ?) AS TEXT) = ?`
		case campuscontent.OpArrayContains:
			query += ` AND EXISTS (SELECT 1 FROM json_each(data, ?) WHERE json_each.value = ?)`
		}
		args = append(args, path(c.Field), fmt.Sprint(c.Value))
	}

	dir := "DESC"
	if q.OrderBy.Direction == campuscontent.Asc {
		dir = "ASC"
	}

	switch q.OrderBy.Field {
	case "", campuscontent.FieldCreatedAt:
		query += fmt.Sprintf(` ORDER BY created_at %s, seq %s`, dir, dir)
	default:
		query += fmt.Sprintf(` ORDER BY json_extract(data, ?) %s, seq %s`, dir, dir)
		args = append(args, path(q.OrderBy.Field))
	}

	return query, args, nil
}

func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	if !campuscontent.ValidFieldName(field) {
		return fmt.Errorf("%w: bad field %q", campuscontent.ErrInvalidQuery, field)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", field, err)
	}

	query := `UPDATE campus_documents SET data = json_set(data, ?, json(?)) WHERE collection = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, query, path(field), string(encoded), collection, id)
	if err != nil {
		return handleSQLiteError("update field", err)
	}
	return requireRow(res)
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if !campuscontent.ValidFieldName(field) {
		return fmt.Errorf("%w: bad field %q", campuscontent.ErrInvalidQuery, field)
	}

	query := `
		UPDATE campus_documents
		SET data = json_set(data, ?1, COALESCE(json_extract(data, ?1), 0) + ?2)
		WHERE collection = ?3 AND id = ?4`

	res, err := s.db.ExecContext(ctx, query, path(field), delta, collection, id)
	if err != nil {
		return handleSQLiteError("increment field", err)
	}
	return requireRow(res)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM campus_documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return handleSQLiteError("delete document", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM campus_documents WHERE collection = ?`, collection); err != nil {
		return handleSQLiteError("delete collection", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return handleSQLiteError("rows affected", err)
	}
	if n == 0 {
		return campuscontent.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner, collection string) (*campuscontent.Document, error) {
	var (
		id     string
		micros int64
		data   string
	)
	if err := row.Scan(&id, &micros, &data); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &campuscontent.Document{
		ID:         id,
		Collection: collection,
		CreatedAt:  time.UnixMicro(micros).UTC(),
		Fields:     fields,
	}, nil
}
