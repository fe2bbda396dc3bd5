package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements campuscontent.Store on a single JSONB document table
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL document store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL document store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Migrate creates the document table and its indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return campuscontent.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501", // insufficient_privilege
			"28000", // invalid_authorization_specification
			"28P01": // invalid_password
			return fmt.Errorf("%w: %s", campuscontent.ErrAccessDenied, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		case "22P02": // invalid_text_representation
			return fmt.Errorf("%w: %s", campuscontent.ErrInvalidQuery, pgErr.Message)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, campuscontent.ErrNotFound
	}
	return uid, nil
}

func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (*campuscontent.Document, error) {
	doc := &campuscontent.Document{
		ID:         uuid.New().String(),
		Collection: collection,
		Fields:     campuscontent.CloneFields(fields),
	}

	query := `
		INSERT INTO campus_documents (collection, id, data)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	if err := s.db.QueryRow(ctx, query, collection, doc.ID, fields).Scan(&doc.CreatedAt); err != nil {
		return nil, handlePostgresError("insert document", err)
	}
	return doc, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*campuscontent.Document, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, created_at, data
		FROM campus_documents WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(s.db.QueryRow(ctx, query, collection, uid), collection)
	if err != nil {
		return nil, handlePostgresError("get document", err)
	}
	return doc, nil
}

func (s *Store) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError("query documents", err)
	}
	defer rows.Close()

	var docs []*campuscontent.Document
	for rows.Next() {
		doc, err := scanDocument(rows, q.Collection)
		if err != nil {
			return nil, handlePostgresError("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("query documents", err)
	}
	return docs, nil
}

// buildQuery renders a validated query. Field names travel as parameters;
// missing sort values order first ascending and last descending.
func buildQuery(q campuscontent.Query) (string, []interface{}, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	query := `SELECT id, created_at, data FROM campus_documents WHERE collection = $1`
	args := []interface{}{q.Collection}
	argIndex := 2

	if c := q.Where; c != nil {
		switch c.Op {
		case campuscontent.OpEqual:
			query += fmt.Sprintf(" AND data->>$%d::text = $%d::text", argIndex, argIndex+1)
		case campuscontent.OpArrayContains:
			query += fmt.Sprintf(" AND data->$%d::text @> jsonb_build_array($%d::text)", argIndex, argIndex+1)
		}
		args = append(args, c.Field, fmt.Sprint(c.Value))
		argIndex += 2
	}

	dir := "DESC"
	nulls := "NULLS LAST"
	if q.OrderBy.Direction == campuscontent.Asc {
		dir = "ASC"
		nulls = "NULLS FIRST"
	}

	switch q.OrderBy.Field {
	case "", campuscontent.FieldCreatedAt:
		query += fmt.Sprintf(" ORDER BY created_at %s, seq %s", dir, dir)
	default:
		query += fmt.Sprintf(" ORDER BY (data->>$%d::text)::numeric %s %s, seq %s", argIndex, dir, nulls, dir)
		args = append(args, q.OrderBy.Field)
	}

	return query, args, nil
}

func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	if !campuscontent.ValidFieldName(field) {
		return fmt.Errorf("%w: bad field %q", campuscontent.ErrInvalidQuery, field)
	}
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", field, err)
	}

	query := `
		UPDATE campus_documents
		SET data = jsonb_set(data, ARRAY[$3::text], $4::jsonb, true)
		WHERE collection = $1 AND id = $2`

	tag, err := s.db.Exec(ctx, query, collection, uid, field, string(encoded))
	if err != nil {
		return handlePostgresError("update field", err)
	}
	if tag.RowsAffected() == 0 {
		return campuscontent.ErrNotFound
	}
	return nil
}

// Increment adds delta in a single UPDATE so the row lock serializes
// concurrent increments.
func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if !campuscontent.ValidFieldName(field) {
		return fmt.Errorf("%w: bad field %q", campuscontent.ErrInvalidQuery, field)
	}
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	query := `
		UPDATE campus_documents
		SET data = jsonb_set(
			data,
			ARRAY[$3::text],
			to_jsonb(COALESCE((data->>$3::text)::bigint, 0) + $4::bigint),
			true)
		WHERE collection = $1 AND id = $2`

	tag, err := s.db.Exec(ctx, query, collection, uid, field, delta)
	if err != nil {
		return handlePostgresError("increment field", err)
	}
	if tag.RowsAffected() == 0 {
		return campuscontent.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM campus_documents WHERE collection = $1 AND id = $2`, collection, uid)
	if err != nil {
		return handlePostgresError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return campuscontent.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM campus_documents WHERE collection = $1`, collection); err != nil {
		return handlePostgresError("delete collection", err)
	}
	return nil
}

func scanDocument(row pgx.Row, collection string) (*campuscontent.Document, error) {
	var (
		id   uuid.UUID
		doc  = &campuscontent.Document{Collection: collection}
		data map[string]any
	)
	if err := row.Scan(&id, &doc.CreatedAt, &data); err != nil {
		return nil, err
	}
	doc.ID = id.String()
	if data == nil {
		data = make(map[string]any)
	}
	doc.Fields = data
	return doc, nil
}
