package campuscontent

import (
	"context"
	"log/slog"
)

// Subcollection manages a nested entity type whose documents live under a
// parent and whose count is denormalized onto the parent.
type Subcollection[C ContentItem] struct {
	store    Store
	counters *CounterCoordinator
	schema   Schema[C]
	logger   *slog.Logger
}

func newSubcollection[C ContentItem](s *service, schema Schema[C]) *Subcollection[C] {
	return &Subcollection[C]{
		store:    s.store,
		counters: s.counters,
		schema:   schema,
		logger:   s.logger.With("kind", schema.Kind),
	}
}

// Create writes child under parentID and then increments the parent's
// counter. The two steps commit independently: a failed increment is
// logged and the child ID is still returned.
func (m *Subcollection[C]) Create(ctx context.Context, parentID string, child C) (string, error) {
	if err := m.schema.Validate(child); err != nil {
		return "", err
	}

	parent := m.schema.Parent
	if _, err := m.store.Get(ctx, parent.Collection, parentID); err != nil {
		return "", &WriteError{Kind: m.schema.Kind, Op: "create", Err: err}
	}

	doc, err := m.store.Insert(ctx, m.schema.CollectionPath(parentID), m.schema.newDocumentFields(child))
	if err != nil {
		return "", &WriteError{Kind: m.schema.Kind, Op: "create", Err: err}
	}

	m.counters.Increment(ctx, parent.Kind, parent.Collection, parentID, m.schema.ParentCounter)

	m.logger.Info("child created", "parent_id", parentID, "id", doc.ID)
	return doc.ID, nil
}

// List returns the children of parentID in canonical order. An unknown
// parent yields an empty list.
func (m *Subcollection[C]) List(ctx context.Context, parentID string) ([]C, error) {
	docs, err := m.store.Query(ctx, Query{
		Collection: m.schema.CollectionPath(parentID),
		OrderBy:    m.schema.Order,
	})
	if err != nil {
		if IsAccessDenied(err) {
			return nil, err
		}
		return nil, &ReadError{Kind: m.schema.Kind, Err: err}
	}
	return m.schema.decodeAll(docs), nil
}

// Get returns one child.
func (m *Subcollection[C]) Get(ctx context.Context, parentID, id string) (C, error) {
	doc, err := m.store.Get(ctx, m.schema.CollectionPath(parentID), id)
	if err != nil {
		var zero C
		return zero, err
	}
	return m.schema.Decode(doc), nil
}

// UpdateField overwrites one field of a child.
func (m *Subcollection[C]) UpdateField(ctx context.Context, parentID, id, field string, value any) error {
	if err := m.store.UpdateField(ctx, m.schema.CollectionPath(parentID), id, field, value); err != nil {
		return &WriteError{Kind: m.schema.Kind, Op: "update", Err: err}
	}
	return nil
}

// Increment adds one to a counter of a child and reports failures.
func (m *Subcollection[C]) Increment(ctx context.Context, parentID, id, field string) error {
	if err := m.store.Increment(ctx, m.schema.CollectionPath(parentID), id, field, 1); err != nil {
		return &WriteError{Kind: m.schema.Kind, Op: "update", Err: err}
	}
	return nil
}

// DeleteAll removes every child of parentID.
func (m *Subcollection[C]) DeleteAll(ctx context.Context, parentID string) error {
	if err := m.store.DeleteCollection(ctx, m.schema.CollectionPath(parentID)); err != nil {
		return &WriteError{Kind: m.schema.Kind, Op: "delete", Err: err}
	}
	return nil
}
