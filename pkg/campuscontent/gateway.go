package campuscontent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/campus-content/pkg/campuscontent/objectkey"
)

// Gateway persists one top-level entity type. It owns the create saga
// (asset first, then metadata) and maps store faults onto the error
// taxonomy.
type Gateway[T ContentItem] struct {
	store    Store
	assets   *AssetPublisher
	schema   Schema[T]
	now      func() time.Time
	logger   *slog.Logger
	recorder Recorder
}

func newGateway[T ContentItem](s *service, schema Schema[T]) *Gateway[T] {
	if schema.Asset != nil {
		spec := *schema.Asset
		if gen, ok := s.keyGenerators[schema.Kind]; ok {
			spec.Keys = gen
		}
		schema.Asset = &spec
	}
	return &Gateway[T]{
		store:    s.store,
		assets:   s.assets,
		schema:   schema,
		now:      s.now,
		logger:   s.logger.With("kind", schema.Kind),
		recorder: s.recorder,
	}
}

// Create validates item, publishes the optional asset and inserts the
// document. Counters start at zero and status takes the type default. When
// the insert fails after a successful upload the asset is deleted again; if
// that delete fails too an OrphanedAssetError is returned.
func (g *Gateway[T]) Create(ctx context.Context, item T, asset *Asset) (string, error) {
	if err := g.schema.Validate(item); err != nil {
		return "", err
	}

	spec := g.schema.Asset
	hasAsset := asset != nil && asset.Body != nil
	if spec != nil && spec.Required && !hasAsset {
		return "", &ValidationError{Field: "file", Message: "is required"}
	}

	fields := g.schema.newDocumentFields(item)

	var key string
	if spec != nil && hasAsset {
		key = spec.Keys.GenerateKey(&objectkey.KeyMetadata{
			OwnerID:     item.Base().OwnerID,
			FileName:    asset.FileName,
			ContentType: asset.ContentType,
			Time:        g.now(),
		})
		url, err := g.assets.Publish(ctx, key, asset)
		if err != nil {
			return "", &WriteError{Kind: g.schema.Kind, Op: "create", Err: err}
		}
		fields[spec.URLField] = url
		fields[spec.KeyField] = key
	}

	doc, err := g.store.Insert(ctx, g.schema.Collection, fields)
	if err != nil {
		if key == "" {
			return "", &WriteError{Kind: g.schema.Kind, Op: "create", Err: err}
		}
		return "", g.compensate(ctx, key, err)
	}

	g.logger.Info("entity created", "id", doc.ID)
	return doc.ID, nil
}

func (g *Gateway[T]) compensate(ctx context.Context, key string, cause error) error {
	cerr := g.assets.Retract(context.WithoutCancel(ctx), key)
	if cerr == nil {
		g.logger.Warn("metadata write failed, asset removed", "key", key, "error", cause)
		return &WriteError{Kind: g.schema.Kind, Op: "create", Err: cause}
	}
	g.logger.Error("metadata write failed, asset orphaned", "key", key, "error", cause, "cleanup_error", cerr)
	g.recorder.AssetOrphaned(g.schema.Kind)
	return &OrphanedAssetError{Kind: g.schema.Kind, Key: key, Err: cause, CleanupErr: cerr}
}

// List returns all entities in canonical order, optionally narrowed by one
// store-side condition. A permission fault is returned unchanged so callers
// can tell it apart from a ReadError.
func (g *Gateway[T]) List(ctx context.Context, where *Condition) ([]T, error) {
	docs, err := g.store.Query(ctx, Query{
		Collection: g.schema.Collection,
		Where:      where,
		OrderBy:    g.schema.Order,
	})
	if err != nil {
		if IsAccessDenied(err) {
			return nil, err
		}
		return nil, &ReadError{Kind: g.schema.Kind, Err: err}
	}
	return g.schema.decodeAll(docs), nil
}

// Get returns one entity.
func (g *Gateway[T]) Get(ctx context.Context, id string) (T, error) {
	doc, err := g.store.Get(ctx, g.schema.Collection, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s %s: %w", g.schema.Kind, id, err)
	}
	return g.schema.Decode(doc), nil
}

// UpdateField overwrites one field.
func (g *Gateway[T]) UpdateField(ctx context.Context, id, field string, value any) error {
	if err := g.store.UpdateField(ctx, g.schema.Collection, id, field, value); err != nil {
		return &WriteError{Kind: g.schema.Kind, Op: "update", Err: err}
	}
	return nil
}

// Increment adds one to a counter and reports failures. Use the
// CounterCoordinator for best-effort counters.
func (g *Gateway[T]) Increment(ctx context.Context, id, field string) error {
	if err := g.store.Increment(ctx, g.schema.Collection, id, field, 1); err != nil {
		return &WriteError{Kind: g.schema.Kind, Op: "update", Err: err}
	}
	return nil
}

// Delete removes the document and then, best-effort, its asset.
func (g *Gateway[T]) Delete(ctx context.Context, id string) error {
	doc, err := g.store.Get(ctx, g.schema.Collection, id)
	if err != nil {
		return &WriteError{Kind: g.schema.Kind, Op: "delete", Err: err}
	}
	if err := g.store.Delete(ctx, g.schema.Collection, id); err != nil {
		return &WriteError{Kind: g.schema.Kind, Op: "delete", Err: err}
	}

	if spec := g.schema.Asset; spec != nil {
		if key := FieldString(doc.Fields, spec.KeyField); key != "" {
			if err := g.assets.Retract(ctx, key); err != nil {
				g.logger.Warn("failed to remove asset of deleted entity", "id", id, "key", key, "error", err)
				g.recorder.AssetOrphaned(g.schema.Kind)
			}
		}
	}

	g.logger.Info("entity deleted", "id", id)
	return nil
}
