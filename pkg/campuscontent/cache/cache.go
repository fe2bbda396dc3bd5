// Package cache provides a Redis read-through cache in front of a
// campuscontent.Store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

const keyPrefix = "campus:"

// NewClient connects to Redis. addr is either a redis:// URL or host:port.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Store caches Query results per collection. Every write bumps the
// collection's version key, so cached lists are never served after a write
// through this Store. Redis faults degrade to the underlying store.
type Store struct {
	next   campuscontent.Store
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the cache
type Option func(*Store)

// WithTTL sets how long a cached list lives. The default is 30 seconds.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithLogger sets the logger for degraded cache operations
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New wraps next with a Redis list cache.
func New(next campuscontent.Store, client redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		next:   next,
		client: client,
		ttl:    30 * time.Second,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cachedDocument struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Fields    map[string]any `json:"fields"`
}

func versionKey(collection string) string {
	return keyPrefix + "v:" + collection
}

func queryKey(q campuscontent.Query, version int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sq:%s:%d:%s:%s", keyPrefix, q.Collection, version, q.OrderBy.Field, q.OrderBy.Direction)
	if c := q.Where; c != nil {
		fmt.Fprintf(&b, ":%s:%s:%v", c.Field, c.Op, c.Value)
	}
	return b.String()
}

func (s *Store) version(ctx context.Context, collection string) (int64, error) {
	v, err := s.client.Get(ctx, versionKey(collection)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (s *Store) invalidate(ctx context.Context, collection string) {
	if err := s.client.Incr(ctx, versionKey(collection)).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", "collection", collection, "error", err)
	}
}

func (s *Store) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	version, err := s.version(ctx, q.Collection)
	if err != nil {
		s.logger.Warn("cache unavailable, reading through", "collection", q.Collection, "error", err)
		return s.next.Query(ctx, q)
	}
	key := queryKey(q, version)

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []cachedDocument
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			return fromCache(q.Collection, cached), nil
		}
		s.logger.Warn("discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}

	docs, err := s.next.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(toCache(docs)); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return docs, nil
}

func toCache(docs []*campuscontent.Document) []cachedDocument {
	out := make([]cachedDocument, len(docs))
	for i, d := range docs {
		out[i] = cachedDocument{ID: d.ID, CreatedAt: d.CreatedAt, Fields: d.Fields}
	}
	return out
}

func fromCache(collection string, cached []cachedDocument) []*campuscontent.Document {
	out := make([]*campuscontent.Document, len(cached))
	for i, c := range cached {
		out[i] = &campuscontent.Document{ID: c.ID, Collection: collection, CreatedAt: c.CreatedAt, Fields: c.Fields}
	}
	return out
}

func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (*campuscontent.Document, error) {
	doc, err := s.next.Insert(ctx, collection, fields)
	if err == nil {
		s.invalidate(ctx, collection)
	}
	return doc, err
}

func (s *Store) Get(ctx context.Context, collection, id string) (*campuscontent.Document, error) {
	return s.next.Get(ctx, collection, id)
}

func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	err := s.next.UpdateField(ctx, collection, id, field, value)
	if err == nil {
		s.invalidate(ctx, collection)
	}
	return err
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	err := s.next.Increment(ctx, collection, id, field, delta)
	if err == nil {
		s.invalidate(ctx, collection)
	}
	return err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.next.Delete(ctx, collection, id)
	if err == nil {
		s.invalidate(ctx, collection)
	}
	return err
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	err := s.next.DeleteCollection(ctx, collection)
	if err == nil {
		s.invalidate(ctx, collection)
	}
	return err
}
