// Package metrics exports the content layer's best-effort signals as
// Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

// Recorder implements campuscontent.Recorder on Prometheus counters.
type Recorder struct {
	CounterDrift   *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	AssetsOrphaned *prometheus.CounterVec
	RedisErrors    *prometheus.CounterVec
	StoreLatency   *prometheus.HistogramVec
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		CounterDrift: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_counter_drift_total",
			Help: "Best-effort counter increments that failed, by entity kind and field",
		}, []string{"kind", "field"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_fallback_served_total",
			Help: "List reads answered with fallback data after an access-denied fault",
		}, []string{"kind", "mode"}),
		AssetsOrphaned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_assets_orphaned_total",
			Help: "Uploaded assets left without a referencing document",
		}, []string{"kind"}),
		RedisErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_redis_errors_total",
			Help: "Redis errors by command",
		}, []string{"operation"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_store_operation_duration_seconds",
			Help:    "Document store latency by operation and top-level collection",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "collection"}),
	}
}

func (r *Recorder) CounterFailed(kind campuscontent.Kind, field string) {
	r.CounterDrift.WithLabelValues(string(kind), field).Inc()
}

func (r *Recorder) FallbackServed(kind campuscontent.Kind, mode campuscontent.FallbackMode) {
	r.Fallbacks.WithLabelValues(string(kind), string(mode)).Inc()
}

func (r *Recorder) AssetOrphaned(kind campuscontent.Kind) {
	r.AssetsOrphaned.WithLabelValues(string(kind)).Inc()
}

// RedisHook returns a go-redis hook counting failed commands. redis.Nil is
// a cache miss, not an error.
func (r *Recorder) RedisHook() redis.Hook {
	return redisHook{errors: r.RedisErrors}
}

type redisHook struct {
	errors *prometheus.CounterVec
}

func (h redisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h redisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.errors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h redisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.errors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Instrument wraps store so every operation is timed.
func (r *Recorder) Instrument(store campuscontent.Store) campuscontent.Store {
	return &instrumentedStore{next: store, latency: r.StoreLatency}
}

type instrumentedStore struct {
	next    campuscontent.Store
	latency *prometheus.HistogramVec
}

// root reduces nested paths such as doubts/<id>/answers to doubts.answers
// to keep label cardinality bounded.
func root(collection string) string {
	parts := strings.Split(collection, "/")
	if len(parts) == 3 {
		return parts[0] + "." + parts[2]
	}
	return parts[0]
}

func (s *instrumentedStore) observe(op, collection string, start time.Time) {
	s.latency.WithLabelValues(op, root(collection)).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Insert(ctx context.Context, collection string, fields map[string]any) (*campuscontent.Document, error) {
	defer s.observe("insert", collection, time.Now())
	return s.next.Insert(ctx, collection, fields)
}

func (s *instrumentedStore) Get(ctx context.Context, collection, id string) (*campuscontent.Document, error) {
	defer s.observe("get", collection, time.Now())
	return s.next.Get(ctx, collection, id)
}

func (s *instrumentedStore) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	defer s.observe("query", q.Collection, time.Now())
	return s.next.Query(ctx, q)
}

func (s *instrumentedStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	defer s.observe("update", collection, time.Now())
	return s.next.UpdateField(ctx, collection, id, field, value)
}

func (s *instrumentedStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	defer s.observe("increment", collection, time.Now())
	return s.next.Increment(ctx, collection, id, field, delta)
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, id string) error {
	defer s.observe("delete", collection, time.Now())
	return s.next.Delete(ctx, collection, id)
}

func (s *instrumentedStore) DeleteCollection(ctx context.Context, collection string) error {
	defer s.observe("delete_collection", collection, time.Now())
	return s.next.DeleteCollection(ctx, collection)
}
