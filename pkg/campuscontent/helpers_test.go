package campuscontent_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	memoryrepo "github.com/tendant/campus-content/pkg/campuscontent/repo/memory"
	memorystorage "github.com/tendant/campus-content/pkg/campuscontent/storage/memory"
)

var (
	alice = campuscontent.Identity{ID: "alice", DisplayName: "Alice", Email: "alice@campus.edu"}
	bob   = campuscontent.Identity{ID: "bob", Email: "bob@campus.edu"}

	errBoom = errors.New("boom")
)

// faultStore wraps a Store and fails selected operations.
type faultStore struct {
	campuscontent.Store

	mu           sync.Mutex
	insertErr    error
	queryErr     error
	incrementErr error
}

func (f *faultStore) set(fn func(f *faultStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *faultStore) Insert(ctx context.Context, collection string, fields map[string]any) (*campuscontent.Document, error) {
	f.mu.Lock()
	err := f.insertErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.Insert(ctx, collection, fields)
}

func (f *faultStore) Query(ctx context.Context, q campuscontent.Query) ([]*campuscontent.Document, error) {
	f.mu.Lock()
	err := f.queryErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.Query(ctx, q)
}

func (f *faultStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	f.mu.Lock()
	err := f.incrementErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Increment(ctx, collection, id, field, delta)
}

// faultBlobs wraps the in-memory blob store and fails uploads or deletes.
type faultBlobs struct {
	*memorystorage.Backend

	uploadErr error
	deleteErr error
}

func (f *faultBlobs) UploadWithParams(ctx context.Context, r io.Reader, params campuscontent.UploadParams) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.Backend.UploadWithParams(ctx, r, params)
}

func (f *faultBlobs) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Backend.Delete(ctx, key)
}

// countingRecorder counts recorder signals.
type countingRecorder struct {
	mu       sync.Mutex
	counters map[string]int
	fallback int
	orphaned int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counters: make(map[string]int)}
}

func (r *countingRecorder) CounterFailed(kind campuscontent.Kind, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[string(kind)+"."+field]++
}

func (r *countingRecorder) FallbackServed(kind campuscontent.Kind, mode campuscontent.FallbackMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback++
}

func (r *countingRecorder) AssetOrphaned(kind campuscontent.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orphaned++
}

type fixture struct {
	svc      campuscontent.Service
	store    *faultStore
	blobs    *faultBlobs
	recorder *countingRecorder
}

func newFixture(t *testing.T, opts ...campuscontent.Option) *fixture {
	t.Helper()

	f := &fixture{
		store:    &faultStore{Store: memoryrepo.New()},
		blobs:    &faultBlobs{Backend: memorystorage.New()},
		recorder: newCountingRecorder(),
	}
	base := []campuscontent.Option{
		campuscontent.WithStore(f.store),
		campuscontent.WithBlobStore(f.blobs),
		campuscontent.WithRecorder(f.recorder),
	}
	svc, err := campuscontent.New(append(base, opts...)...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func pdf(name string) *campuscontent.Asset {
	return &campuscontent.Asset{
		Body:        strings.NewReader("%PDF-1.4 test"),
		FileName:    name,
		ContentType: "application/pdf",
	}
}

func ids[T campuscontent.ContentItem](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Base().ID
	}
	return out
}
