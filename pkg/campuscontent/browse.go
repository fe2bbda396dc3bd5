package campuscontent

import (
	"context"
	"sync"
)

// Browser serializes list requests issued by one interactive view. Starting
// a new request cancels the one in flight, and only the newest request's
// result is reported as current, so a slow response can never overwrite a
// newer one.
type Browser[T any, F any] struct {
	fetch func(ctx context.Context, filter F) ([]T, error)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewBrowser creates a browser over fetch, typically a Service list method.
func NewBrowser[T any, F any](fetch func(ctx context.Context, filter F) ([]T, error)) *Browser[T, F] {
	return &Browser[T, F]{fetch: fetch}
}

// Refresh runs fetch with filter. current is false when a later Refresh
// started before this one finished; the result must then be discarded and
// err is always nil.
func (b *Browser[T, F]) Refresh(ctx context.Context, filter F) (items []T, current bool, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.gen++
	gen := b.gen
	b.cancel = cancel
	b.mu.Unlock()

	items, err = b.fetch(ctx, filter)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return nil, false, nil
	}
	b.cancel = nil
	return items, true, err
}

// Generation returns the number of requests started so far.
func (b *Browser[T, F]) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}
