package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

// Backend is an in-memory implementation of the campuscontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*campuscontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
	}

	return &campuscontent.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
		Metadata:    map[string]string{"mime_type": obj.mimeType},
	}, nil
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, campuscontent.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params campuscontent.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now()}
	return nil
}

// GetDownloadURL returns a memory:// URL naming the object key
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "memory://" + objectKey, nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
	}

	delete(b.objects, objectKey)
	return nil
}

// Keys returns the stored object keys. Intended for tests and diagnostics.
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	return keys
}
