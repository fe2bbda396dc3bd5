package campuscontent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// AssetPublisher uploads binary payloads to the blob store and resolves the
// URL that documents reference.
type AssetPublisher struct {
	blobs  BlobStore
	urls   URLStrategy
	logger *slog.Logger
}

// NewAssetPublisher creates a publisher. A nil strategy asks the blob store
// for its own download URL.
func NewAssetPublisher(blobs BlobStore, urls URLStrategy, logger *slog.Logger) *AssetPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetPublisher{blobs: blobs, urls: urls, logger: logger}
}

// Publish uploads asset under key and returns its URL. A nil asset is a
// no-op that returns an empty URL.
func (p *AssetPublisher) Publish(ctx context.Context, key string, asset *Asset) (string, error) {
	if asset == nil || asset.Body == nil {
		return "", nil
	}
	if p.blobs == nil {
		return "", &StorageError{Key: key, Op: "upload", Err: ErrStoreRequired}
	}

	err := p.blobs.UploadWithParams(ctx, asset.Body, UploadParams{
		ObjectKey: key,
		MimeType:  asset.ContentType,
	})
	if err != nil {
		return "", &StorageError{Key: key, Op: "upload", Err: fmt.Errorf("%w: %w", ErrUploadFailed, err)}
	}

	url, err := p.resolve(ctx, key, asset.FileName)
	if err != nil {
		// The upload landed; remove it so no unreferenced asset remains.
		if derr := p.blobs.Delete(ctx, key); derr != nil {
			p.logger.Warn("failed to remove asset after url resolution failure", "key", key, "error", derr)
		}
		return "", &StorageError{Key: key, Op: "resolve_url", Err: err}
	}

	p.logger.Debug("asset published", "key", key)
	return url, nil
}

// Retract deletes a previously published asset.
func (p *AssetPublisher) Retract(ctx context.Context, key string) error {
	if key == "" || p.blobs == nil {
		return nil
	}
	if err := p.blobs.Delete(ctx, key); err != nil {
		return &StorageError{Key: key, Op: "delete", Err: err}
	}
	return nil
}

func (p *AssetPublisher) resolve(ctx context.Context, key, filename string) (string, error) {
	if p.urls != nil {
		return p.urls.DownloadURL(ctx, key, filename)
	}
	return p.blobs.GetDownloadURL(ctx, key, filename)
}

// AssetReader is a published asset opened for streaming. Callers must
// close Body.
type AssetReader struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Open streams the asset stored under key.
func (p *AssetPublisher) Open(ctx context.Context, key string) (*AssetReader, error) {
	if p.blobs == nil {
		return nil, &StorageError{Key: key, Op: "download", Err: ErrStoreRequired}
	}
	meta, err := p.blobs.GetObjectMeta(ctx, key)
	if err != nil {
		return nil, &StorageError{Key: key, Op: "download", Err: err}
	}
	body, err := p.blobs.Download(ctx, key)
	if err != nil {
		return nil, &StorageError{Key: key, Op: "download", Err: err}
	}
	return &AssetReader{Body: body, ContentType: meta.ContentType, Size: meta.Size}, nil
}
