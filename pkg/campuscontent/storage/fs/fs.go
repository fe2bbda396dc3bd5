package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

// Backend is a filesystem implementation of the campuscontent.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for download URLs
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   baseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
	}, nil
}

// resolve maps an object key to a path that stays inside baseDir
func (b *Backend) resolve(objectKey string) (string, error) {
	p := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
	if p != b.baseDir && !strings.HasPrefix(p, b.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q escapes base directory", objectKey)
	}
	return p, nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*campuscontent.ObjectMeta, error) {
	filePath, err := b.resolve(objectKey)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	// Detect content type
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &campuscontent.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

// Upload uploads content directly to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	filePath, err := b.resolve(objectKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file first so readers never observe a partial asset
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// UploadWithParams uploads content with additional parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params campuscontent.UploadParams) error {
	// MIME type is detected on read
	return b.Upload(ctx, params.ObjectKey, reader)
}

// GetDownloadURL returns a URL for downloading content
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.urlPrefix == "" {
		return "file://" + filepath.ToSlash(filepath.Join(b.baseDir, filepath.FromSlash(objectKey))), nil
	}
	if downloadFilename != "" {
		return fmt.Sprintf("%s/%s?filename=%s", b.urlPrefix, objectKey, url.QueryEscape(downloadFilename)), nil
	}
	return fmt.Sprintf("%s/%s", b.urlPrefix, objectKey), nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath, err := b.resolve(objectKey)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath, err := b.resolve(objectKey)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); os.IsNotExist(err) {
		return fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir || !strings.HasPrefix(dir, b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
