package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	memorystorage "github.com/tendant/campus-content/pkg/campuscontent/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "notes/uid-1700000000000.pdf"
	testData := "%PDF-1.4 lecture notes"

	t.Run("Upload", func(t *testing.T) {
		err := backend.Upload(ctx, testKey, strings.NewReader(testData))
		assert.NoError(t, err)
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testKey, meta.Key)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.Equal(t, "application/octet-stream", meta.ContentType)
	})

	t.Run("UploadWithParams", func(t *testing.T) {
		err := backend.UploadWithParams(ctx, strings.NewReader("img"), campuscontent.UploadParams{
			ObjectKey: "products/uid-1",
			MimeType:  "image/png",
		})
		require.NoError(t, err)

		meta, err := backend.GetObjectMeta(ctx, "products/uid-1")
		require.NoError(t, err)
		assert.Equal(t, "image/png", meta.ContentType)
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("GetDownloadURL", func(t *testing.T) {
		url, err := backend.GetDownloadURL(ctx, testKey, "")
		require.NoError(t, err)
		assert.Equal(t, "memory://"+testKey, url)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))
		assert.ErrorIs(t, backend.Delete(ctx, testKey), campuscontent.ErrNotFound)

		_, err := backend.Download(ctx, testKey)
		assert.ErrorIs(t, err, campuscontent.ErrNotFound)
		assert.NotContains(t, backend.Keys(), testKey)
	})
}
