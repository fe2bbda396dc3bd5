package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/storage/fs"
)

func TestFSBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()
	key := "notes/uid-1700000000000.pdf"

	t.Run("UploadAndDownload", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, key, strings.NewReader("%PDF-1.4 body")))

		reader, err := backend.Download(ctx, key)
		require.NoError(t, err)
		defer reader.Close()
		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 body", string(data))
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(len("%PDF-1.4 body")), meta.Size)
		assert.Equal(t, "application/pdf", meta.ContentType)
	})

	t.Run("GetDownloadURL", func(t *testing.T) {
		url, err := backend.GetDownloadURL(ctx, key, "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "file://"))
		assert.True(t, strings.HasSuffix(url, key))

		withPrefix, err := fs.New(fs.Config{BaseDir: dir, URLPrefix: "https://files.example.com/"})
		require.NoError(t, err)
		url, err = withPrefix.GetDownloadURL(ctx, key, "my notes.pdf")
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/"+key+"?filename=my+notes.pdf", url)
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		err := backend.Upload(ctx, "../outside", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("DeleteCleansDirectories", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, key))
		_, err := os.Stat(filepath.Join(dir, "notes"))
		assert.True(t, os.IsNotExist(err))

		assert.ErrorIs(t, backend.Delete(ctx, key), campuscontent.ErrNotFound)
		_, err = backend.Download(ctx, key)
		assert.ErrorIs(t, err, campuscontent.ErrNotFound)
	})
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}
