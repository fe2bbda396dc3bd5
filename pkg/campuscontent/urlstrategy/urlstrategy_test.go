package urlstrategy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/storage/memory"
	"github.com/tendant/campus-content/pkg/campuscontent/urlstrategy"
)

var _ campuscontent.URLStrategy = urlstrategy.Strategy(nil)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("CDN", func(t *testing.T) {
		s, err := urlstrategy.New(urlstrategy.Config{Type: urlstrategy.StrategyTypeCDN, CDNBaseURL: "https://cdn.example.com/"})
		require.NoError(t, err)
		url, err := s.DownloadURL(ctx, "notes/u1-1.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/notes/u1-1.pdf", url)
	})

	t.Run("AppRouted", func(t *testing.T) {
		s, err := urlstrategy.New(urlstrategy.Config{Type: urlstrategy.StrategyTypeAppRouted, APIBaseURL: "/api/v1"})
		require.NoError(t, err)
		url, err := s.DownloadURL(ctx, "events/42", "")
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/assets/events/42", url)
	})

	t.Run("StorageDelegated", func(t *testing.T) {
		s, err := urlstrategy.New(urlstrategy.Config{BlobStore: memory.New()})
		require.NoError(t, err)
		url, err := s.DownloadURL(ctx, "products/u1-5", "")
		require.NoError(t, err)
		assert.Equal(t, "memory://products/u1-5", url)
	})

	t.Run("MissingConfig", func(t *testing.T) {
		_, err := urlstrategy.New(urlstrategy.Config{Type: urlstrategy.StrategyTypeCDN})
		assert.Error(t, err)
		_, err = urlstrategy.New(urlstrategy.Config{Type: urlstrategy.StrategyTypeStorageDelegated})
		assert.Error(t, err)
		_, err = urlstrategy.New(urlstrategy.Config{Type: "bogus"})
		assert.Error(t, err)
	})
}
