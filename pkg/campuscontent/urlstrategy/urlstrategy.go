// Package urlstrategy resolves the public URL stored alongside a published
// asset. Strategies implement campuscontent.URLStrategy.
package urlstrategy

import (
	"context"
	"fmt"
	"strings"
)

// StrategyType represents the type of URL strategy
type StrategyType string

const (
	// CDN strategy for direct CDN URLs
	StrategyTypeCDN StrategyType = "cdn"

	// App-routed strategy for URLs served by the API's asset route
	StrategyTypeAppRouted StrategyType = "app-routed"

	// Storage-delegated strategy asks the blob store for its own URL
	StrategyTypeStorageDelegated StrategyType = "storage-delegated"
)

// BlobStore interface for URL generation (to avoid circular imports)
type BlobStore interface {
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// Config holds configuration for URL strategy creation
type Config struct {
	Type       StrategyType
	CDNBaseURL string
	APIBaseURL string
	BlobStore  BlobStore
}

// Strategy is the common shape of every strategy in this package.
type Strategy interface {
	DownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// New creates a URL strategy based on the configuration
func New(config Config) (Strategy, error) {
	switch config.Type {
	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case StrategyTypeAppRouted:
		if config.APIBaseURL == "" {
			return nil, fmt.Errorf("API base URL is required for app-routed strategy")
		}
		return NewAppRoutedStrategy(config.APIBaseURL), nil

	case StrategyTypeStorageDelegated, "":
		if config.BlobStore == nil {
			return nil, fmt.Errorf("blob store is required for storage-delegated strategy")
		}
		return NewStorageDelegatedStrategy(config.BlobStore), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}

// CDNStrategy generates URLs that point directly to a CDN
type CDNStrategy struct {
	CDNBaseURL string // e.g., "https://cdn.example.com"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	return &CDNStrategy{CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/")}
}

// DownloadURL creates a direct CDN URL for the object key
func (s *CDNStrategy) DownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if s.CDNBaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	return fmt.Sprintf("%s/%s", s.CDNBaseURL, objectKey), nil
}

// AppRoutedStrategy routes downloads through the application server's asset
// endpoint
type AppRoutedStrategy struct {
	APIBaseURL string // e.g., "https://api.example.com/api/v1" or "/api/v1"
}

// NewAppRoutedStrategy creates a new app-routed URL strategy
func NewAppRoutedStrategy(apiBaseURL string) *AppRoutedStrategy {
	return &AppRoutedStrategy{APIBaseURL: strings.TrimSuffix(apiBaseURL, "/")}
}

// DownloadURL creates an asset URL served by the API
func (s *AppRoutedStrategy) DownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if s.APIBaseURL == "" {
		return "", fmt.Errorf("API base URL not configured")
	}
	return fmt.Sprintf("%s/assets/%s", s.APIBaseURL, objectKey), nil
}

// StorageDelegatedStrategy delegates URL generation to the storage backend
type StorageDelegatedStrategy struct {
	BlobStore BlobStore
}

// NewStorageDelegatedStrategy creates a new storage-delegated URL strategy
func NewStorageDelegatedStrategy(blobStore BlobStore) *StorageDelegatedStrategy {
	return &StorageDelegatedStrategy{BlobStore: blobStore}
}

// DownloadURL delegates to the storage backend's GetDownloadURL method
func (s *StorageDelegatedStrategy) DownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return s.BlobStore.GetDownloadURL(ctx, objectKey, downloadFilename)
}
