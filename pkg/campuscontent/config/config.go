package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/cache"
	"github.com/tendant/campus-content/pkg/campuscontent/metrics"
	"github.com/tendant/campus-content/pkg/campuscontent/objectkey"
	memoryrepo "github.com/tendant/campus-content/pkg/campuscontent/repo/memory"
	repopg "github.com/tendant/campus-content/pkg/campuscontent/repo/postgres"
	reposqlite "github.com/tendant/campus-content/pkg/campuscontent/repo/sqlite"
	fsstorage "github.com/tendant/campus-content/pkg/campuscontent/storage/fs"
	memorystorage "github.com/tendant/campus-content/pkg/campuscontent/storage/memory"
	s3storage "github.com/tendant/campus-content/pkg/campuscontent/storage/s3"
	"github.com/tendant/campus-content/pkg/campuscontent/urlstrategy"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "campus",
		Storage: StorageConfig{
			Type:            "memory",
			Region:          "us-east-1",
			PresignDuration: 3600,
		},
		URLStrategy:  string(urlstrategy.StrategyTypeStorageDelegated),
		ListCacheTTL: 30 * time.Second,
		FallbackMode: string(campuscontent.FallbackEmpty),
	}
}

// ServerConfig represents server configuration for the campus content service
type ServerConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"` // development, production, testing

	// Database configuration
	DatabaseType string `yaml:"database_type"` // "memory", "postgres", "sqlite"
	DatabaseURL  string `yaml:"database_url"`  // connection string or sqlite file path
	DBSchema     string `yaml:"db_schema"`     // Postgres schema to use (default: campus)

	Storage StorageConfig `yaml:"storage"`

	// Published asset URLs
	URLStrategy string `yaml:"url_strategy"` // "storage-delegated", "cdn", "app-routed"
	CDNBaseURL  string `yaml:"cdn_base_url"`
	APIBaseURL  string `yaml:"api_base_url"`

	// Asset key layout: "" keeps the per-type default, "sharded" spreads
	// keys under {prefix}/objects/ab/...
	ObjectKeyLayout string `yaml:"object_key_layout"`

	// List cache; disabled when RedisURL is empty
	RedisURL     string        `yaml:"redis_url"`
	ListCacheTTL time.Duration `yaml:"list_cache_ttl"`

	JWTSecret     string `yaml:"jwt_secret"`
	FallbackMode  string `yaml:"fallback_mode"` // "empty" or "demo"
	EnableMetrics bool   `yaml:"enable_metrics"`
}

// StorageConfig selects and configures the asset blob store
type StorageConfig struct {
	Type string `yaml:"type"` // "memory", "fs", "s3"

	// Filesystem
	BaseDir   string `yaml:"base_dir"`
	URLPrefix string `yaml:"url_prefix"`

	// S3 and S3-compatible services
	Bucket                 string `yaml:"bucket"`
	Region                 string `yaml:"region"`
	Endpoint               string `yaml:"endpoint"`
	AccessKeyID            string `yaml:"access_key_id"`
	SecretAccessKey        string `yaml:"secret_access_key"`
	UsePathStyle           bool   `yaml:"use_path_style"`
	PresignDuration        int    `yaml:"presign_duration"`
	PublicBaseURL          string `yaml:"public_base_url"`
	CreateBucketIfNotExist bool   `yaml:"create_bucket_if_not_exist"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'sqlite'")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if c.Storage.BaseDir == "" {
			return errors.New("storage.base_dir is required for fs storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	switch urlstrategy.StrategyType(c.URLStrategy) {
	case "", urlstrategy.StrategyTypeStorageDelegated:
	case urlstrategy.StrategyTypeCDN:
		if c.CDNBaseURL == "" {
			return errors.New("cdn_base_url is required for the cdn url strategy")
		}
	case urlstrategy.StrategyTypeAppRouted:
		if c.APIBaseURL == "" {
			return errors.New("api_base_url is required for the app-routed url strategy")
		}
	default:
		return fmt.Errorf("unknown url strategy: %s", c.URLStrategy)
	}

	switch c.ObjectKeyLayout {
	case "", "default", "sharded":
	default:
		return fmt.Errorf("unknown object key layout: %s", c.ObjectKeyLayout)
	}

	if _, err := campuscontent.ParseFallbackMode(c.FallbackMode); err != nil {
		return err
	}

	if c.ListCacheTTL < 0 {
		return errors.New("list_cache_ttl cannot be negative")
	}

	if c.Environment == "production" && c.JWTSecret == "" {
		return errors.New("jwt_secret is required in production")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
// When reg is non-nil store latency, Redis errors and best-effort faults are
// exported through it. The returned cleanup releases database and cache
// connections.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer) (campuscontent.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, closeStore, err := c.buildStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build store: %w", err)
	}
	closers = append(closers, closeStore)

	options := []campuscontent.Option{campuscontent.WithLogger(logger)}

	var recorder *metrics.Recorder
	if reg != nil {
		recorder = metrics.New(reg)
		store = recorder.Instrument(store)
		options = append(options, campuscontent.WithRecorder(recorder))
	} else {
		options = append(options, campuscontent.WithRecorder(campuscontent.NewLoggingRecorder(logger)))
	}

	if c.RedisURL != "" {
		client, err := cache.NewClient(ctx, c.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, func() { client.Close() })
		if recorder != nil {
			client.AddHook(recorder.RedisHook())
		}
		store = cache.New(store, client, cache.WithTTL(c.ListCacheTTL), cache.WithLogger(logger))
	}
	options = append(options, campuscontent.WithStore(store))

	blobs, err := c.buildBlobStore(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}
	options = append(options, campuscontent.WithBlobStore(blobs))

	urls, err := urlstrategy.New(urlstrategy.Config{
		Type:       urlstrategy.StrategyType(c.URLStrategy),
		CDNBaseURL: c.CDNBaseURL,
		APIBaseURL: c.APIBaseURL,
		BlobStore:  blobs,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	options = append(options, campuscontent.WithURLStrategy(urls))
	options = append(options, c.keyGenerators()...)

	mode, err := campuscontent.ParseFallbackMode(c.FallbackMode)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	options = append(options, campuscontent.WithFallbackMode(mode))

	svc, err := campuscontent.New(options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// keyGenerators returns the asset key overrides for the configured layout.
func (c *ServerConfig) keyGenerators() []campuscontent.Option {
	if c.ObjectKeyLayout != "sharded" {
		return nil
	}
	return []campuscontent.Option{
		campuscontent.WithKeyGenerator(campuscontent.KindNote, objectkey.NewShardedGenerator("notes")),
		campuscontent.WithKeyGenerator(campuscontent.KindListing, objectkey.NewShardedGenerator("products")),
		campuscontent.WithKeyGenerator(campuscontent.KindEvent, objectkey.NewShardedGenerator("events")),
	}
}

// buildStore creates the document store based on the configuration
func (c *ServerConfig) buildStore(ctx context.Context) (campuscontent.Store, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), func() {}, nil
	case "postgres":
		pool, err := newPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		store := repopg.NewWithPool(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case "sqlite":
		store, err := reposqlite.Open(c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// newPool opens a pgx pool whose sessions use schema as search_path. The
// schema is created on first connect.
func newPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		ident := pgx.Identifier{schema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
				return err
			}
			_, err := conn.Exec(ctx, "SET search_path TO "+ident)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// buildBlobStore creates a BlobStore based on the storage configuration
func (c *ServerConfig) buildBlobStore(ctx context.Context) (campuscontent.BlobStore, error) {
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.Storage.BaseDir,
			URLPrefix: c.Storage.URLPrefix,
		})

	case "s3":
		return s3storage.New(ctx, s3storage.Config{
			Region:                 c.Storage.Region,
			Bucket:                 c.Storage.Bucket,
			AccessKeyID:            c.Storage.AccessKeyID,
			SecretAccessKey:        c.Storage.SecretAccessKey,
			Endpoint:               c.Storage.Endpoint,
			UsePathStyle:           c.Storage.UsePathStyle,
			PresignDuration:        c.Storage.PresignDuration,
			PublicBaseURL:          c.Storage.PublicBaseURL,
			CreateBucketIfNotExist: c.Storage.CreateBucketIfNotExist,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}
}
