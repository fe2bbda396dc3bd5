package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// envConfig lists every recognised environment variable. Empty values
// leave the current setting unchanged.
type envConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"`

	// DATABASE_URL is "memory", "postgres://...", "postgresql://..." or
	// "sqlite://path" ("sqlite://:memory:" for an in-process database)
	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA"`

	// STORAGE_URL is "memory://", "file:///path/to/data" or
	// "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
	StorageURL         string `env:"STORAGE_URL"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	URLStrategy string `env:"URL_STRATEGY"`
	CDNBaseURL  string `env:"CDN_BASE_URL"`
	APIBaseURL  string `env:"API_BASE_URL"`

	ObjectKeyLayout string `env:"OBJECT_KEY_LAYOUT"`

	RedisURL     string        `env:"REDIS_URL"`
	ListCacheTTL time.Duration `env:"LIST_CACHE_TTL"`

	JWTSecret     string `env:"JWT_SECRET"`
	FallbackMode  string `env:"FALLBACK_MODE"`
	EnableMetrics string `env:"METRICS_ENABLED"`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		setString(&c.Port, env.Port)
		setString(&c.Environment, env.Environment)
		setString(&c.DBSchema, env.DBSchema)
		setString(&c.URLStrategy, env.URLStrategy)
		setString(&c.CDNBaseURL, env.CDNBaseURL)
		setString(&c.APIBaseURL, env.APIBaseURL)
		setString(&c.ObjectKeyLayout, env.ObjectKeyLayout)
		setString(&c.RedisURL, env.RedisURL)
		setString(&c.JWTSecret, env.JWTSecret)
		setString(&c.FallbackMode, env.FallbackMode)
		if env.ListCacheTTL != 0 {
			c.ListCacheTTL = env.ListCacheTTL
		}
		if env.EnableMetrics != "" {
			enabled, err := strconv.ParseBool(env.EnableMetrics)
			if err != nil {
				return fmt.Errorf("invalid boolean for METRICS_ENABLED: %w", err)
			}
			c.EnableMetrics = enabled
		}

		if err := applyDatabaseURL(env.DatabaseURL, c); err != nil {
			return err
		}
		if err := applyStorageURL(env.StorageURL, c); err != nil {
			return err
		}
		setString(&c.Storage.AccessKeyID, env.AWSAccessKeyID)
		setString(&c.Storage.SecretAccessKey, env.AWSSecretAccessKey)

		return nil
	}
}

// WithFile reads a YAML config file. Keys absent from the file keep their
// current values.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// applyDatabaseURL detects the database type from the URL scheme
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	case strings.HasPrefix(dbURL, "sqlite://"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty in DATABASE_URL")
		}
		c.DatabaseType = "sqlite"
		c.DatabaseURL = path
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgres://...' or 'sqlite://...')", dbURL)
	}
	return nil
}

// applyStorageURL configures the blob store from a storage URL
func applyStorageURL(storageURL string, c *ServerConfig) error {
	switch {
	case storageURL == "":
		return nil
	case storageURL == "memory" || storageURL == "memory://":
		c.Storage.Type = "memory"
		return nil
	case strings.HasPrefix(storageURL, "file://"):
		path := strings.TrimPrefix(storageURL, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.Storage.Type = "fs"
		c.Storage.BaseDir = path
		return nil
	case strings.HasPrefix(storageURL, "s3://"):
		return applyS3URL(storageURL, c)
	}
	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
}

// applyS3URL parses s3://bucket?region=..&endpoint=..&path_style=..
func applyS3URL(raw string, c *ServerConfig) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}

	c.Storage.Type = "s3"
	c.Storage.Bucket = u.Host

	q := u.Query()
	setString(&c.Storage.Region, q.Get("region"))
	setString(&c.Storage.Endpoint, q.Get("endpoint"))
	if v := q.Get("path_style"); v != "" {
		pathStyle, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
		}
		c.Storage.UsePathStyle = pathStyle
	}
	return nil
}
