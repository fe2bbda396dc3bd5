package objectkey

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for storage backends
	GenerateKey(metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	OwnerID     string
	FileName    string
	ContentType string
	Time        time.Time
}

// OwnerTimestampGenerator keys assets by owner and upload time:
// {prefix}/{owner}-{millis}{ext}
type OwnerTimestampGenerator struct {
	Prefix string
	// Extension is appended verbatim, e.g. ".pdf". Empty keeps no extension.
	Extension string
}

func NewOwnerTimestampGenerator(prefix, extension string) *OwnerTimestampGenerator {
	return &OwnerTimestampGenerator{Prefix: prefix, Extension: extension}
}

func (g *OwnerTimestampGenerator) GenerateKey(metadata *KeyMetadata) string {
	owner, ts := "anonymous", time.Now()
	if metadata != nil {
		if metadata.OwnerID != "" {
			owner = sanitizePathComponent(metadata.OwnerID)
		}
		if !metadata.Time.IsZero() {
			ts = metadata.Time
		}
	}
	return fmt.Sprintf("%s/%s-%d%s", g.Prefix, owner, ts.UnixMilli(), g.Extension)
}

// TimestampGenerator keys assets by upload time only: {prefix}/{millis}
type TimestampGenerator struct {
	Prefix string
}

func NewTimestampGenerator(prefix string) *TimestampGenerator {
	return &TimestampGenerator{Prefix: prefix}
}

func (g *TimestampGenerator) GenerateKey(metadata *KeyMetadata) string {
	ts := time.Now()
	if metadata != nil && !metadata.Time.IsZero() {
		ts = metadata.Time
	}
	return fmt.Sprintf("%s/%d", g.Prefix, ts.UnixMilli())
}

// ShardedGenerator provides Git-style sharded keys that never collide:
// {prefix}/objects/ab/cd1234ef5678_filename
type ShardedGenerator struct {
	Prefix string
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator(prefix string) *ShardedGenerator {
	return &ShardedGenerator{Prefix: prefix, ShardLength: 2}
}

func (g *ShardedGenerator) GenerateKey(metadata *KeyMetadata) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	shardLength := g.ShardLength
	if shardLength <= 0 || shardLength >= len(id) {
		shardLength = 2
	}
	shardDir, remaining := id[:shardLength], id[shardLength:]

	filename := remaining
	if metadata != nil && metadata.FileName != "" {
		filename = fmt.Sprintf("%s_%s", remaining, sanitizeFilename(path.Base(metadata.FileName)))
	}
	return fmt.Sprintf("%s/objects/%s/%s", g.Prefix, shardDir, filename)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(metadata *KeyMetadata) string {
	return g.GenerateFunc(metadata)
}

var unsafePathChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
)

func sanitizeFilename(filename string) string {
	return unsafePathChars.Replace(filename)
}

// Owner IDs keep their case so keys stay recognisable.
func sanitizePathComponent(component string) string {
	return unsafePathChars.Replace(component)
}
