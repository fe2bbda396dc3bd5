package campuscontent

import (
	"context"
	"io"
	"time"
)

// Operator is the comparison applied by a store-side filter.
type Operator string

const (
	// OpEqual matches documents whose field equals the value
	OpEqual Operator = "=="
	// OpArrayContains matches documents whose array field contains the value
	OpArrayContains Operator = "array-contains"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Document is the store-side representation of an entity: an envelope of
// store-assigned identity plus a flat field map. Times inside Fields are
// encoded as Unix microseconds.
type Document struct {
	ID         string
	Collection string
	CreatedAt  time.Time
	Fields     map[string]any
}

// Condition is a single store-side filter.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Order is the store-side sort. Field may be FieldCreatedAt, which sorts by
// the store-assigned timestamp.
type Order struct {
	Field     string
	Direction Direction
}

// Query addresses one collection with an optional filter and a sort.
// Documents with equal sort keys are returned in insertion order matching
// the sort direction.
type Query struct {
	Collection string
	Where      *Condition
	OrderBy    Order
}

// Store is the document store behind every entity type. Implementations
// must make Increment atomic with respect to concurrent increments and must
// assign CreatedAt values that never decrease in insertion order; documents
// with equal values are ordered by insertion.
type Store interface {
	// Insert stores fields under a new store-assigned ID and returns the
	// document as persisted.
	Insert(ctx context.Context, collection string, fields map[string]any) (*Document, error)

	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Query returns the documents of one collection in the requested order.
	Query(ctx context.Context, q Query) ([]*Document, error)

	// UpdateField sets one field of an existing document.
	UpdateField(ctx context.Context, collection, id, field string, value any) error

	// Increment atomically adds delta to a numeric field, treating a missing
	// field as zero.
	Increment(ctx context.Context, collection, id, field string, delta int64) error

	// Delete removes one document.
	Delete(ctx context.Context, collection, id string) error

	// DeleteCollection removes every document in a collection.
	DeleteCollection(ctx context.Context, collection string) error
}

// BlobStore defines the interface for asset storage backends
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// URLStrategy resolves the public URL of a published asset.
type URLStrategy interface {
	DownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// Recorder receives operational signals that callers never see as errors.
type Recorder interface {
	// CounterFailed is called when a best-effort increment failed
	CounterFailed(kind Kind, field string)

	// FallbackServed is called when a list read was replaced by fallback data
	FallbackServed(kind Kind, mode FallbackMode)

	// AssetOrphaned is called when a compensating asset delete failed
	AssetOrphaned(kind Kind)
}

// ObjectMeta represents metadata about a stored asset
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an asset
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Asset is an optional binary payload attached to a create request.
type Asset struct {
	Body        io.Reader
	FileName    string
	ContentType string
	Size        int64
}
