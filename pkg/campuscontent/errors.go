package campuscontent

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrUploadFailed indicates an asset upload failed
	ErrUploadFailed = errors.New("upload failed")

	// ErrNotFound indicates the addressed document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrAccessDenied indicates the caller lacks permission for the operation
	ErrAccessDenied = errors.New("access denied")

	// ErrUnauthenticated indicates a write was attempted without an identity
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnknownKind indicates an entity kind the service does not manage
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrInvalidQuery indicates a malformed store query
	ErrInvalidQuery = errors.New("invalid query")

	// ErrStoreRequired indicates the service was built without a document store
	ErrStoreRequired = errors.New("document store is required")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError represents a failure of the blob store.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WriteError reports a failed create or update of an entity. The message
// carries the underlying cause as a suffix.
type WriteError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ReadError reports a failed list of an entity type for any reason other
// than missing permission.
type ReadError struct {
	Kind Kind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to fetch %ss: %v", e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// OrphanedAssetError is returned when metadata persistence failed after an
// asset was published and the compensating delete failed as well. The asset
// at Key is no longer referenced by any document.
type OrphanedAssetError struct {
	Kind       Kind
	Key        string
	Err        error
	CleanupErr error
}

func (e *OrphanedAssetError) Error() string {
	return fmt.Sprintf("failed to create %s: %v (asset %s orphaned: %v)", e.Kind, e.Err, e.Key, e.CleanupErr)
}

func (e *OrphanedAssetError) Unwrap() []error {
	return []error{e.Err, e.CleanupErr}
}

// IsAccessDenied reports whether err is or wraps ErrAccessDenied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
