package providers

import (
	"context"
	"errors"
	"fmt"

	"comedyuo/showsync/internal/constants"
)

// RemoteStore is the remote table holding show records, addressed by record id.
// Each method is a single logical call with no retries or caching.
type RemoteStore interface {
	// ListAll returns every record in the table, following pagination internally
	ListAll(ctx context.Context) ([]RemoteRecord, error)

	// Get fetches one record by id
	Get(ctx context.Context, remoteID string) (*RemoteRecord, error)

	// Create inserts a record with the given remote field names
	Create(ctx context.Context, fields map[string]interface{}) (*RemoteRecord, error)

	// Update patches the given remote fields of a record
	Update(ctx context.Context, remoteID string, fields map[string]interface{}) (*RemoteRecord, error)

	// Delete removes a record
	Delete(ctx context.Context, remoteID string) error
}

// RemoteRecord is one record as returned by the remote table.
type RemoteRecord struct {
	ID          string                 `json:"id"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

// Remote operation names carried by RemoteStoreError.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RemoteStoreError wraps every failure of a remote call with the operation
// and the record id it was made for.
type RemoteStoreError struct {
	Op         string
	RemoteID   string
	Code       string
	StatusCode int
	Message    string
	Details    string
	Err        error
}

func (e *RemoteStoreError) Error() string {
	target := e.Op
	if e.RemoteID != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.RemoteID)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote store %s: %s: %v", target, e.Message, e.Err)
	}
	return fmt.Sprintf("remote store %s: %s", target, e.Message)
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

// IsRemoteNotFound reports whether err is a remote NOT_FOUND answer.
func IsRemoteNotFound(err error) bool {
	var rse *RemoteStoreError
	return errors.As(err, &rse) && rse.Code == constants.ErrCodeNotFound
}

// isClientError reports failures caused by the request rather than by the
// remote service being unhealthy. They do not count against the breaker.
func isClientError(err error) bool {
	var rse *RemoteStoreError
	if !errors.As(err, &rse) {
		return false
	}
	switch rse.Code {
	case constants.ErrCodeNotFound, constants.ErrCodeInvalidRequest, constants.ErrCodeInvalidAPIKey:
		return true
	}
	return false
}
