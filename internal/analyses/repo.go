package analyses

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned for unknown or foreign analysis IDs.
var ErrRecordNotFound = errors.New("analysis not found")

// Repo persists analysis records.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error)
}
