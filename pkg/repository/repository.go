package repository

import (
	"context"

	"github.com/m-mizutani/recall/pkg/model"
)

// Repository defines the interface for durable memory persistence.
// Implementations tag connectivity failures with model.ErrTagBackendUnavailable.
type Repository interface {
	// PutMemory saves a memory and adds it to the user's recency index
	PutMemory(ctx context.Context, memory *model.Memory) error

	// ListMemories retrieves up to limit most recent memories of the user
	ListMemories(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error)

	// Ping checks connectivity without mutating state
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
