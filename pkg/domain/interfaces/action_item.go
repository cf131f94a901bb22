package interfaces

import (
	"context"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
)

// ActionItemRepository defines the interface for ActionItem persistence
type ActionItemRepository interface {
	// Create stores a new action item
	Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error)

	// Get retrieves an item by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error)

	// ListByUserDay retrieves a user's items for one local day, oldest first
	ListByUserDay(ctx context.Context, userID model.UserID, day string) ([]*model.ActionItem, error)

	// ListByStatus retrieves a user's items in the given status, oldest first
	ListByStatus(ctx context.Context, userID model.UserID, status types.ActionItemStatus) ([]*model.ActionItem, error)

	// Transition moves the item from one status to another, failing with
	// ErrTransitionConflict if the stored status no longer matches from.
	Transition(ctx context.Context, id model.ActionItemID, from, to types.ActionItemStatus) (*model.ActionItem, error)
}
