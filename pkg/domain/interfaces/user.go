package interfaces

import (
	"context"

	"github.com/aide-lab/kairos/pkg/domain/model"
)

// UserRepository defines the interface for User data persistence
type UserRepository interface {
	// Put creates or replaces the user record
	Put(ctx context.Context, user *model.User) error

	// Get retrieves a user by ID. Returns (nil, nil) when the user does not exist.
	Get(ctx context.Context, id model.UserID) (*model.User, error)

	// List retrieves all known users
	List(ctx context.Context) ([]*model.User, error)
}
