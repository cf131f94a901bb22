package interfaces

import (
	"context"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
)

// OfferRepository defines the interface for SlotOffer persistence
type OfferRepository interface {
	// Create stores the offer as the user's active offer. Any prior offer
	// still in the offered state is marked superseded in the same atomic
	// operation, preserving the one-active-offer-per-user invariant.
	Create(ctx context.Context, offer *model.SlotOffer) error

	// GetActive retrieves the user's offer in the offered state. Returns
	// (nil, nil) when the user has no active offer. Expiry is not evaluated
	// here; callers compare ExpiresAt at read time.
	GetActive(ctx context.Context, userID model.UserID) (*model.SlotOffer, error)

	// Transition moves the offer from one status to another, failing with
	// ErrTransitionConflict if the stored status no longer matches from.
	Transition(ctx context.Context, id model.OfferID, from, to types.OfferStatus) (*model.SlotOffer, error)
}
