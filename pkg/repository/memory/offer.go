package memory

import (
	"context"
	"sync"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type offerRepository struct {
	mu     sync.Mutex
	offers map[model.OfferID]*model.SlotOffer
	active map[model.UserID]model.OfferID
}

var _ interfaces.OfferRepository = &offerRepository{}

func newOfferRepository() *offerRepository {
	return &offerRepository{
		offers: make(map[model.OfferID]*model.SlotOffer),
		active: make(map[model.UserID]model.OfferID),
	}
}

func copyOffer(o *model.SlotOffer) *model.SlotOffer {
	copied := *o
	copied.Slots = make([]model.Interval, len(o.Slots))
	copy(copied.Slots, o.Slots)
	copied.Attendees = make([]string, len(o.Attendees))
	copy(copied.Attendees, o.Attendees)
	return &copied
}

func (r *offerRepository) Create(ctx context.Context, offer *model.SlotOffer) error {
	if offer == nil {
		return goerr.New("offer is nil")
	}
	if err := offer.Validate(); err != nil {
		return goerr.Wrap(err, "invalid offer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Supersede the prior active offer in the same critical section
	if prevID, ok := r.active[offer.UserID]; ok {
		if prev, exists := r.offers[prevID]; exists && prev.Status == types.OfferStatusOffered {
			prev.Status = types.OfferStatusSuperseded
		}
	}

	r.offers[offer.ID] = copyOffer(offer)
	r.active[offer.UserID] = offer.ID
	return nil
}

func (r *offerRepository) GetActive(ctx context.Context, userID model.UserID) (*model.SlotOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[userID]
	if !ok {
		return nil, nil
	}
	offer, exists := r.offers[id]
	if !exists || offer.Status != types.OfferStatusOffered {
		return nil, nil
	}
	return copyOffer(offer), nil
}

func (r *offerRepository) Transition(ctx context.Context, id model.OfferID, from, to types.OfferStatus) (*model.SlotOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, exists := r.offers[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "offer not found", goerr.V("offer_id", id))
	}
	if offer.Status != from {
		return nil, goerr.Wrap(interfaces.ErrTransitionConflict, "offer status changed",
			goerr.V("offer_id", id), goerr.V("expected", from), goerr.V("actual", offer.Status))
	}

	offer.Status = to
	return copyOffer(offer), nil
}
