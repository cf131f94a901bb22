package memory

import (
	"github.com/aide-lab/kairos/pkg/domain/interfaces"
)

// Memory is an in-process repository for development and tests. All claim and
// transition operations hold the per-entity mutex, so the atomicity contract
// matches the Firestore backend within a single process.
type Memory struct {
	user       *userRepository
	delivery   *deliveryRepository
	offer      *offerRepository
	actionItem *actionItemRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository
func New() *Memory {
	return &Memory{
		user:       newUserRepository(),
		delivery:   newDeliveryRepository(),
		offer:      newOfferRepository(),
		actionItem: newActionItemRepository(),
	}
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Delivery() interfaces.DeliveryRepository {
	return m.delivery
}

func (m *Memory) Offer() interfaces.OfferRepository {
	return m.offer
}

func (m *Memory) ActionItem() interfaces.ActionItemRepository {
	return m.actionItem
}

func (m *Memory) Close() error {
	return nil
}
