package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Firestore is the production repository backend. Claim operations rely on
// document Create (which fails on existing IDs) and guarded transitions run
// in transactions, so correctness holds across process replicas.
type Firestore struct {
	client     *firestore.Client
	user       *userRepository
	delivery   *deliveryRepository
	offer      *offerRepository
	actionItem *actionItemRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.user.collectionPrefix = prefix
		f.delivery.collectionPrefix = prefix
		f.offer.collectionPrefix = prefix
		f.actionItem.collectionPrefix = prefix
	}
}

// New creates a Firestore-backed repository
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		user:       newUserRepository(client),
		delivery:   newDeliveryRepository(client),
		offer:      newOfferRepository(client),
		actionItem: newActionItemRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Delivery() interfaces.DeliveryRepository {
	return f.delivery
}

func (f *Firestore) Offer() interfaces.OfferRepository {
	return f.offer
}

func (f *Firestore) ActionItem() interfaces.ActionItemRepository {
	return f.actionItem
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
