package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const offersCollection = "slot_offers"

type offerRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.OfferRepository = &offerRepository{}

func newOfferRepository(client *firestore.Client) *offerRepository {
	return &offerRepository{
		client: client,
	}
}

// slotDoc is one candidate interval in the Firestore persistence model
type slotDoc struct {
	Start time.Time `firestore:"start"`
	End   time.Time `firestore:"end"`
}

// offerDoc is the Firestore persistence model
type offerDoc struct {
	ID          string    `firestore:"id"`
	UserID      string    `firestore:"user_id"`
	Slots       []slotDoc `firestore:"slots"`
	DurationSec int64     `firestore:"duration_sec"`
	Title       string    `firestore:"title"`
	Attendees   []string  `firestore:"attendees"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"created_at"`
	ExpiresAt   time.Time `firestore:"expires_at"`
}

func (r *offerRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + offersCollection)
	}
	return r.client.Collection(offersCollection)
}

func (r *offerRepository) toDoc(offer *model.SlotOffer) *offerDoc {
	slots := make([]slotDoc, len(offer.Slots))
	for i, s := range offer.Slots {
		slots[i] = slotDoc{Start: s.Start, End: s.End}
	}
	return &offerDoc{
		ID:          string(offer.ID),
		UserID:      string(offer.UserID),
		Slots:       slots,
		DurationSec: int64(offer.Duration / time.Second),
		Title:       offer.Title,
		Attendees:   offer.Attendees,
		Status:      offer.Status.String(),
		CreatedAt:   offer.CreatedAt,
		ExpiresAt:   offer.ExpiresAt,
	}
}

func (r *offerRepository) fromDoc(doc *offerDoc) *model.SlotOffer {
	slots := make([]model.Interval, len(doc.Slots))
	for i, s := range doc.Slots {
		slots[i] = model.Interval{Start: s.Start, End: s.End}
	}
	return &model.SlotOffer{
		ID:        model.OfferID(doc.ID),
		UserID:    model.UserID(doc.UserID),
		Slots:     slots,
		Duration:  time.Duration(doc.DurationSec) * time.Second,
		Title:     doc.Title,
		Attendees: doc.Attendees,
		Status:    types.OfferStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}
}

func (r *offerRepository) Create(ctx context.Context, offer *model.SlotOffer) error {
	if offer == nil {
		return goerr.New("offer is nil")
	}
	if err := offer.Validate(); err != nil {
		return goerr.Wrap(err, "invalid offer")
	}

	// Supersede the prior active offer and create the new one in a single
	// transaction so the one-active-offer invariant holds under races.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := r.collection().
			Where("user_id", "==", string(offer.UserID)).
			Where("status", "==", types.OfferStatusOffered.String())
		iter := tx.Documents(query)
		defer iter.Stop()

		var priorRefs []*firestore.DocumentRef
		for {
			docSnap, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return goerr.Wrap(err, "failed to query active offers")
			}
			priorRefs = append(priorRefs, docSnap.Ref)
		}

		for _, ref := range priorRefs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "status", Value: types.OfferStatusSuperseded.String()},
			}); err != nil {
				return goerr.Wrap(err, "failed to supersede prior offer", goerr.V("doc_id", ref.ID))
			}
		}

		return tx.Create(r.collection().Doc(string(offer.ID)), r.toDoc(offer))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create offer", goerr.V("offer_id", offer.ID))
	}
	return nil
}

func (r *offerRepository) GetActive(ctx context.Context, userID model.UserID) (*model.SlotOffer, error) {
	iter := r.collection().
		Where("user_id", "==", string(userID)).
		Where("status", "==", types.OfferStatusOffered.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query active offer", goerr.V("user_id", userID))
	}

	var doc offerDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode offer", goerr.V("doc_id", docSnap.Ref.ID))
	}
	return r.fromDoc(&doc), nil
}

func (r *offerRepository) Transition(ctx context.Context, id model.OfferID, from, to types.OfferStatus) (*model.SlotOffer, error) {
	docRef := r.collection().Doc(string(id))

	var updated *model.SlotOffer
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "offer not found", goerr.V("offer_id", id))
			}
			return goerr.Wrap(err, "failed to get offer", goerr.V("offer_id", id))
		}

		var doc offerDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode offer", goerr.V("offer_id", id))
		}

		if doc.Status != from.String() {
			return goerr.Wrap(interfaces.ErrTransitionConflict, "offer status changed",
				goerr.V("offer_id", id), goerr.V("expected", from), goerr.V("actual", doc.Status))
		}

		doc.Status = to.String()
		updated = r.fromDoc(&doc)
		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: to.String()},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
