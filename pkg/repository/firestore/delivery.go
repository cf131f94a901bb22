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

const deliveriesCollection = "deliveries"

type deliveryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.DeliveryRepository = &deliveryRepository{}

func newDeliveryRepository(client *firestore.Client) *deliveryRepository {
	return &deliveryRepository{
		client: client,
	}
}

// deliveryDoc is the Firestore persistence model. The document ID is the
// claim key, so uniqueness is enforced by the storage layer itself.
type deliveryDoc struct {
	UserID       string    `firestore:"user_id"`
	Rule         string    `firestore:"rule"`
	OccurrenceID string    `firestore:"occurrence_id"`
	Status       string    `firestore:"status"`
	CreatedAt    time.Time `firestore:"created_at"`
}

func (r *deliveryRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + deliveriesCollection)
	}
	return r.client.Collection(deliveriesCollection)
}

func (r *deliveryRepository) toDoc(rec *model.DeliveryRecord) *deliveryDoc {
	return &deliveryDoc{
		UserID:       string(rec.UserID),
		Rule:         rec.Rule.String(),
		OccurrenceID: rec.OccurrenceID,
		Status:       rec.Status.String(),
		CreatedAt:    rec.CreatedAt,
	}
}

func (r *deliveryRepository) fromDoc(doc *deliveryDoc) *model.DeliveryRecord {
	return &model.DeliveryRecord{
		UserID:       model.UserID(doc.UserID),
		Rule:         types.RuleKind(doc.Rule),
		OccurrenceID: doc.OccurrenceID,
		Status:       types.DeliveryStatus(doc.Status),
		CreatedAt:    doc.CreatedAt,
	}
}

func (r *deliveryRepository) TryClaim(ctx context.Context, rec *model.DeliveryRecord) (bool, error) {
	if rec == nil {
		return false, goerr.New("delivery record is nil")
	}
	if err := rec.Validate(); err != nil {
		return false, goerr.Wrap(err, "invalid delivery record")
	}

	// Create fails with AlreadyExists when the document ID is taken. That is
	// the entire claim mechanism: no read-then-write, no race window.
	_, err := r.collection().Doc(rec.Key()).Create(ctx, r.toDoc(rec))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to claim delivery", goerr.V("key", rec.Key()))
	}
	return true, nil
}

func (r *deliveryRepository) Get(ctx context.Context, userID model.UserID, rule types.RuleKind, occurrenceID string) (*model.DeliveryRecord, error) {
	lookup := model.DeliveryRecord{UserID: userID, Rule: rule, OccurrenceID: occurrenceID}
	docSnap, err := r.collection().Doc(lookup.Key()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get delivery record", goerr.V("key", lookup.Key()))
	}

	var doc deliveryDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode delivery record", goerr.V("key", lookup.Key()))
	}
	return r.fromDoc(&doc), nil
}

func (r *deliveryRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	iter := r.collection().Where("created_at", "<", cutoff).Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, goerr.Wrap(err, "failed to iterate delivery records")
		}

		if _, err := docSnap.Ref.Delete(ctx); err != nil {
			return removed, goerr.Wrap(err, "failed to delete delivery record", goerr.V("doc_id", docSnap.Ref.ID))
		}
		removed++
	}

	return removed, nil
}
