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

const actionItemsCollection = "action_items"

type actionItemRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ActionItemRepository = &actionItemRepository{}

func newActionItemRepository(client *firestore.Client) *actionItemRepository {
	return &actionItemRepository{
		client: client,
	}
}

// actionItemDoc is the Firestore persistence model
type actionItemDoc struct {
	ID          string    `firestore:"id"`
	UserID      string    `firestore:"user_id"`
	Day         string    `firestore:"day"`
	Text        string    `firestore:"text"`
	Status      string    `firestore:"status"`
	CarriedFrom string    `firestore:"carried_from"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func (r *actionItemRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + actionItemsCollection)
	}
	return r.client.Collection(actionItemsCollection)
}

func (r *actionItemRepository) toDoc(item *model.ActionItem) *actionItemDoc {
	return &actionItemDoc{
		ID:          string(item.ID),
		UserID:      string(item.UserID),
		Day:         item.Day,
		Text:        item.Text,
		Status:      item.Status.String(),
		CarriedFrom: string(item.CarriedFrom),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (r *actionItemRepository) fromDoc(doc *actionItemDoc) *model.ActionItem {
	return &model.ActionItem{
		ID:          model.ActionItemID(doc.ID),
		UserID:      model.UserID(doc.UserID),
		Day:         doc.Day,
		Text:        doc.Text,
		Status:      types.ActionItemStatus(doc.Status),
		CarriedFrom: model.ActionItemID(doc.CarriedFrom),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func (r *actionItemRepository) Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	if item == nil {
		return nil, goerr.New("action item is nil")
	}
	if err := item.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid action item")
	}

	if _, err := r.collection().Doc(string(item.ID)).Create(ctx, r.toDoc(item)); err != nil {
		return nil, goerr.Wrap(err, "failed to create action item", goerr.V("id", item.ID))
	}
	return item, nil
}

func (r *actionItemRepository) Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error) {
	docSnap, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get action item", goerr.V("id", id))
	}

	var doc actionItemDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action item", goerr.V("id", id))
	}
	return r.fromDoc(&doc), nil
}

func (r *actionItemRepository) list(ctx context.Context, query firestore.Query) ([]*model.ActionItem, error) {
	iter := query.OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	items := make([]*model.ActionItem, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate action items")
		}

		var doc actionItemDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode action item", goerr.V("doc_id", docSnap.Ref.ID))
		}
		items = append(items, r.fromDoc(&doc))
	}

	return items, nil
}

func (r *actionItemRepository) ListByUserDay(ctx context.Context, userID model.UserID, day string) ([]*model.ActionItem, error) {
	return r.list(ctx, r.collection().
		Where("user_id", "==", string(userID)).
		Where("day", "==", day))
}

func (r *actionItemRepository) ListByStatus(ctx context.Context, userID model.UserID, status types.ActionItemStatus) ([]*model.ActionItem, error) {
	return r.list(ctx, r.collection().
		Where("user_id", "==", string(userID)).
		Where("status", "==", status.String()))
}

func (r *actionItemRepository) Transition(ctx context.Context, id model.ActionItemID, from, to types.ActionItemStatus) (*model.ActionItem, error) {
	docRef := r.collection().Doc(string(id))

	var updated *model.ActionItem
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get action item", goerr.V("id", id))
		}

		var doc actionItemDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode action item", goerr.V("id", id))
		}

		if doc.Status != from.String() {
			return goerr.Wrap(interfaces.ErrTransitionConflict, "action item status changed",
				goerr.V("id", id), goerr.V("expected", from), goerr.V("actual", doc.Status))
		}

		now := time.Now().UTC()
		doc.Status = to.String()
		doc.UpdatedAt = now
		updated = r.fromDoc(&doc)
		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: to.String()},
			{Path: "updated_at", Value: now},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
