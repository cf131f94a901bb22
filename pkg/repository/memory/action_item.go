package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type actionItemRepository struct {
	mu    sync.Mutex
	items map[model.ActionItemID]*model.ActionItem
}

var _ interfaces.ActionItemRepository = &actionItemRepository{}

func newActionItemRepository() *actionItemRepository {
	return &actionItemRepository{
		items: make(map[model.ActionItemID]*model.ActionItem),
	}
}

func copyItem(i *model.ActionItem) *model.ActionItem {
	copied := *i
	return &copied
}

func sortItems(items []*model.ActionItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func (r *actionItemRepository) Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	if item == nil {
		return nil, goerr.New("action item is nil")
	}
	if err := item.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid action item")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return nil, goerr.New("action item already exists", goerr.V("id", item.ID))
	}

	created := copyItem(item)
	r.items[item.ID] = created
	return copyItem(created), nil
}

func (r *actionItemRepository) Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, nil
	}
	return copyItem(item), nil
}

func (r *actionItemRepository) ListByUserDay(ctx context.Context, userID model.UserID, day string) ([]*model.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*model.ActionItem
	for _, item := range r.items {
		if item.UserID == userID && item.Day == day {
			items = append(items, copyItem(item))
		}
	}
	sortItems(items)
	return items, nil
}

func (r *actionItemRepository) ListByStatus(ctx context.Context, userID model.UserID, status types.ActionItemStatus) ([]*model.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*model.ActionItem
	for _, item := range r.items {
		if item.UserID == userID && item.Status == status {
			items = append(items, copyItem(item))
		}
	}
	sortItems(items)
	return items, nil
}

func (r *actionItemRepository) Transition(ctx context.Context, id model.ActionItemID, from, to types.ActionItemStatus) (*model.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", id))
	}
	if item.Status != from {
		return nil, goerr.Wrap(interfaces.ErrTransitionConflict, "action item status changed",
			goerr.V("id", id), goerr.V("expected", from), goerr.V("actual", item.Status))
	}

	item.Status = to
	item.UpdatedAt = time.Now().UTC()
	return copyItem(item), nil
}
