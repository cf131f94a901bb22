package usecase

import (
	"context"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNoSuchItem is returned when a completion command names an item number
// that does not exist on the day's list. User-input class, never fatal.
var ErrNoSuchItem = goerr.New("no such item")

// CarryOver clones the previous local day's Pending items into day as fresh
// Pending items with lineage, then transitions the originals to CarriedOver.
// A ledger claim makes the whole pass at-most-once per (user, day) even when
// concurrent ticks race; losing the claim is a silent no-op.
func (uc *UseCases) CarryOver(ctx context.Context, user *model.User, day string) error {
	dayStart, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return goerr.Wrap(err, "invalid day", goerr.V("day", day))
	}
	prevDay := dayStart.AddDate(0, 0, -1).Format(time.DateOnly)

	rec := model.NewDeliveryRecord(user.ID, types.RuleCarryOver, day, types.DeliveryStatusDelivered)
	claimed, err := uc.repo.Delivery().TryClaim(ctx, rec)
	if err != nil {
		return goerr.Wrap(err, "failed to claim carry-over", goerr.V("day", day))
	}
	if !claimed {
		return nil
	}

	pending, err := uc.repo.ActionItem().ListByStatus(ctx, user.ID, types.ActionItemStatusPending)
	if err != nil {
		return goerr.Wrap(err, "failed to list pending items", goerr.V("user_id", user.ID))
	}

	for _, item := range pending {
		if item.Day != prevDay {
			continue
		}

		if _, err := uc.repo.ActionItem().Create(ctx, item.CarryForward(day)); err != nil {
			return goerr.Wrap(err, "failed to carry item forward", goerr.V("item_id", item.ID))
		}

		if _, err := uc.repo.ActionItem().Transition(ctx, item.ID,
			types.ActionItemStatusPending, types.ActionItemStatusCarriedOver); err != nil {
			// Another writer resolved the original meanwhile. The clone
			// already exists; log and keep going.
			logging.From(ctx).Error("failed to mark item carried over",
				"item_id", item.ID, "error", err.Error())
		}
	}
	return nil
}

// RecordStandupReply extracts action items from a standup reply and stores
// them as Pending items for the user's local day. Returns the stored items.
func (uc *UseCases) RecordStandupReply(ctx context.Context, user *model.User, day, text string) ([]*model.ActionItem, error) {
	if uc.llmSvc == nil {
		return nil, nil
	}

	texts, err := uc.llmSvc.ExtractActionItems(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract action items", goerr.V("user_id", user.ID))
	}

	items := make([]*model.ActionItem, 0, len(texts))
	for _, t := range texts {
		item, err := uc.repo.ActionItem().Create(ctx, model.NewActionItem(user.ID, day, t))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to store action item", goerr.V("user_id", user.ID))
		}
		items = append(items, item)
	}
	return items, nil
}

// CompleteItem marks the day's n-th item (1-based, list order) as Done
func (uc *UseCases) CompleteItem(ctx context.Context, user *model.User, day string, n int) (*model.ActionItem, error) {
	return uc.resolveItem(ctx, user, day, n, types.ActionItemStatusDone)
}

// DismissItem marks the day's n-th item (1-based, list order) as Dismissed
func (uc *UseCases) DismissItem(ctx context.Context, user *model.User, day string, n int) (*model.ActionItem, error) {
	return uc.resolveItem(ctx, user, day, n, types.ActionItemStatusDismissed)
}

func (uc *UseCases) resolveItem(ctx context.Context, user *model.User, day string, n int, to types.ActionItemStatus) (*model.ActionItem, error) {
	items, err := uc.repo.ActionItem().ListByUserDay(ctx, user.ID, day)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list action items",
			goerr.V("user_id", user.ID), goerr.V("day", day))
	}
	if n < 1 || n > len(items) {
		return nil, goerr.Wrap(ErrNoSuchItem, "item number out of range",
			goerr.V("n", n), goerr.V("count", len(items)))
	}

	item := items[n-1]
	updated, err := uc.repo.ActionItem().Transition(ctx, item.ID, types.ActionItemStatusPending, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to transition item",
			goerr.V("item_id", item.ID), goerr.V("to", to))
	}
	return updated, nil
}
