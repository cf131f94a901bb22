package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
)

func runActionItemRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create and Get round-trips an item", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		userID := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))
		item := model.NewActionItem(userID, "2026-08-31", "Review the Q3 incident report")

		created, err := repo.ActionItem().Create(ctx, item)
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(item.ID)

		got, err := repo.ActionItem().Get(ctx, item.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.Text).Equal("Review the Q3 incident report")
		gt.Value(t, got.Status).Equal(types.ActionItemStatusPending)
		gt.Value(t, got.Day).Equal("2026-08-31")
	})

	t.Run("Get returns nil for unknown item", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		got, err := repo.ActionItem().Get(ctx, model.NewActionItemID())
		gt.NoError(t, err).Required()
		gt.Value(t, got).Nil()
	})

	t.Run("ListByUserDay returns that day's items oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		userID := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))

		first := model.NewActionItem(userID, "2026-08-31", "Ship the migration")
		_, err := repo.ActionItem().Create(ctx, first)
		gt.NoError(t, err).Required()

		time.Sleep(10 * time.Millisecond)

		second := model.NewActionItem(userID, "2026-08-31", "Write release notes")
		_, err = repo.ActionItem().Create(ctx, second)
		gt.NoError(t, err).Required()

		otherDay := model.NewActionItem(userID, "2026-09-01", "Plan next sprint")
		_, err = repo.ActionItem().Create(ctx, otherDay)
		gt.NoError(t, err).Required()

		items, err := repo.ActionItem().ListByUserDay(ctx, userID, "2026-08-31")
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(2)
		gt.Value(t, items[0].ID).Equal(first.ID)
		gt.Value(t, items[1].ID).Equal(second.ID)
	})

	t.Run("ListByStatus filters on status", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		userID := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))

		pending := model.NewActionItem(userID, "2026-08-31", "Follow up with vendor")
		_, err := repo.ActionItem().Create(ctx, pending)
		gt.NoError(t, err).Required()

		done := model.NewActionItem(userID, "2026-08-31", "Book the offsite room")
		_, err = repo.ActionItem().Create(ctx, done)
		gt.NoError(t, err).Required()
		_, err = repo.ActionItem().Transition(ctx, done.ID, types.ActionItemStatusPending, types.ActionItemStatusDone)
		gt.NoError(t, err).Required()

		items, err := repo.ActionItem().ListByStatus(ctx, userID, types.ActionItemStatusPending)
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(1)
		gt.Value(t, items[0].ID).Equal(pending.ID)

		items, err = repo.ActionItem().ListByStatus(ctx, userID, types.ActionItemStatusDone)
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(1)
		gt.Value(t, items[0].ID).Equal(done.ID)
	})

	t.Run("Transition fails when the stored status differs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		userID := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))
		item := model.NewActionItem(userID, "2026-08-31", "Close stale tickets")
		_, err := repo.ActionItem().Create(ctx, item)
		gt.NoError(t, err).Required()

		_, err = repo.ActionItem().Transition(ctx, item.ID, types.ActionItemStatusPending, types.ActionItemStatusDismissed)
		gt.NoError(t, err).Required()

		_, err = repo.ActionItem().Transition(ctx, item.ID, types.ActionItemStatusPending, types.ActionItemStatusDone)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrTransitionConflict)).True()
	})

	t.Run("carry-over lineage survives a round-trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		userID := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))
		original := model.NewActionItem(userID, "2026-08-30", "Draft design notes")
		_, err := repo.ActionItem().Create(ctx, original)
		gt.NoError(t, err).Required()

		carried := original.CarryForward("2026-08-31")
		_, err = repo.ActionItem().Create(ctx, carried)
		gt.NoError(t, err).Required()

		got, err := repo.ActionItem().Get(ctx, carried.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.CarriedFrom).Equal(original.ID)
		gt.Value(t, got.Day).Equal("2026-08-31")
		gt.Value(t, got.Status).Equal(types.ActionItemStatusPending)
	})
}

func TestMemoryActionItemRepository(t *testing.T) {
	runActionItemRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreActionItemRepository(t *testing.T) {
	runActionItemRepositoryTest(t, newFirestoreRepository)
}
