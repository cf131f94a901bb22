package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
)

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get round-trips a user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))
		user := &model.User{
			ID:          id,
			WorkspaceID: "T-test",
			Email:       "dana@example.com",
			Timezone:    "America/New_York",
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		gt.NoError(t, repo.User().Put(ctx, user)).Required()

		got, err := repo.User().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.ID).Equal(id)
		gt.Value(t, got.Email).Equal("dana@example.com")
		gt.Value(t, got.Timezone).Equal("America/New_York")
		gt.Bool(t, got.CalendarConnected).False()
	})

	t.Run("Get returns nil for unknown user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		got, err := repo.User().Get(ctx, model.UserID(fmt.Sprintf("U-missing-%d", time.Now().UnixNano())))
		gt.NoError(t, err).Required()
		gt.Value(t, got).Nil()
	})

	t.Run("Put replaces an existing user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := model.UserID(fmt.Sprintf("U-%d", time.Now().UnixNano()))
		user := &model.User{
			ID:          id,
			WorkspaceID: "T-test",
			Timezone:    "UTC",
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		gt.NoError(t, repo.User().Put(ctx, user)).Required()

		user.Timezone = "Asia/Tokyo"
		user.CalendarConnected = true
		gt.NoError(t, repo.User().Put(ctx, user)).Required()

		got, err := repo.User().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Timezone).Equal("Asia/Tokyo")
		gt.Bool(t, got.CalendarConnected).True()
	})

	t.Run("List returns all users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		base := time.Now().UnixNano()
		ids := []model.UserID{
			model.UserID(fmt.Sprintf("U-%d-a", base)),
			model.UserID(fmt.Sprintf("U-%d-b", base)),
			model.UserID(fmt.Sprintf("U-%d-c", base)),
		}
		for _, id := range ids {
			gt.NoError(t, repo.User().Put(ctx, &model.User{
				ID:          id,
				WorkspaceID: "T-test",
				CreatedAt:   time.Now().UTC(),
				UpdatedAt:   time.Now().UTC(),
			})).Required()
		}

		users, err := repo.User().List(ctx)
		gt.NoError(t, err).Required()

		found := map[model.UserID]bool{}
		for _, u := range users {
			found[u.ID] = true
		}
		for _, id := range ids {
			gt.Bool(t, found[id]).True()
		}
	})
}

func TestMemoryUserRepository(t *testing.T) {
	runUserRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreUserRepository(t *testing.T) {
	runUserRepositoryTest(t, newFirestoreRepository)
}
