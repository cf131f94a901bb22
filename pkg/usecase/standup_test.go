package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/repository/memory"
	"github.com/aide-lab/kairos/pkg/service/tickets"
	"github.com/aide-lab/kairos/pkg/usecase"
)

func TestDeliverStandup(t *testing.T) {
	ctx := context.Background()

	t.Run("lists the agenda with conflict warnings", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		cal := newBookingCalendar([]*model.CalendarEvent{
			{
				ID:    "evt-a",
				Title: "Design review",
				Start: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
			},
			{
				ID:    "evt-b",
				Title: "Incident standby",
				Start: time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
				End:   time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
			},
			{
				ID:    "evt-c",
				Title: "Team sync",
				Start: time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
				End:   time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC),
			},
		})
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithCalendarService(cal),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		gt.NoError(t, uc.DeliverStandup(ctx, utcUser(), "2026-08-31")).Required()

		msg := slackSvc.lastMessage()
		gt.String(t, msg).Contains("Design review")
		gt.String(t, msg).Contains("overlaps with")
		gt.String(t, msg).Contains("back-to-back")
		gt.String(t, msg).Contains("What are you planning to work on today?")
	})

	t.Run("carries yesterday's open items into the prompt", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		user.CalendarConnected = false
		open := model.NewActionItem(user.ID, "2026-08-30", "Finish the rollout plan")
		_, err := repo.ActionItem().Create(ctx, open)
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.DeliverStandup(ctx, user, "2026-08-31")).Required()

		msg := slackSvc.lastMessage()
		gt.String(t, msg).Contains("Finish the rollout plan")
		gt.String(t, msg).Contains("(carried over)")

		today, err := repo.ActionItem().ListByUserDay(ctx, user.ID, "2026-08-31")
		gt.NoError(t, err).Required()
		gt.Array(t, today).Length(1)
		gt.Value(t, today[0].CarriedFrom).Equal(open.ID)
	})

	t.Run("includes assigned issues when the ticket system is wired", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		var requestedLogin string
		ticketSvc := &mockTicketService{
			listAssignedIssuesFn: func(ctx context.Context, login string) ([]*tickets.Issue, error) {
				requestedLogin = login
				return []*tickets.Issue{
					{Key: "#142", Title: "Flaky watcher test", Priority: "P2"},
				}, nil
			},
		}
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithTicketService(ticketSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		user.CalendarConnected = false
		gt.NoError(t, uc.DeliverStandup(ctx, user, "2026-08-31")).Required()

		gt.Value(t, requestedLogin).Equal("dana")
		msg := slackSvc.lastMessage()
		gt.String(t, msg).Contains("#142 Flaky watcher test")
		gt.String(t, msg).Contains("[P2]")
	})

	t.Run("a disconnected calendar still produces a standup", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		user.CalendarConnected = false
		gt.NoError(t, uc.DeliverStandup(ctx, user, "2026-08-31")).Required()
		gt.Array(t, slackSvc.sent).Length(1)
	})
}

func TestDeliverCheckin(t *testing.T) {
	ctx := context.Background()

	t.Run("lists the day's items with a pending count", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		_, err := repo.ActionItem().Create(ctx, model.NewActionItem(user.ID, "2026-08-31", "Fix the flaky test"))
		gt.NoError(t, err).Required()

		done, err := repo.ActionItem().Create(ctx, model.NewActionItem(user.ID, "2026-08-31", "Update the runbook"))
		gt.NoError(t, err).Required()
		_, err = repo.ActionItem().Transition(ctx, done.ID, types.ActionItemStatusPending, types.ActionItemStatusDone)
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.DeliverCheckin(ctx, user, "2026-08-31")).Required()

		msg := slackSvc.lastMessage()
		gt.String(t, msg).Contains("Fix the flaky test")
		gt.String(t, msg).Contains("Update the runbook")
		gt.String(t, msg).Contains("1 still open")
	})

	t.Run("an empty day is reported as such", func(t *testing.T) {
		slackSvc := &mockSlackService{}
		uc := usecase.New(memory.New(),
			usecase.WithSlackService(slackSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		gt.NoError(t, uc.DeliverCheckin(ctx, utcUser(), "2026-08-31")).Required()
		gt.String(t, slackSvc.lastMessage()).Contains("No tracked items today")
	})
}

func TestDeliverBriefing(t *testing.T) {
	ctx := context.Background()

	t.Run("announces the meeting and its other attendees", func(t *testing.T) {
		slackSvc := &mockSlackService{}
		uc := usecase.New(memory.New(),
			usecase.WithSlackService(slackSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		event := &model.CalendarEvent{
			ID:        "evt-roadmap",
			Title:     "Roadmap review",
			Start:     testNow.Add(8 * time.Minute),
			End:       testNow.Add(38 * time.Minute),
			Attendees: []string{"dana@example.com", "avery@example.com", "kai@example.com"},
		}
		gt.NoError(t, uc.DeliverBriefing(ctx, utcUser(), event)).Required()

		msg := slackSvc.lastMessage()
		gt.String(t, msg).Contains("Roadmap review")
		gt.String(t, msg).Contains("starts in 8 min")
		// the recipient is excluded from the attendee line
		gt.String(t, msg).Contains("With: avery@example.com, kai@example.com")
	})
}

func TestDeliverRetro(t *testing.T) {
	ctx := context.Background()

	t.Run("counts the week's items by status", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		done := model.NewActionItem(user.ID, "2026-08-27", "Close the audit findings")
		_, err := repo.ActionItem().Create(ctx, done)
		gt.NoError(t, err).Required()
		_, err = repo.ActionItem().Transition(ctx, done.ID, types.ActionItemStatusPending, types.ActionItemStatusDone)
		gt.NoError(t, err).Required()

		_, err = repo.ActionItem().Create(ctx, model.NewActionItem(user.ID, "2026-08-28", "Refresh the oncall doc"))
		gt.NoError(t, err).Required()

		// outside the seven day window
		_, err = repo.ActionItem().Create(ctx, model.NewActionItem(user.ID, "2026-08-20", "Ancient task"))
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.DeliverRetro(ctx, user, "2026-08-31")).Required()

		msg := slackSvc.lastMessage()
		gt.String(t, msg).Contains("Done: 1 / Dismissed: 0 / Still open: 1")
	})

	t.Run("adds a narrative summary when generation succeeds", func(t *testing.T) {
		repo := memory.New()
		slackSvc := &mockSlackService{}
		llmSvc := &mockLLMService{
			summarizeWeekFn: func(ctx context.Context, lines []string) (string, error) {
				return "A steady week with one audit closed out.", nil
			},
		}
		uc := usecase.New(repo,
			usecase.WithSlackService(slackSvc),
			usecase.WithLLMService(llmSvc),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		_, err := repo.ActionItem().Create(ctx, model.NewActionItem(user.ID, "2026-08-28", "Close the audit findings"))
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.DeliverRetro(ctx, user, "2026-08-31")).Required()
		gt.String(t, slackSvc.lastMessage()).Contains("A steady week with one audit closed out.")
	})
}
