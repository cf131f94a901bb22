package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/service/availability"
	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/aide-lab/kairos/pkg/utils/errutil"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DeliverStandup sends the morning standup DM for the user's local day.
// Yesterday's unfinished items are carried forward first so the prompt shows
// them. Collaborator failures degrade the content; only message delivery
// failure is returned as an error.
func (uc *UseCases) DeliverStandup(ctx context.Context, user *model.User, day string) error {
	if uc.slackSvc == nil {
		return goerr.New("slack service is not configured")
	}

	if err := uc.CarryOver(ctx, user, day); err != nil {
		errutil.Handle(ctx, goerr.Wrap(err,
			"carry-over failed, standup proceeds without it",
			goerr.V("user_id", user.ID),
			goerr.V("day", day)), "carry-over failed, standup proceeds without it")
	}

	var b strings.Builder
	fmt.Fprintf(&b, ":sunrise: *Good morning!* Here's your day (%s):\n", day)

	uc.writeAgenda(ctx, &b, user, day)
	uc.writeCarriedItems(ctx, &b, user, day)
	uc.writeAssignedIssues(ctx, &b, user)

	b.WriteString("\nWhat are you planning to work on today?")

	if _, err := uc.slackSvc.SendDirectMessage(ctx, string(user.ID), b.String()); err != nil {
		return goerr.Wrap(err, "failed to send standup", goerr.V("user_id", user.ID))
	}
	return nil
}

// writeAgenda appends the day's calendar listing with conflict warnings
func (uc *UseCases) writeAgenda(ctx context.Context, b *strings.Builder, user *model.User, day string) {
	events, err := uc.eventsForDay(ctx, user, day)
	if err != nil {
		if !errors.Is(err, calendar.ErrNotConnected) {
			logging.From(ctx).Error("failed to fetch agenda",
				"user_id", user.ID, "day", day, "error", err.Error())
		}
		return
	}

	if len(events) == 0 {
		b.WriteString("\n:calendar: No meetings today.\n")
		return
	}

	loc := user.Location()
	b.WriteString("\n:calendar: *Today's meetings:*\n")
	for _, ev := range events {
		fmt.Fprintf(b, "• %s - %s  %s\n",
			ev.Start.In(loc).Format("15:04"),
			ev.End.In(loc).Format("15:04"),
			ev.Title)
	}

	overlaps, backToBack := availability.Conflicts(events)
	for _, pair := range overlaps {
		fmt.Fprintf(b, ":warning: *%s* overlaps with *%s*\n", pair.First.Title, pair.Second.Title)
	}
	for _, pair := range backToBack {
		fmt.Fprintf(b, ":hourglass: *%s* runs back-to-back into *%s*\n", pair.First.Title, pair.Second.Title)
	}
}

// writeCarriedItems appends the day's open items, marking carried-over ones
func (uc *UseCases) writeCarriedItems(ctx context.Context, b *strings.Builder, user *model.User, day string) {
	items, err := uc.repo.ActionItem().ListByUserDay(ctx, user.ID, day)
	if err != nil {
		logging.From(ctx).Error("failed to list action items",
			"user_id", user.ID, "day", day, "error", err.Error())
		return
	}

	var open []*model.ActionItem
	for _, item := range items {
		if !item.Status.IsTerminal() {
			open = append(open, item)
		}
	}
	if len(open) == 0 {
		return
	}

	b.WriteString("\n:memo: *Still on your plate:*\n")
	for i, item := range open {
		marker := ""
		if item.CarriedFrom != "" {
			marker = " _(carried over)_"
		}
		fmt.Fprintf(b, "%d. %s%s\n", i+1, item.Text, marker)
	}
}

// writeAssignedIssues appends open tickets when the collaborator is wired
func (uc *UseCases) writeAssignedIssues(ctx context.Context, b *strings.Builder, user *model.User) {
	if uc.ticketSvc == nil || user.Email == "" {
		return
	}

	login := user.Email
	if at := strings.IndexByte(login, '@'); at > 0 {
		login = login[:at]
	}

	issues, err := uc.ticketSvc.ListAssignedIssues(ctx, login)
	if err != nil {
		logging.From(ctx).Error("failed to list assigned issues",
			"user_id", user.ID, "error", err.Error())
		return
	}
	if len(issues) == 0 {
		return
	}

	b.WriteString("\n:ticket: *Assigned issues:*\n")
	for _, issue := range issues {
		line := fmt.Sprintf("• %s %s", issue.Key, issue.Title)
		if issue.Priority != "" {
			line += fmt.Sprintf(" [%s]", issue.Priority)
		}
		b.WriteString(line + "\n")
	}
}

// eventsForDay lists the user's events for one local calendar day
func (uc *UseCases) eventsForDay(ctx context.Context, user *model.User, day string) ([]*model.CalendarEvent, error) {
	if uc.calSvc == nil || !user.CalendarConnected {
		return nil, calendar.ErrNotConnected
	}

	loc := user.Location()
	dayStart, err := time.ParseInLocation(time.DateOnly, day, loc)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid day", goerr.V("day", day))
	}

	window, err := model.NewInterval(dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return uc.calSvc.ListEvents(ctx, user.Email, window)
}
