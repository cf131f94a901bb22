package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// DeliverBriefing sends a heads-up DM shortly before an event starts
func (uc *UseCases) DeliverBriefing(ctx context.Context, user *model.User, event *model.CalendarEvent) error {
	if uc.slackSvc == nil {
		return goerr.New("slack service is not configured")
	}

	loc := user.Location()
	minutes := event.MinutesUntil(uc.now())

	var b strings.Builder
	fmt.Fprintf(&b, ":bell: *%s* starts in %d min (%s - %s)\n",
		event.Title,
		minutes,
		event.Start.In(loc).Format("15:04"),
		event.End.In(loc).Format("15:04"))

	if others := otherAttendees(event, user.Email); len(others) > 0 {
		fmt.Fprintf(&b, "With: %s\n", strings.Join(others, ", "))
	}

	if _, err := uc.slackSvc.SendDirectMessage(ctx, string(user.ID), b.String()); err != nil {
		return goerr.Wrap(err, "failed to send briefing",
			goerr.V("user_id", user.ID), goerr.V("event_id", event.ID))
	}
	return nil
}

func otherAttendees(event *model.CalendarEvent, selfEmail string) []string {
	var others []string
	for _, a := range event.Attendees {
		if selfEmail == "" || !strings.EqualFold(a, selfEmail) {
			others = append(others, a)
		}
	}
	return others
}
