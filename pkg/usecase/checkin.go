package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DeliverCheckin sends the end-of-day DM listing the day's items and their
// statuses
func (uc *UseCases) DeliverCheckin(ctx context.Context, user *model.User, day string) error {
	if uc.slackSvc == nil {
		return goerr.New("slack service is not configured")
	}

	items, err := uc.repo.ActionItem().ListByUserDay(ctx, user.ID, day)
	if err != nil {
		return goerr.Wrap(err, "failed to list action items",
			goerr.V("user_id", user.ID), goerr.V("day", day))
	}

	var b strings.Builder
	b.WriteString(":city_sunset: *End of day check-in*\n")

	if len(items) == 0 {
		b.WriteString("No tracked items today.\n")
	} else {
		pending := 0
		for i, item := range items {
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, statusEmoji(item.Status), item.Text)
			if item.Status == types.ActionItemStatusPending {
				pending++
			}
		}
		if pending > 0 {
			fmt.Fprintf(&b, "\n%d still open. Reply `done N` or `dismiss N` to close them out; anything left carries over to tomorrow.", pending)
		} else {
			b.WriteString("\nEverything closed out. Nice work!")
		}
	}

	if _, err := uc.slackSvc.SendDirectMessage(ctx, string(user.ID), b.String()); err != nil {
		return goerr.Wrap(err, "failed to send check-in", goerr.V("user_id", user.ID))
	}
	return nil
}

func statusEmoji(s types.ActionItemStatus) string {
	switch s {
	case types.ActionItemStatusDone:
		return ":white_check_mark:"
	case types.ActionItemStatusDismissed:
		return ":no_entry_sign:"
	case types.ActionItemStatusCarriedOver:
		return ":arrow_right:"
	default:
		return ":black_square_button:"
	}
}
