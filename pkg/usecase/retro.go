package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DeliverRetro sends the weekly retrospective DM covering the seven local
// days ending on day. Counts are always included; a narrative summary is
// added when the text-generation collaborator is wired and succeeds.
func (uc *UseCases) DeliverRetro(ctx context.Context, user *model.User, day string) error {
	if uc.slackSvc == nil {
		return goerr.New("slack service is not configured")
	}

	loc := user.Location()
	end, err := time.ParseInLocation(time.DateOnly, day, loc)
	if err != nil {
		return goerr.Wrap(err, "invalid day", goerr.V("day", day))
	}

	var lines []string
	counts := map[types.ActionItemStatus]int{}
	for i := 6; i >= 0; i-- {
		d := end.AddDate(0, 0, -i).Format(time.DateOnly)
		items, err := uc.repo.ActionItem().ListByUserDay(ctx, user.ID, d)
		if err != nil {
			return goerr.Wrap(err, "failed to list week items",
				goerr.V("user_id", user.ID), goerr.V("day", d))
		}
		for _, item := range items {
			counts[item.Status]++
			lines = append(lines, fmt.Sprintf("%s [%s] %s", d, item.Status, item.Text))
		}
	}

	var b strings.Builder
	b.WriteString(":calendar: *Weekly retro*\n")
	fmt.Fprintf(&b, "Done: %d / Dismissed: %d / Still open: %d\n",
		counts[types.ActionItemStatusDone],
		counts[types.ActionItemStatusDismissed],
		counts[types.ActionItemStatusPending]+counts[types.ActionItemStatusCarriedOver])

	if uc.llmSvc != nil && len(lines) > 0 {
		summary, err := uc.llmSvc.SummarizeWeek(ctx, lines)
		if err != nil {
			logging.From(ctx).Error("weekly summary generation failed",
				"user_id", user.ID, "error", err.Error())
		} else if summary != "" {
			b.WriteString("\n" + summary + "\n")
		}
	}

	if _, err := uc.slackSvc.SendDirectMessage(ctx, string(user.ID), b.String()); err != nil {
		return goerr.Wrap(err, "failed to send retro", goerr.V("user_id", user.ID))
	}
	return nil
}
