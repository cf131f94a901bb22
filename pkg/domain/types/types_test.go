package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/aide-lab/kairos/pkg/domain/types"
)

func TestRuleKind(t *testing.T) {
	t.Run("IsValid", func(t *testing.T) {
		for _, kind := range types.ScheduledRuleKinds() {
			gt.Bool(t, kind.IsValid()).True()
		}
		gt.Bool(t, types.RuleEventDedup.IsValid()).True()
		gt.Bool(t, types.RuleCarryOver.IsValid()).True()
		gt.Bool(t, types.RuleKind("nap_time").IsValid()).False()
		gt.Bool(t, types.RuleKind("").IsValid()).False()
	})

	t.Run("IsPerMeeting", func(t *testing.T) {
		gt.Bool(t, types.RulePreMeetingBriefing.IsPerMeeting()).True()
		gt.Bool(t, types.RuleMorningStandup.IsPerMeeting()).False()
		gt.Bool(t, types.RuleWeeklyRetro.IsPerMeeting()).False()
	})

	t.Run("Parse", func(t *testing.T) {
		kind, err := types.ParseRuleKind("morning_standup")
		gt.NoError(t, err).Required()
		gt.Value(t, kind).Equal(types.RuleMorningStandup)

		_, err = types.ParseRuleKind("afternoon_standup")
		gt.Error(t, err)
	})
}

func TestActionItemStatus(t *testing.T) {
	t.Run("IsValid", func(t *testing.T) {
		for _, status := range types.AllActionItemStatuses() {
			gt.Bool(t, status.IsValid()).True()
		}
		gt.Bool(t, types.ActionItemStatus("paused").IsValid()).False()
	})

	t.Run("IsTerminal", func(t *testing.T) {
		gt.Bool(t, types.ActionItemStatusPending.IsTerminal()).False()
		gt.Bool(t, types.ActionItemStatusDone.IsTerminal()).True()
		gt.Bool(t, types.ActionItemStatusDismissed.IsTerminal()).True()
		gt.Bool(t, types.ActionItemStatusCarriedOver.IsTerminal()).True()
	})

	t.Run("Parse", func(t *testing.T) {
		status, err := types.ParseActionItemStatus("carried_over")
		gt.NoError(t, err).Required()
		gt.Value(t, status).Equal(types.ActionItemStatusCarriedOver)

		_, err = types.ParseActionItemStatus("deleted")
		gt.Error(t, err)
	})
}

func TestDeliveryStatus(t *testing.T) {
	gt.Bool(t, types.DeliveryStatusDelivered.IsValid()).True()
	gt.Bool(t, types.DeliveryStatusSkipped.IsValid()).True()
	gt.Bool(t, types.DeliveryStatus("queued").IsValid()).False()
}

func TestOfferStatus(t *testing.T) {
	for _, status := range []types.OfferStatus{
		types.OfferStatusOffered,
		types.OfferStatusConfirmed,
		types.OfferStatusExpired,
		types.OfferStatusSuperseded,
	} {
		gt.Bool(t, status.IsValid()).True()
	}
	gt.Bool(t, types.OfferStatus("pending").IsValid()).False()
}
