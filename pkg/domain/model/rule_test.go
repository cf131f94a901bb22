package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
)

func dailyStandupRule() *model.TriggerRule {
	return &model.TriggerRule{
		Kind:         types.RuleMorningStandup,
		Spec:         "0 9 * * *",
		MaxStaleness: 2 * time.Hour,
	}
}

func TestTriggerRuleValidate(t *testing.T) {
	t.Run("accepts a day rule with spec and staleness", func(t *testing.T) {
		gt.NoError(t, dailyStandupRule().Validate())
	})

	t.Run("rejects a garbage spec", func(t *testing.T) {
		rule := dailyStandupRule()
		rule.Spec = "whenever"
		gt.Error(t, rule.Validate())
	})

	t.Run("rejects a day rule without staleness bound", func(t *testing.T) {
		rule := dailyStandupRule()
		rule.MaxStaleness = 0
		gt.Error(t, rule.Validate())
	})

	t.Run("per-meeting rule needs lead within lookahead", func(t *testing.T) {
		rule := &model.TriggerRule{
			Kind:      types.RulePreMeetingBriefing,
			Lead:      10 * time.Minute,
			Lookahead: time.Hour,
		}
		gt.NoError(t, rule.Validate())

		rule.Lookahead = 5 * time.Minute
		gt.Error(t, rule.Validate())

		rule.Lead = 0
		gt.Error(t, rule.Validate())
	})
}

func TestTriggerRuleLastDue(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	gt.NoError(t, err).Required()

	t.Run("resolves the local wall clock to UTC", func(t *testing.T) {
		rule := dailyStandupRule()

		// 2026-08-31 is under EDT (UTC-4), so 09:00 local is 13:00 UTC
		now := time.Date(2026, 8, 31, 13, 30, 0, 0, time.UTC)
		dueAt, due, err := rule.LastDue(now, newYork)
		gt.NoError(t, err).Required()
		gt.Bool(t, due).True()
		gt.Value(t, dueAt).Equal(time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC))
	})

	t.Run("before the local due instant the previous day is due", func(t *testing.T) {
		rule := dailyStandupRule()

		now := time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC) // 08:30 local
		dueAt, due, err := rule.LastDue(now, newYork)
		gt.NoError(t, err).Required()
		gt.Bool(t, due).True()
		gt.Value(t, dueAt).Equal(time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC))
	})

	t.Run("daylight saving shifts the UTC instant", func(t *testing.T) {
		rule := dailyStandupRule()

		// 2026-12-01 is under EST (UTC-5), so 09:00 local is 14:00 UTC
		now := time.Date(2026, 12, 1, 14, 30, 0, 0, time.UTC)
		dueAt, due, err := rule.LastDue(now, newYork)
		gt.NoError(t, err).Required()
		gt.Bool(t, due).True()
		gt.Value(t, dueAt).Equal(time.Date(2026, 12, 1, 14, 0, 0, 0, time.UTC))
	})

	t.Run("weekly spec resolves to the last matching weekday", func(t *testing.T) {
		rule := &model.TriggerRule{
			Kind:         types.RuleWeeklyRetro,
			Spec:         "0 17 * * 5",
			MaxStaleness: 6 * time.Hour,
		}

		// Monday 2026-08-31; the last Friday was 2026-08-28
		now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		dueAt, due, err := rule.LastDue(now, time.UTC)
		gt.NoError(t, err).Required()
		gt.Bool(t, due).True()
		gt.Value(t, dueAt).Equal(time.Date(2026, 8, 28, 17, 0, 0, 0, time.UTC))
	})
}

func TestTriggerRuleOccurrence(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	gt.NoError(t, err).Required()

	rule := dailyStandupRule()

	t.Run("occurrence is the user-local date of the firing", func(t *testing.T) {
		dueAt := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)
		gt.Value(t, rule.OccurrenceID(dueAt, newYork)).Equal("2026-08-31")

		// 01:00 UTC on Sep 1 is still Aug 31 in New York
		lateNight := time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)
		gt.Value(t, rule.OccurrenceID(lateNight, newYork)).Equal("2026-08-31")
		gt.Value(t, rule.OccurrenceID(lateNight, time.UTC)).Equal("2026-09-01")
	})

	t.Run("staleness compares against the bound", func(t *testing.T) {
		dueAt := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)
		gt.Bool(t, rule.StaleAt(dueAt, dueAt.Add(time.Hour))).False()
		gt.Bool(t, rule.StaleAt(dueAt, dueAt.Add(2*time.Hour))).False()
		gt.Bool(t, rule.StaleAt(dueAt, dueAt.Add(2*time.Hour+time.Second))).True()
	})
}
