package model

import (
	"time"

	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
)

var ruleCronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ruleLookback bounds how far back LastDue searches for a scheduled instant.
// It must cover the longest rule period (weekly) plus one day.
const ruleLookback = 8 * 24 * time.Hour

// TriggerRule is a named recurring policy. Day-granular kinds carry a cron
// spec evaluated in each user's timezone; per-meeting kinds carry a lead time
// and a calendar lookahead window instead.
type TriggerRule struct {
	Kind         types.RuleKind
	Spec         string
	Lead         time.Duration
	Lookahead    time.Duration
	MaxStaleness time.Duration
}

// Validate checks the rule's schedule specification
func (r *TriggerRule) Validate() error {
	if !r.Kind.IsValid() {
		return goerr.New("invalid rule kind", goerr.V("kind", r.Kind))
	}
	if r.Kind.IsPerMeeting() {
		if r.Lead <= 0 {
			return goerr.New("per-meeting rule requires a positive lead time", goerr.V("kind", r.Kind))
		}
		if r.Lookahead < r.Lead {
			return goerr.New("lookahead must cover the lead time",
				goerr.V("kind", r.Kind), goerr.V("lead", r.Lead), goerr.V("lookahead", r.Lookahead))
		}
		return nil
	}
	if _, err := ruleCronParser.Parse(r.Spec); err != nil {
		return goerr.Wrap(err, "invalid schedule spec", goerr.V("kind", r.Kind), goerr.V("spec", r.Spec))
	}
	if r.MaxStaleness <= 0 {
		return goerr.New("rule requires a positive staleness bound", goerr.V("kind", r.Kind))
	}
	return nil
}

// LastDue returns the most recent scheduled instant at or before now,
// evaluated as wall-clock time in loc and returned in UTC. The schedule is
// re-resolved against the zone database on every call, so daylight saving
// transitions shift the UTC instant automatically.
func (r *TriggerRule) LastDue(now time.Time, loc *time.Location) (time.Time, bool, error) {
	sched, err := ruleCronParser.Parse(r.Spec)
	if err != nil {
		return time.Time{}, false, goerr.Wrap(err, "failed to parse schedule spec", goerr.V("spec", r.Spec))
	}

	cursor := now.In(loc).Add(-ruleLookback)
	var last time.Time
	found := false
	// Day-granular specs fire at most a few times per lookback window, but
	// keep a hard cap so a pathological spec cannot spin the tick.
	for i := 0; i < 1024; i++ {
		next := sched.Next(cursor)
		if next.IsZero() || next.After(now.In(loc)) {
			break
		}
		last = next
		found = true
		cursor = next
	}

	if !found {
		return time.Time{}, false, nil
	}
	return last.UTC(), true, nil
}

// OccurrenceID derives the day-granular occurrence key for a due instant:
// the user-local calendar date the rule fired on.
func (r *TriggerRule) OccurrenceID(dueAt time.Time, loc *time.Location) string {
	return dueAt.In(loc).Format(time.DateOnly)
}

// StaleAt reports whether a due instant is too old to deliver at now
func (r *TriggerRule) StaleAt(dueAt, now time.Time) bool {
	return now.Sub(dueAt) > r.MaxStaleness
}
