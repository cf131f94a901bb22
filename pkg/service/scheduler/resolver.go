package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/aide-lab/kairos/pkg/utils/errutil"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatcher delivers the proactive message for a claimed occurrence. The
// resolver decides WHEN something fires; the dispatcher owns WHAT is sent.
type Dispatcher interface {
	DeliverStandup(ctx context.Context, user *model.User, day string) error
	DeliverBriefing(ctx context.Context, user *model.User, event *model.CalendarEvent) error
	DeliverCheckin(ctx context.Context, user *model.User, day string) error
	DeliverRetro(ctx context.Context, user *model.User, day string) error
}

// Resolver evaluates trigger rules for a single user at a single instant and
// claims occurrences through the delivery ledger. Every decision is derived
// from (now, user timezone, rules, ledger) so repeated evaluation of the same
// instant is a no-op.
type Resolver struct {
	repo     interfaces.Repository
	calendar calendar.Service
	rules    []model.TriggerRule
	dispatch Dispatcher
}

// NewResolver creates a resolver over the given rule set
func NewResolver(repo interfaces.Repository, calSvc calendar.Service, rules []model.TriggerRule, dispatch Dispatcher) (*Resolver, error) {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid trigger rule")
		}
	}
	return &Resolver{
		repo:     repo,
		calendar: calSvc,
		rules:    rules,
		dispatch: dispatch,
	}, nil
}

// Resolve evaluates every rule for the user at now. Rule failures are logged
// and do not abort the remaining rules.
func (r *Resolver) Resolve(ctx context.Context, user *model.User, now time.Time) {
	for i := range r.rules {
		rule := &r.rules[i]
		var err error
		if rule.Kind.IsPerMeeting() {
			err = r.resolveBriefings(ctx, user, rule, now)
		} else {
			err = r.resolveDayRule(ctx, user, rule, now)
		}
		if err != nil {
			errutil.Handle(ctx, goerr.Wrap(err,
				"rule evaluation failed",
				goerr.V("user_id", user.ID),
				goerr.V("rule", rule.Kind.String())), "rule evaluation failed")
		}
	}
}

// resolveDayRule handles rules that fire once per local calendar day
func (r *Resolver) resolveDayRule(ctx context.Context, user *model.User, rule *model.TriggerRule, now time.Time) error {
	loc := user.Location()

	dueAt, due, err := rule.LastDue(now, loc)
	if err != nil {
		return goerr.Wrap(err, "failed to compute due instant")
	}
	if !due {
		return nil
	}

	occurrence := rule.OccurrenceID(dueAt, loc)

	if rule.StaleAt(dueAt, now) {
		// Too old to be useful. Claim the occurrence as skipped so the next
		// tick stops re-evaluating it.
		rec := model.NewDeliveryRecord(user.ID, rule.Kind, occurrence, types.DeliveryStatusSkipped)
		claimed, err := r.repo.Delivery().TryClaim(ctx, rec)
		if err != nil {
			return goerr.Wrap(err, "failed to claim stale occurrence", goerr.V("occurrence", occurrence))
		}
		if claimed {
			logging.From(ctx).Info("skipped stale occurrence",
				"user_id", user.ID,
				"rule", rule.Kind.String(),
				"occurrence", occurrence,
				"due_at", dueAt.Format(time.RFC3339))
		}
		return nil
	}

	rec := model.NewDeliveryRecord(user.ID, rule.Kind, occurrence, types.DeliveryStatusDelivered)
	claimed, err := r.repo.Delivery().TryClaim(ctx, rec)
	if err != nil {
		return goerr.Wrap(err, "failed to claim occurrence", goerr.V("occurrence", occurrence))
	}
	if !claimed {
		return nil
	}

	logging.From(ctx).Info("claimed occurrence",
		"user_id", user.ID,
		"rule", rule.Kind.String(),
		"occurrence", occurrence)

	if err := r.deliverDayRule(ctx, user, rule.Kind, occurrence); err != nil {
		// The claim stands: delivery is at-most-once, not at-least-once.
		return goerr.Wrap(err, "delivery failed after claim", goerr.V("occurrence", occurrence))
	}
	return nil
}

func (r *Resolver) deliverDayRule(ctx context.Context, user *model.User, kind types.RuleKind, day string) error {
	switch kind {
	case types.RuleMorningStandup:
		return r.dispatch.DeliverStandup(ctx, user, day)
	case types.RuleEndOfDayCheckin:
		return r.dispatch.DeliverCheckin(ctx, user, day)
	case types.RuleWeeklyRetro:
		return r.dispatch.DeliverRetro(ctx, user, day)
	default:
		return goerr.New("no dispatcher for rule kind", goerr.V("kind", kind))
	}
}

// resolveBriefings claims and delivers pre-meeting briefings for events whose
// lead window covers now. Occurrences key on the event instance ID, so a
// rescheduled event gets a fresh briefing while a repeated tick does not.
func (r *Resolver) resolveBriefings(ctx context.Context, user *model.User, rule *model.TriggerRule, now time.Time) error {
	if r.calendar == nil || !user.CalendarConnected {
		return nil
	}

	window, err := model.NewInterval(now, now.Add(rule.Lookahead))
	if err != nil {
		return goerr.Wrap(err, "failed to build lookahead window")
	}

	events, err := r.calendar.ListEvents(ctx, user.Email, window)
	if err != nil {
		if errors.Is(err, calendar.ErrNotConnected) {
			return nil
		}
		return goerr.Wrap(err, "failed to list upcoming events")
	}

	for _, event := range events {
		// Fire inside [start-lead, start). Events already underway get no
		// briefing.
		if now.Before(event.Start.Add(-rule.Lead)) || !now.Before(event.Start) {
			continue
		}

		rec := model.NewDeliveryRecord(user.ID, rule.Kind, event.ID, types.DeliveryStatusDelivered)
		claimed, err := r.repo.Delivery().TryClaim(ctx, rec)
		if err != nil {
			return goerr.Wrap(err, "failed to claim briefing", goerr.V("event_id", event.ID))
		}
		if !claimed {
			continue
		}

		logging.From(ctx).Info("claimed briefing",
			"user_id", user.ID,
			"event_id", event.ID,
			"event_start", event.Start.Format(time.RFC3339))

		if err := r.dispatch.DeliverBriefing(ctx, user, event); err != nil {
			// The claim stands: delivery is at-most-once, not at-least-once.
			errutil.Handle(ctx, goerr.Wrap(err,
				"briefing delivery failed after claim",
				goerr.V("user_id", user.ID),
				goerr.V("event_id", event.ID)), "briefing delivery failed after claim")
		}
	}
	return nil
}
