package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/service/availability"
	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/aide-lab/kairos/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNoActiveOffer is returned when a selection arrives with no offer to
// select from. User-input class, never fatal.
var ErrNoActiveOffer = goerr.New("no active offer")

// FindSlotsRequest describes a slot-discovery request
type FindSlotsRequest struct {
	Duration time.Duration
	Title    string
	// Attendee optionally names a required participant whose busy time is
	// unioned with the requester's
	Attendee string
	// BusinessDays bounds the search horizon; zero means the default
	BusinessDays int
}

// OfferSlots computes candidate free slots and persists them as the user's
// active offer, superseding any prior unconfirmed one. Returns (nil, nil)
// when no slot fits.
func (uc *UseCases) OfferSlots(ctx context.Context, user *model.User, req FindSlotsRequest) (*model.SlotOffer, error) {
	if uc.calSvc == nil || !user.CalendarConnected {
		return nil, goerr.Wrap(calendar.ErrNotConnected, "slot discovery requires a calendar",
			goerr.V("user_id", user.ID))
	}
	if req.Duration <= 0 {
		req.Duration = 30 * time.Minute
	}

	now := uc.now()
	days := req.BusinessDays
	if days <= 0 {
		days = 5
	}

	// Fetch enough calendar to cover the business-day horizon plus weekends
	fetchWindow, err := model.NewInterval(now, now.AddDate(0, 0, days*2+2))
	if err != nil {
		return nil, err
	}

	events, err := uc.calSvc.ListEvents(ctx, user.Email, fetchWindow)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch busy intervals", goerr.V("user_id", user.ID))
	}

	busy := make([]model.Interval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, ev.Interval())
	}

	if req.Attendee != "" {
		attendeeEvents, err := uc.calSvc.ListEvents(ctx, req.Attendee, fetchWindow)
		if err != nil {
			// Known-busy time matters more than completeness. Offer from
			// the requester's calendar alone.
			logging.From(ctx).Error("failed to fetch attendee busy intervals",
				"attendee", req.Attendee, "error", err.Error())
		} else {
			for _, ev := range attendeeEvents {
				busy = append(busy, ev.Interval())
			}
		}
	}

	slots, err := availability.FindSlots(now, busy, availability.SlotOptions{
		Duration:     req.Duration,
		Hours:        uc.hours,
		Location:     user.Location(),
		BusinessDays: days,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "slot search failed", goerr.V("user_id", user.ID))
	}
	if len(slots) == 0 {
		return nil, nil
	}

	now = uc.now()
	offer := &model.SlotOffer{
		ID:        model.NewOfferID(),
		UserID:    user.ID,
		Slots:     slots,
		Duration:  req.Duration,
		Title:     req.Title,
		Status:    types.OfferStatusOffered,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.offerTTL),
	}
	if req.Attendee != "" {
		offer.Attendees = []string{req.Attendee}
	}

	if err := uc.repo.Offer().Create(ctx, offer); err != nil {
		return nil, goerr.Wrap(err, "failed to store offer", goerr.V("user_id", user.ID))
	}
	return offer, nil
}

// SelectOption confirms the n-th candidate (1-based) of the user's active
// offer: the calendar event is created first, then the offer transitions to
// Confirmed. On a calendar failure the offer stays Offered so the user can
// retry. Expired offers transition to Expired and yield ErrStaleOffer.
func (uc *UseCases) SelectOption(ctx context.Context, user *model.User, n int) (*model.SlotOffer, model.Interval, error) {
	offer, err := uc.repo.Offer().GetActive(ctx, user.ID)
	if err != nil {
		return nil, model.Interval{}, goerr.Wrap(err, "failed to load active offer", goerr.V("user_id", user.ID))
	}
	if offer == nil {
		return nil, model.Interval{}, goerr.Wrap(ErrNoActiveOffer, "nothing to select", goerr.V("user_id", user.ID))
	}

	if offer.ExpiredAt(uc.now()) {
		if _, err := uc.repo.Offer().Transition(ctx, offer.ID,
			types.OfferStatusOffered, types.OfferStatusExpired); err != nil {
			logging.From(ctx).Error("failed to expire offer",
				"offer_id", offer.ID, "error", err.Error())
		}
		return nil, model.Interval{}, goerr.Wrap(model.ErrStaleOffer, "offer expired before selection",
			goerr.V("offer_id", offer.ID))
	}

	slot, err := offer.Candidate(n)
	if err != nil {
		return nil, model.Interval{}, err
	}

	booked, err := model.NewInterval(slot.Start, slot.Start.Add(offer.Duration))
	if err != nil {
		return nil, model.Interval{}, err
	}

	if uc.calSvc != nil && user.CalendarConnected {
		title := offer.Title
		if title == "" {
			title = "Meeting"
		}
		event := &model.CalendarEvent{
			Title:     title,
			Start:     booked.Start,
			End:       booked.End,
			Attendees: offer.Attendees,
		}
		if _, err := uc.calSvc.CreateEvent(ctx, user.Email, event); err != nil {
			return nil, model.Interval{}, goerr.Wrap(err, "failed to create calendar event",
				goerr.V("offer_id", offer.ID))
		}
	}

	confirmed, err := uc.repo.Offer().Transition(ctx, offer.ID,
		types.OfferStatusOffered, types.OfferStatusConfirmed)
	if err != nil {
		return nil, model.Interval{}, goerr.Wrap(err, "failed to confirm offer", goerr.V("offer_id", offer.ID))
	}
	return confirmed, booked, nil
}

// FlagOutsideBusinessHours reports whether an instant falls outside the
// user's working hours
func (uc *UseCases) FlagOutsideBusinessHours(user *model.User, t time.Time) bool {
	return uc.hours.Outside(t, user.Location())
}

// IsUserInputError classifies selection failures that warrant a clarifying
// reply rather than an error response
func IsUserInputError(err error) bool {
	return errors.Is(err, ErrNoActiveOffer) ||
		errors.Is(err, model.ErrStaleOffer) ||
		errors.Is(err, model.ErrInvalidOptionIndex) ||
		errors.Is(err, ErrNoSuchItem)
}
