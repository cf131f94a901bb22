package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/aide-lab/kairos/pkg/repository/memory"
	"github.com/aide-lab/kairos/pkg/service/calendar"
	"github.com/aide-lab/kairos/pkg/usecase"
)

// busyMonday keeps exactly one 60 minute gap at 12:00 inside default
// business hours of the test Monday
func busyMonday() []*model.CalendarEvent {
	return []*model.CalendarEvent{
		{
			ID:    "evt-am",
			Title: "Morning block",
			Start: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:    "evt-pm",
			Title: "Afternoon block",
			Start: time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC),
		},
	}
}

func newBookingCalendar(events []*model.CalendarEvent) *mockCalendarService {
	return &mockCalendarService{
		listEventsFn: func(ctx context.Context, calendarID string, within model.Interval) ([]*model.CalendarEvent, error) {
			var out []*model.CalendarEvent
			for _, ev := range events {
				if within.Overlaps(ev.Interval()) {
					out = append(out, ev)
				}
			}
			return out, nil
		},
	}
}

func TestOfferSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("offers the only free gap of a packed day", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo,
			usecase.WithCalendarService(newBookingCalendar(busyMonday())),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		offer, err := uc.OfferSlots(ctx, utcUser(), usecase.FindSlotsRequest{
			Duration:     30 * time.Minute,
			Title:        "Sync with Avery",
			BusinessDays: 1,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, offer).NotNil()
		gt.Array(t, offer.Slots).Length(1)
		gt.Value(t, offer.Slots[0].Start).Equal(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
		gt.Value(t, offer.Slots[0].End).Equal(time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC))
		gt.Value(t, offer.Status).Equal(types.OfferStatusOffered)

		stored, err := repo.Offer().GetActive(ctx, utcUser().ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored).NotNil()
		gt.Value(t, stored.ID).Equal(offer.ID)
	})

	t.Run("requires a connected calendar", func(t *testing.T) {
		uc := usecase.New(memory.New(),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		_, err := uc.OfferSlots(ctx, utcUser(), usecase.FindSlotsRequest{Duration: 30 * time.Minute})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, calendar.ErrNotConnected)).True()
	})

	t.Run("returns nil when nothing fits", func(t *testing.T) {
		fullDay := []*model.CalendarEvent{{
			ID:    "evt-all",
			Start: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC),
		}}
		uc := usecase.New(memory.New(),
			usecase.WithCalendarService(newBookingCalendar(fullDay)),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		offer, err := uc.OfferSlots(ctx, utcUser(), usecase.FindSlotsRequest{
			Duration:     30 * time.Minute,
			BusinessDays: 1,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, offer).Nil()
	})

	t.Run("a new offer supersedes the active one", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo,
			usecase.WithCalendarService(newBookingCalendar(busyMonday())),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		user := utcUser()
		first, err := uc.OfferSlots(ctx, user, usecase.FindSlotsRequest{Duration: 30 * time.Minute, BusinessDays: 1})
		gt.NoError(t, err).Required()
		gt.Value(t, first).NotNil()

		second, err := uc.OfferSlots(ctx, user, usecase.FindSlotsRequest{Duration: time.Hour, BusinessDays: 1})
		gt.NoError(t, err).Required()
		gt.Value(t, second).NotNil()

		active, err := repo.Offer().GetActive(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, active.ID).Equal(second.ID)

		// selecting against the superseded offer is impossible
		_, err = repo.Offer().Transition(ctx, first.ID, types.OfferStatusOffered, types.OfferStatusConfirmed)
		gt.Error(t, err)
	})

	t.Run("unions a required attendee's busy time", func(t *testing.T) {
		attendeeBusy := &model.CalendarEvent{
			ID:    "evt-avery",
			Start: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 31, 12, 45, 0, 0, time.UTC),
		}
		cal := &mockCalendarService{
			listEventsFn: func(ctx context.Context, calendarID string, within model.Interval) ([]*model.CalendarEvent, error) {
				if calendarID == "avery@example.com" {
					return []*model.CalendarEvent{attendeeBusy}, nil
				}
				return busyMonday(), nil
			},
		}
		uc := usecase.New(memory.New(),
			usecase.WithCalendarService(cal),
			usecase.WithNowFunc(func() time.Time { return testNow }),
		)

		offer, err := uc.OfferSlots(ctx, utcUser(), usecase.FindSlotsRequest{
			Duration:     15 * time.Minute,
			Attendee:     "avery@example.com",
			BusinessDays: 1,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, offer).NotNil()
		gt.Array(t, offer.Slots).Length(1)
		// only the remainder of the gap after the attendee's meeting is free
		gt.Value(t, offer.Slots[0].Start).Equal(time.Date(2026, 8, 31, 12, 45, 0, 0, time.UTC))
		gt.Value(t, offer.Attendees).Equal([]string{"avery@example.com"})
	})
}

func TestSelectOption(t *testing.T) {
	ctx := context.Background()

	newBookingUseCases := func(repo *memory.Memory, clock *fakeClock, cal *mockCalendarService) *usecase.UseCases {
		return usecase.New(repo,
			usecase.WithCalendarService(cal),
			usecase.WithNowFunc(clock.Now),
		)
	}

	t.Run("books the chosen slot and confirms the offer", func(t *testing.T) {
		repo := memory.New()
		clock := newFakeClock(testNow)
		cal := newBookingCalendar(busyMonday())
		uc := newBookingUseCases(repo, clock, cal)

		user := utcUser()
		offer, err := uc.OfferSlots(ctx, user, usecase.FindSlotsRequest{
			Duration:     30 * time.Minute,
			Title:        "Sync with Avery",
			BusinessDays: 1,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, offer).NotNil()

		confirmed, booked, err := uc.SelectOption(ctx, user, 1)
		gt.NoError(t, err).Required()
		gt.Value(t, confirmed.Status).Equal(types.OfferStatusConfirmed)

		// the meeting occupies the slot start plus the requested duration
		gt.Value(t, booked.Start).Equal(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
		gt.Value(t, booked.End).Equal(time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC))

		gt.Array(t, cal.created).Length(1)
		gt.Value(t, cal.created[0].Title).Equal("Sync with Avery")
		gt.Value(t, cal.created[0].Start).Equal(booked.Start)

		active, err := repo.Offer().GetActive(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, active).Nil()
	})

	t.Run("no active offer is a user-input error", func(t *testing.T) {
		uc := newBookingUseCases(memory.New(), newFakeClock(testNow), newBookingCalendar(nil))

		_, _, err := uc.SelectOption(ctx, utcUser(), 1)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrNoActiveOffer)).True()
		gt.Bool(t, usecase.IsUserInputError(err)).True()
	})

	t.Run("an out-of-range option leaves the offer selectable", func(t *testing.T) {
		repo := memory.New()
		clock := newFakeClock(testNow)
		uc := newBookingUseCases(repo, clock, newBookingCalendar(busyMonday()))

		user := utcUser()
		_, err := uc.OfferSlots(ctx, user, usecase.FindSlotsRequest{Duration: 30 * time.Minute, BusinessDays: 1})
		gt.NoError(t, err).Required()

		_, _, err = uc.SelectOption(ctx, user, 4)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidOptionIndex)).True()

		// the offer is untouched and a valid pick still works
		active, err := repo.Offer().GetActive(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, active).NotNil()

		_, _, err = uc.SelectOption(ctx, user, 1)
		gt.NoError(t, err)
	})

	t.Run("selection after the TTL expires the offer", func(t *testing.T) {
		repo := memory.New()
		clock := newFakeClock(testNow)
		uc := newBookingUseCases(repo, clock, newBookingCalendar(busyMonday()))

		user := utcUser()
		_, err := uc.OfferSlots(ctx, user, usecase.FindSlotsRequest{Duration: 30 * time.Minute, BusinessDays: 1})
		gt.NoError(t, err).Required()

		clock.Advance(31 * time.Minute)

		_, _, err = uc.SelectOption(ctx, user, 1)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrStaleOffer)).True()
		gt.Bool(t, usecase.IsUserInputError(err)).True()

		active, err := repo.Offer().GetActive(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, active).Nil()
	})

	t.Run("a calendar failure leaves the offer open for retry", func(t *testing.T) {
		repo := memory.New()
		clock := newFakeClock(testNow)
		cal := newBookingCalendar(busyMonday())
		cal.createEventFn = func(ctx context.Context, calendarID string, event *model.CalendarEvent) (string, error) {
			return "", errors.New("calendar unavailable")
		}
		uc := newBookingUseCases(repo, clock, cal)

		user := utcUser()
		_, err := uc.OfferSlots(ctx, user, usecase.FindSlotsRequest{Duration: 30 * time.Minute, BusinessDays: 1})
		gt.NoError(t, err).Required()

		_, _, err = uc.SelectOption(ctx, user, 1)
		gt.Error(t, err)

		active, err := repo.Offer().GetActive(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, active).NotNil()
		gt.Value(t, active.Status).Equal(types.OfferStatusOffered)
	})
}

func TestFlagOutsideBusinessHours(t *testing.T) {
	uc := usecase.New(memory.New())

	gt.Bool(t, uc.FlagOutsideBusinessHours(utcUser(), time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))).False()
	gt.Bool(t, uc.FlagOutsideBusinessHours(utcUser(), time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC))).True()
	// Sunday
	gt.Bool(t, uc.FlagOutsideBusinessHours(utcUser(), time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))).True()
}
