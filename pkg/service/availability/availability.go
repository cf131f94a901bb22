package availability

import (
	"sort"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// BusinessHours describes a working-hours policy as minutes from local
// midnight. Minutes rather than instants keep the policy timezone-free; each
// day's concrete window is resolved against the zone database at use time,
// so daylight saving shifts fall out automatically.
type BusinessHours struct {
	StartMinute int
	EndMinute   int
	Weekdays    map[time.Weekday]bool
}

// DefaultBusinessHours is 09:00 to 18:00 local, Monday through Friday
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		StartMinute: 9 * 60,
		EndMinute:   18 * 60,
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}
}

// Validate checks that the policy describes a non-empty daily window
func (h BusinessHours) Validate() error {
	if h.StartMinute < 0 || h.EndMinute > 24*60 || h.StartMinute >= h.EndMinute {
		return goerr.New("invalid business hours",
			goerr.V("start_minute", h.StartMinute), goerr.V("end_minute", h.EndMinute))
	}
	if len(h.Weekdays) == 0 {
		return goerr.New("business hours require at least one weekday")
	}
	return nil
}

// Window resolves the policy's concrete UTC window for the local day
// containing t. ok is false on non-working days.
func (h BusinessHours) Window(t time.Time, loc *time.Location) (model.Interval, bool) {
	local := t.In(loc)
	if !h.Weekdays[local.Weekday()] {
		return model.Interval{}, false
	}
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, h.StartMinute, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 0, h.EndMinute, 0, 0, loc)
	return model.Interval{Start: start.UTC(), End: end.UTC()}, true
}

// Outside reports whether t falls outside the working window of its local day
func (h BusinessHours) Outside(t time.Time, loc *time.Location) bool {
	window, ok := h.Window(t, loc)
	if !ok {
		return true
	}
	return !window.Contains(t)
}

// Merge sorts and coalesces intervals, combining any that overlap or touch
// back-to-back. The result is a minimal sorted cover of the input; merging a
// merged list returns it unchanged.
func Merge(intervals []model.Interval) []model.Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]model.Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	merged := []model.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// ConflictPair names two events competing for adjacent or overlapping time
type ConflictPair struct {
	First  *model.CalendarEvent
	Second *model.CalendarEvent
}

// Conflicts scans a day's events for double-bookings and zero-gap
// back-to-back meetings. The two categories are reported separately: an
// overlap needs resolving, a back-to-back pair only needs a warning.
func Conflicts(events []*model.CalendarEvent) (overlaps, backToBack []ConflictPair) {
	if len(events) < 2 {
		return nil, nil
	}

	sorted := make([]*model.CalendarEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i].Interval(), sorted[j].Interval()
			if a.Overlaps(b) {
				overlaps = append(overlaps, ConflictPair{First: sorted[i], Second: sorted[j]})
				continue
			}
			if a.Touches(b) {
				backToBack = append(backToBack, ConflictPair{First: sorted[i], Second: sorted[j]})
			}
			// Events are sorted by start, so once b starts after a ends
			// with a gap, later events cannot conflict with a either.
			if b.Start.After(a.End) {
				break
			}
		}
	}
	return overlaps, backToBack
}

// FreeWithin returns the complement of the busy intervals inside the window.
// Busy time outside the window is ignored. The returned free intervals plus
// the merged busy time clipped to the window partition the window exactly.
func FreeWithin(window model.Interval, busy []model.Interval) []model.Interval {
	var free []model.Interval
	cursor := window.Start

	for _, b := range Merge(busy) {
		if !b.End.After(window.Start) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cursor) {
			free = append(free, model.Interval{Start: cursor, End: minTime(b.Start, window.End)})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}

	if cursor.Before(window.End) {
		free = append(free, model.Interval{Start: cursor, End: window.End})
	}
	return free
}

// SlotOptions configures a candidate-slot search
type SlotOptions struct {
	// Duration is the minimum usable length of a candidate
	Duration time.Duration

	// Hours is the working-hours policy; zero value means defaults
	Hours BusinessHours

	// Location resolves each day's working window; nil means UTC
	Location *time.Location

	// BusinessDays bounds the search horizon in working days (default 5)
	BusinessDays int

	// MaxCandidates caps the result (default 3)
	MaxCandidates int
}

const (
	defaultBusinessDays  = 5
	defaultMaxCandidates = 3
	slotSearchDayCap     = 30
)

// FindSlots searches the working-hours windows after now for free intervals
// long enough to hold opts.Duration. Candidates are whole free intervals,
// earliest first; the caller places the actual meeting at a candidate's
// start. The first day's window is clipped to begin no earlier than now.
func FindSlots(now time.Time, busy []model.Interval, opts SlotOptions) ([]model.Interval, error) {
	if opts.Duration <= 0 {
		return nil, goerr.New("slot duration must be positive", goerr.V("duration", opts.Duration))
	}
	hours := opts.Hours
	if len(hours.Weekdays) == 0 {
		hours = DefaultBusinessHours()
	}
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	days := opts.BusinessDays
	if days <= 0 {
		days = defaultBusinessDays
	}
	limit := opts.MaxCandidates
	if limit <= 0 {
		limit = defaultMaxCandidates
	}

	merged := Merge(busy)
	var candidates []model.Interval

	cursor := now.In(loc)
	remaining := days
	// Calendar days iterated are bounded: weekends consume iterations without
	// consuming the business-day budget.
	for i := 0; i < slotSearchDayCap && remaining > 0 && len(candidates) < limit; i++ {
		window, ok := hours.Window(cursor, loc)
		if ok {
			remaining--
			if window.End.After(now) {
				if window.Start.Before(now) {
					window.Start = now.UTC()
				}
				for _, free := range FreeWithin(window, merged) {
					if free.Duration() >= opts.Duration {
						candidates = append(candidates, free)
						if len(candidates) == limit {
							break
						}
					}
				}
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	return candidates, nil
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
