package model

import "time"

// CalendarEvent is one event instance fetched from the calendar collaborator.
// Times are UTC instants; the event is ephemeral and never persisted here.
type CalendarEvent struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []string
}

// Interval returns the busy interval occupied by the event
func (e *CalendarEvent) Interval() Interval {
	return Interval{Start: e.Start.UTC(), End: e.End.UTC()}
}

// MinutesUntil returns the whole minutes from now until the event starts
func (e *CalendarEvent) MinutesUntil(now time.Time) int {
	return int(e.Start.Sub(now) / time.Minute)
}
