package calendar

import (
	"context"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotConnected is returned when the user has no reachable calendar. It is
// a first-class result, not a failure: callers skip calendar enrichment for
// that user and move on.
var ErrNotConnected = goerr.New("calendar not connected")

// Service provides the calendar collaborator interface. All returned times
// are UTC instants.
type Service interface {
	// ListEvents retrieves event instances overlapping the given range,
	// ordered by start time. Recurring events are expanded into instances.
	ListEvents(ctx context.Context, calendarID string, within model.Interval) ([]*model.CalendarEvent, error)

	// CreateEvent inserts a new event and returns its identifier
	CreateEvent(ctx context.Context, calendarID string, event *model.CalendarEvent) (string, error)

	// DeleteEvent removes an event, notifying attendees
	DeleteEvent(ctx context.Context, calendarID string, eventID string) error
}
