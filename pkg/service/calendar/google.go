package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// googleService implements Service on the Google Calendar API
type googleService struct {
	svc *calendar.Service
}

var _ Service = &googleService{}

// New creates a Google Calendar service. When credentialsFile is empty,
// application default credentials are used.
func New(ctx context.Context, credentialsFile string) (Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(calendar.CalendarScope))

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create calendar service")
	}

	return &googleService{svc: svc}, nil
}

// notConnected maps permission and missing-calendar responses onto
// ErrNotConnected so callers can treat them as a first-class state
func notConnected(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusForbidden
	}
	return false
}

func (g *googleService) ListEvents(ctx context.Context, calendarID string, within model.Interval) ([]*model.CalendarEvent, error) {
	resp, err := g.svc.Events.List(calendarID).
		TimeMin(within.Start.Format(time.RFC3339)).
		TimeMax(within.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		if notConnected(err) {
			return nil, goerr.Wrap(ErrNotConnected, "calendar unreachable", goerr.V("calendar_id", calendarID))
		}
		return nil, goerr.Wrap(err, "failed to list events", goerr.V("calendar_id", calendarID))
	}

	events := make([]*model.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		// All-day events carry a date instead of a dateTime; they do not
		// occupy working hours, so they are not busy intervals.
		if item.Start == nil || item.Start.DateTime == "" || item.End == nil || item.End.DateTime == "" {
			continue
		}

		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid event start", goerr.V("event_id", item.Id))
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid event end", goerr.V("event_id", item.Id))
		}

		attendees := make([]string, 0, len(item.Attendees))
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}

		events = append(events, &model.CalendarEvent{
			ID:        item.Id,
			Title:     item.Summary,
			Start:     start.UTC(),
			End:       end.UTC(),
			Attendees: attendees,
		})
	}

	return events, nil
}

func (g *googleService) CreateEvent(ctx context.Context, calendarID string, event *model.CalendarEvent) (string, error) {
	attendees := make([]*calendar.EventAttendee, 0, len(event.Attendees))
	for _, email := range event.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := g.svc.Events.Insert(calendarID, &calendar.Event{
		Summary: event.Title,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.UTC().Format(time.RFC3339),
		},
		Attendees: attendees,
	}).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		if notConnected(err) {
			return "", goerr.Wrap(ErrNotConnected, "calendar unreachable", goerr.V("calendar_id", calendarID))
		}
		return "", goerr.Wrap(err, "failed to create event", goerr.V("calendar_id", calendarID))
	}

	return created.Id, nil
}

func (g *googleService) DeleteEvent(ctx context.Context, calendarID string, eventID string) error {
	err := g.svc.Events.Delete(calendarID, eventID).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		if notConnected(err) {
			return goerr.Wrap(ErrNotConnected, "calendar unreachable", goerr.V("calendar_id", calendarID))
		}
		return goerr.Wrap(err, "failed to delete event",
			goerr.V("calendar_id", calendarID), goerr.V("event_id", eventID))
	}
	return nil
}
