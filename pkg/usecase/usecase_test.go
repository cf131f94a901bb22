package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/service/llm"
	"github.com/aide-lab/kairos/pkg/service/slack"
	"github.com/aide-lab/kairos/pkg/service/tickets"
)

// testNow is a fixed Monday morning instant shared across the tests
var testNow = time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

// fakeClock is a settable time source for WithNowFunc
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func utcUser() *model.User {
	return &model.User{
		ID:                "U-dana",
		WorkspaceID:       "T-test",
		Email:             "dana@example.com",
		Timezone:          "UTC",
		CalendarConnected: true,
	}
}

// mockSlackService is a mock implementation of slack.Service for testing
type mockSlackService struct {
	mu            sync.Mutex
	sent          []string
	sendFn        func(ctx context.Context, userID string, text string) (string, error)
	getUserInfoFn func(ctx context.Context, userID string) (*slack.User, error)
}

func (m *mockSlackService) SendDirectMessage(ctx context.Context, userID string, text string) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, text)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, userID, text)
	}
	return "1234567890.000001", nil
}

func (m *mockSlackService) GetUserInfo(ctx context.Context, userID string) (*slack.User, error) {
	if m.getUserInfoFn != nil {
		return m.getUserInfoFn(ctx, userID)
	}
	return &slack.User{
		ID:       userID,
		Name:     "dana",
		Email:    "dana@example.com",
		Timezone: "America/New_York",
	}, nil
}

func (m *mockSlackService) GetBotUserID(ctx context.Context) (string, error) {
	return "U-bot", nil
}

func (m *mockSlackService) lastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

// mockCalendarService is a mock implementation of calendar.Service for testing
type mockCalendarService struct {
	mu            sync.Mutex
	created       []*model.CalendarEvent
	deleted       []string
	listEventsFn  func(ctx context.Context, calendarID string, within model.Interval) ([]*model.CalendarEvent, error)
	createEventFn func(ctx context.Context, calendarID string, event *model.CalendarEvent) (string, error)
}

func (m *mockCalendarService) ListEvents(ctx context.Context, calendarID string, within model.Interval) ([]*model.CalendarEvent, error) {
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx, calendarID, within)
	}
	return nil, nil
}

func (m *mockCalendarService) CreateEvent(ctx context.Context, calendarID string, event *model.CalendarEvent) (string, error) {
	if m.createEventFn != nil {
		return m.createEventFn(ctx, calendarID, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, event)
	return "created-event", nil
}

func (m *mockCalendarService) DeleteEvent(ctx context.Context, calendarID string, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, eventID)
	return nil
}

// mockLLMService is a mock implementation of llm.Service for testing
type mockLLMService struct {
	extractActionItemsFn func(ctx context.Context, text string) ([]string, error)
	extractEventFn       func(ctx context.Context, text string, now time.Time, loc *time.Location) (*llm.EventRequest, error)
	extractDeletionFn    func(ctx context.Context, text string) (*llm.DeletionRequest, error)
	summarizeWeekFn      func(ctx context.Context, lines []string) (string, error)
	replyFn              func(ctx context.Context, message, contextText string) (string, error)
}

func (m *mockLLMService) ExtractActionItems(ctx context.Context, text string) ([]string, error) {
	if m.extractActionItemsFn != nil {
		return m.extractActionItemsFn(ctx, text)
	}
	return nil, nil
}

func (m *mockLLMService) ExtractEventRequest(ctx context.Context, text string, now time.Time, loc *time.Location) (*llm.EventRequest, error) {
	if m.extractEventFn != nil {
		return m.extractEventFn(ctx, text, now, loc)
	}
	return nil, context.Canceled
}

func (m *mockLLMService) ExtractDeletionRequest(ctx context.Context, text string) (*llm.DeletionRequest, error) {
	if m.extractDeletionFn != nil {
		return m.extractDeletionFn(ctx, text)
	}
	return nil, context.Canceled
}

func (m *mockLLMService) SummarizeWeek(ctx context.Context, lines []string) (string, error) {
	if m.summarizeWeekFn != nil {
		return m.summarizeWeekFn(ctx, lines)
	}
	return "", nil
}

func (m *mockLLMService) Reply(ctx context.Context, message, contextText string) (string, error) {
	if m.replyFn != nil {
		return m.replyFn(ctx, message, contextText)
	}
	return "Sure thing.", nil
}

// mockTicketService is a mock implementation of tickets.Service for testing
type mockTicketService struct {
	listAssignedIssuesFn func(ctx context.Context, login string) ([]*tickets.Issue, error)
}

func (m *mockTicketService) ListAssignedIssues(ctx context.Context, login string) ([]*tickets.Issue, error) {
	if m.listAssignedIssuesFn != nil {
		return m.listAssignedIssuesFn(ctx, login)
	}
	return nil, nil
}
