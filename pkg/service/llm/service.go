package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

type service struct {
	client gollem.LLMClient
}

var _ Service = &service{}

// New creates a Service backed by the given LLM client
func New(client gollem.LLMClient) (Service, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &service{client: client}, nil
}

// generateJSON runs a single JSON-schema constrained generation and decodes
// the first text of the response into out
func (s *service) generateJSON(ctx context.Context, schema *gollem.Parameter, prompt string, out any) error {
	session, err := s.client.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return goerr.Wrap(err, "failed to generate content")
	}
	if len(resp.Texts) == 0 {
		return goerr.New("LLM returned empty response")
	}

	if err := json.Unmarshal([]byte(resp.Texts[0]), out); err != nil {
		return goerr.Wrap(err, "failed to parse LLM JSON response",
			goerr.V("response", resp.Texts[0]))
	}
	return nil
}

func (s *service) generateText(ctx context.Context, prompt string) (string, error) {
	session, err := s.client.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("LLM returned empty response")
	}
	return strings.Join(resp.Texts, "\n"), nil
}

func (s *service) ExtractActionItems(ctx context.Context, text string) ([]string, error) {
	schema := &gollem.Parameter{
		Title:       "ActionItems",
		Description: "Discrete tasks extracted from a standup reply",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"items": {
				Type:        gollem.TypeArray,
				Description: "Each actionable task as a short imperative phrase. Empty array if the reply contains no tasks.",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
		},
	}

	prompt := fmt.Sprintf(`Extract the concrete tasks the author plans to work on from this standup reply.
Ignore greetings, status narration, and things already finished.

Reply:
%s`, text)

	var result struct {
		Items []string `json:"items"`
	}
	if err := s.generateJSON(ctx, schema, prompt, &result); err != nil {
		return nil, err
	}

	items := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items, nil
}

func (s *service) ExtractEventRequest(ctx context.Context, text string, now time.Time, loc *time.Location) (*EventRequest, error) {
	schema := &gollem.Parameter{
		Title:       "EventRequest",
		Description: "Calendar event details extracted from a scheduling message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"title": {
				Type:        gollem.TypeString,
				Description: "Event name or summary",
				Required:    true,
			},
			"date": {
				Type:        gollem.TypeString,
				Description: "Event date in YYYY-MM-DD format",
				Required:    true,
			},
			"time": {
				Type:        gollem.TypeString,
				Description: "Event start time in 24-hour HH:MM format",
				Required:    true,
			},
			"duration_minutes": {
				Type:        gollem.TypeNumber,
				Description: "Event length in minutes, default 60",
				Required:    true,
			},
			"attendees": {
				Type:        gollem.TypeArray,
				Description: "Email addresses to invite, empty array if none",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
		},
	}

	prompt := fmt.Sprintf(`Extract the event details from this message: %q

Today's date is %s in the user's timezone.`, text, now.In(loc).Format(time.DateOnly))

	var result struct {
		Title           string   `json:"title"`
		Date            string   `json:"date"`
		Time            string   `json:"time"`
		DurationMinutes int      `json:"duration_minutes"`
		Attendees       []string `json:"attendees"`
	}
	if err := s.generateJSON(ctx, schema, prompt, &result); err != nil {
		return nil, err
	}

	if result.Title == "" || result.Date == "" || result.Time == "" {
		return nil, goerr.New("incomplete event details",
			goerr.V("title", result.Title), goerr.V("date", result.Date), goerr.V("time", result.Time))
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", result.Date+" "+result.Time, loc)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid event time",
			goerr.V("date", result.Date), goerr.V("time", result.Time))
	}

	duration := time.Duration(result.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = time.Hour
	}

	return &EventRequest{
		Title:     result.Title,
		Start:     start.UTC(),
		Duration:  duration,
		Attendees: result.Attendees,
	}, nil
}

func (s *service) ExtractDeletionRequest(ctx context.Context, text string) (*DeletionRequest, error) {
	schema := &gollem.Parameter{
		Title:       "DeletionRequest",
		Description: "Event cancellation details extracted from a message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"event_title": {
				Type:        gollem.TypeString,
				Description: "Name or partial name of the event to cancel",
				Required:    true,
			},
			"date_context": {
				Type:        gollem.TypeString,
				Description: `"today" or "tomorrow"; "today" when unspecified`,
				Required:    true,
			},
		},
	}

	prompt := fmt.Sprintf(`Extract the event cancellation details from this message: %q`, text)

	var result struct {
		EventTitle  string `json:"event_title"`
		DateContext string `json:"date_context"`
	}
	if err := s.generateJSON(ctx, schema, prompt, &result); err != nil {
		return nil, err
	}

	if result.EventTitle == "" {
		return nil, goerr.New("no event title in cancellation request")
	}

	offset := 0
	if result.DateContext == "tomorrow" {
		offset = 1
	}

	return &DeletionRequest{
		Title:      result.EventTitle,
		DaysOffset: offset,
	}, nil
}

func (s *service) SummarizeWeek(ctx context.Context, lines []string) (string, error) {
	prompt := fmt.Sprintf(`Write a short weekly retrospective summary (3-5 sentences, plain text)
of these action items and their outcomes. Mention what got done and what kept slipping.

Items:
%s`, strings.Join(lines, "\n"))

	return s.generateText(ctx, prompt)
}

func (s *service) Reply(ctx context.Context, message, contextText string) (string, error) {
	prompt := message
	if contextText != "" {
		prompt = fmt.Sprintf("%s\n\nCalendar information:\n%s", message, contextText)
	}
	return s.generateText(ctx, prompt)
}
