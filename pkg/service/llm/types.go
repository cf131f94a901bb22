package llm

import (
	"context"
	"time"
)

// Service provides the text-generation collaborator interface. The engine
// treats it as a black box returning best-effort structured text; all
// scheduling decisions remain deterministic.
type Service interface {
	// ExtractActionItems pulls discrete task texts from a standup reply.
	// Returns an empty slice when the reply contains no actionable items.
	ExtractActionItems(ctx context.Context, text string) ([]string, error)

	// ExtractEventRequest parses a natural-language scheduling request into
	// a concrete event. now anchors relative dates ("tomorrow") and loc
	// resolves wall-clock times.
	ExtractEventRequest(ctx context.Context, text string, now time.Time, loc *time.Location) (*EventRequest, error)

	// ExtractDeletionRequest parses a natural-language cancellation request
	ExtractDeletionRequest(ctx context.Context, text string) (*DeletionRequest, error)

	// SummarizeWeek produces a short retrospective summary of the week's
	// action items
	SummarizeWeek(ctx context.Context, lines []string) (string, error)

	// Reply generates a free-form conversational answer, optionally given
	// calendar context
	Reply(ctx context.Context, message, contextText string) (string, error)
}

// EventRequest is a parsed scheduling request
type EventRequest struct {
	Title     string
	Start     time.Time
	Duration  time.Duration
	Attendees []string
}

// DeletionRequest is a parsed cancellation request. DaysOffset is relative
// to the user's local today (0 = today, 1 = tomorrow).
type DeletionRequest struct {
	Title      string
	DaysOffset int
}
