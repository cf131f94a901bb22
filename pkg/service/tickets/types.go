package tickets

import "context"

// Service provides the ticket-system collaborator interface. It is optional:
// the engine only uses it to enrich standup content, never for availability.
type Service interface {
	// ListAssignedIssues retrieves open issues assigned to the given login,
	// most recently updated first
	ListAssignedIssues(ctx context.Context, login string) ([]*Issue, error)
}

// Issue is one assigned ticket
type Issue struct {
	Key      string
	Title    string
	Status   string
	Priority string
	URL      string
}
