package slack

import "context"

// Service provides the messaging collaborator interface. The engine only
// needs direct-message delivery and user profile lookup; everything else
// about the chat transport stays outside the core.
type Service interface {
	// SendDirectMessage opens (or reuses) the DM channel with the user and
	// posts the message. Returns the message timestamp as a delivery ack.
	SendDirectMessage(ctx context.Context, userID string, text string) (string, error)

	// GetUserInfo retrieves profile data for the given user ID, including
	// the IANA timezone and email configured in the chat platform.
	GetUserInfo(ctx context.Context, userID string) (*User, error)

	// GetBotUserID returns the bot's own user ID. The result is cached for
	// the lifetime of the service instance.
	GetBotUserID(ctx context.Context) (string, error)
}

// User represents a chat-platform user profile
type User struct {
	ID       string
	Name     string
	RealName string
	Email    string
	Timezone string
}
