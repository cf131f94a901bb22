package types

import "fmt"

// ActionItemStatus represents the lifecycle state of an action item
type ActionItemStatus string

const (
	ActionItemStatusPending     ActionItemStatus = "pending"
	ActionItemStatusDone        ActionItemStatus = "done"
	ActionItemStatusDismissed   ActionItemStatus = "dismissed"
	ActionItemStatusCarriedOver ActionItemStatus = "carried_over"
)

// AllActionItemStatuses returns all valid action item statuses
func AllActionItemStatuses() []ActionItemStatus {
	return []ActionItemStatus{
		ActionItemStatusPending,
		ActionItemStatusDone,
		ActionItemStatusDismissed,
		ActionItemStatusCarriedOver,
	}
}

// IsValid checks if the action item status is valid
func (s ActionItemStatus) IsValid() bool {
	switch s {
	case ActionItemStatusPending,
		ActionItemStatusDone,
		ActionItemStatusDismissed,
		ActionItemStatusCarriedOver:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transition
func (s ActionItemStatus) IsTerminal() bool {
	return s != ActionItemStatusPending
}

// String returns the string representation of the action item status
func (s ActionItemStatus) String() string {
	return string(s)
}

// ParseActionItemStatus parses a string into an ActionItemStatus
func ParseActionItemStatus(s string) (ActionItemStatus, error) {
	status := ActionItemStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid action item status: %s", s)
	}
	return status, nil
}
