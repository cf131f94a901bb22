package model

import (
	"time"

	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ActionItemID is a UUID-based identifier for ActionItem
type ActionItemID string

// NewActionItemID generates a new UUID v4 ActionItemID
func NewActionItemID() ActionItemID {
	return ActionItemID(uuid.New().String())
}

// ActionItem is one task extracted from a standup reply. Items are never
// physically deleted, only status-transitioned. Carry-over produces a new
// Pending item on the next day whose CarriedFrom links back to the original.
type ActionItem struct {
	ID          ActionItemID
	UserID      UserID
	Day         string // user-local calendar date, YYYY-MM-DD
	Text        string
	Status      types.ActionItemStatus
	CarriedFrom ActionItemID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewActionItem creates a Pending item for the given user-local day
func NewActionItem(userID UserID, day, text string) *ActionItem {
	now := time.Now().UTC()
	return &ActionItem{
		ID:        NewActionItemID(),
		UserID:    userID,
		Day:       day,
		Text:      text,
		Status:    types.ActionItemStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required attributes of the item
func (i *ActionItem) Validate() error {
	if i.ID == "" {
		return goerr.New("action item ID is required")
	}
	if i.UserID == "" {
		return goerr.New("user ID is required")
	}
	if _, err := time.Parse(time.DateOnly, i.Day); err != nil {
		return goerr.Wrap(err, "invalid day format", goerr.V("day", i.Day))
	}
	if i.Text == "" {
		return goerr.New("action item text is required", goerr.V("id", i.ID))
	}
	if !i.Status.IsValid() {
		return goerr.New("invalid action item status", goerr.V("status", i.Status))
	}
	return nil
}

// CarryForward clones a Pending item to the given next day, preserving
// lineage. The original item is transitioned to CarriedOver separately.
func (i *ActionItem) CarryForward(day string) *ActionItem {
	next := NewActionItem(i.UserID, day, i.Text)
	next.CarriedFrom = i.ID
	return next
}
