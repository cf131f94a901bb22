package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// UserID is the chat-platform user identifier (e.g. Slack user ID)
type UserID string

// User identifies a person within a workspace. A User is created on first
// interaction and never deleted; timezone and calendar connection are the
// only mutable attributes.
type User struct {
	ID                UserID
	WorkspaceID       string
	Email             string
	Timezone          string
	CalendarConnected bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks required attributes of the user
func (u *User) Validate() error {
	if u.ID == "" {
		return goerr.New("user ID is required")
	}
	if u.WorkspaceID == "" {
		return goerr.New("workspace ID is required", goerr.V("user_id", u.ID))
	}
	if u.Timezone != "" {
		if _, err := time.LoadLocation(u.Timezone); err != nil {
			return goerr.Wrap(err, "invalid timezone", goerr.V("timezone", u.Timezone))
		}
	}
	return nil
}

// Location resolves the user's IANA timezone, defaulting to UTC when the
// timezone is unset or unknown. Resolution happens per call so daylight
// saving transitions are always applied by the zone database.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalDay returns the user-local calendar date of t as YYYY-MM-DD
func (u *User) LocalDay(t time.Time) string {
	return t.In(u.Location()).Format(time.DateOnly)
}
