package model

import (
	"time"

	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidOptionIndex is returned when a selection names an option outside
// the offered candidate list. It is a user-input error, never fatal.
var ErrInvalidOptionIndex = goerr.New("invalid option index")

// ErrStaleOffer is returned when a selection arrives after the offer expired
var ErrStaleOffer = goerr.New("offer has expired")

// OfferID is a UUID-based identifier for SlotOffer
type OfferID string

// NewOfferID generates a new UUID v4 OfferID
func NewOfferID() OfferID {
	return OfferID(uuid.New().String())
}

// SlotOffer is a short-lived set of candidate free intervals presented to a
// user. At most one offer per user is active at a time; a new offer
// supersedes any prior unexpired one.
type SlotOffer struct {
	ID        OfferID
	UserID    UserID
	Slots     []Interval
	Duration  time.Duration
	Title     string
	Attendees []string
	Status    types.OfferStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Validate checks required attributes of the offer
func (o *SlotOffer) Validate() error {
	if o.ID == "" {
		return goerr.New("offer ID is required")
	}
	if o.UserID == "" {
		return goerr.New("user ID is required")
	}
	if len(o.Slots) == 0 {
		return goerr.New("offer requires at least one candidate slot")
	}
	if !o.Status.IsValid() {
		return goerr.New("invalid offer status", goerr.V("status", o.Status))
	}
	if !o.ExpiresAt.After(o.CreatedAt) {
		return goerr.New("offer expiry must be after creation",
			goerr.V("created_at", o.CreatedAt), goerr.V("expires_at", o.ExpiresAt))
	}
	return nil
}

// ExpiredAt reports whether the offer has lazily expired at the given instant
func (o *SlotOffer) ExpiredAt(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Candidate resolves a 1-based option index against the candidate list
func (o *SlotOffer) Candidate(index int) (Interval, error) {
	if index < 1 || index > len(o.Slots) {
		return Interval{}, goerr.Wrap(ErrInvalidOptionIndex, "option out of range",
			goerr.V("index", index), goerr.V("options", len(o.Slots)))
	}
	return o.Slots[index-1], nil
}
