package types

import "fmt"

// OfferStatus represents the state of a booking session
type OfferStatus string

const (
	OfferStatusOffered    OfferStatus = "offered"
	OfferStatusConfirmed  OfferStatus = "confirmed"
	OfferStatusExpired    OfferStatus = "expired"
	OfferStatusSuperseded OfferStatus = "superseded"
)

// IsValid checks if the offer status is valid
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusOffered,
		OfferStatusConfirmed,
		OfferStatusExpired,
		OfferStatusSuperseded:
		return true
	default:
		return false
	}
}

// IsActive reports whether the offer can still be selected
func (s OfferStatus) IsActive() bool {
	return s == OfferStatusOffered
}

// String returns the string representation of the offer status
func (s OfferStatus) String() string {
	return string(s)
}

// ParseOfferStatus parses a string into an OfferStatus
func ParseOfferStatus(s string) (OfferStatus, error) {
	status := OfferStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid offer status: %s", s)
	}
	return status, nil
}
