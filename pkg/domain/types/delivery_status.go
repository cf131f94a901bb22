package types

import "fmt"

// DeliveryStatus records how an occurrence was resolved
type DeliveryStatus string

const (
	// DeliveryStatusDelivered means the message was dispatched to the user
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusSkipped means the occurrence was claimed but intentionally
	// not delivered, e.g. it exceeded the staleness bound after an outage
	DeliveryStatusSkipped DeliveryStatus = "skipped"
)

// IsValid checks if the delivery status is valid
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusSkipped:
		return true
	default:
		return false
	}
}

// String returns the string representation of the delivery status
func (s DeliveryStatus) String() string {
	return string(s)
}

// ParseDeliveryStatus parses a string into a DeliveryStatus
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	status := DeliveryStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid delivery status: %s", s)
	}
	return status, nil
}
