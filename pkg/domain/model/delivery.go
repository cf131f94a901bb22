package model

import (
	"fmt"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DeliveryRecord marks one firing of one rule for one user. Its existence is
// the sole source of truth for "already delivered": the record is written by
// winning an atomic claim, never mutated afterwards.
type DeliveryRecord struct {
	UserID       UserID
	Rule         types.RuleKind
	OccurrenceID string
	Status       types.DeliveryStatus
	CreatedAt    time.Time
}

// NewDeliveryRecord creates a record for the given occurrence
func NewDeliveryRecord(userID UserID, rule types.RuleKind, occurrenceID string, status types.DeliveryStatus) *DeliveryRecord {
	return &DeliveryRecord{
		UserID:       userID,
		Rule:         rule,
		OccurrenceID: occurrenceID,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
}

// Key returns the unique claim key of the occurrence
func (r *DeliveryRecord) Key() string {
	return fmt.Sprintf("%s:%s:%s", r.UserID, r.Rule, r.OccurrenceID)
}

// Validate checks required attributes of the record
func (r *DeliveryRecord) Validate() error {
	if r.UserID == "" {
		return goerr.New("user ID is required")
	}
	if !r.Rule.IsValid() {
		return goerr.New("invalid rule kind", goerr.V("rule", r.Rule))
	}
	if r.OccurrenceID == "" {
		return goerr.New("occurrence ID is required", goerr.V("user_id", r.UserID), goerr.V("rule", r.Rule))
	}
	if !r.Status.IsValid() {
		return goerr.New("invalid delivery status", goerr.V("status", r.Status))
	}
	return nil
}
