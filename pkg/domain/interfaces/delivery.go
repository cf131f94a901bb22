package interfaces

import (
	"context"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
)

// DeliveryRepository is the delivery ledger. TryClaim is the idempotency
// mechanism for every proactive dispatch and every webhook replay.
type DeliveryRepository interface {
	// TryClaim atomically creates a DeliveryRecord for the record's key if and
	// only if none exists. Returns true iff this call created it, i.e. this
	// caller won the right to deliver. The uniqueness guarantee must hold at
	// the storage layer so it stays race-free across process replicas.
	TryClaim(ctx context.Context, rec *model.DeliveryRecord) (bool, error)

	// Get retrieves the record for an occurrence. Returns (nil, nil) when no
	// record exists.
	Get(ctx context.Context, userID model.UserID, rule types.RuleKind, occurrenceID string) (*model.DeliveryRecord, error)

	// PruneBefore deletes records created before the cutoff and returns the
	// number removed. Only recent occurrences are ever queried, so bounded
	// retention is safe.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}
