package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aide-lab/kairos/pkg/domain/interfaces"
	"github.com/aide-lab/kairos/pkg/domain/model"
	"github.com/aide-lab/kairos/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type deliveryRepository struct {
	mu      sync.Mutex
	records map[string]*model.DeliveryRecord
}

var _ interfaces.DeliveryRepository = &deliveryRepository{}

func newDeliveryRepository() *deliveryRepository {
	return &deliveryRepository{
		records: make(map[string]*model.DeliveryRecord),
	}
}

func copyRecord(rec *model.DeliveryRecord) *model.DeliveryRecord {
	copied := *rec
	return &copied
}

func (r *deliveryRepository) TryClaim(ctx context.Context, rec *model.DeliveryRecord) (bool, error) {
	if rec == nil {
		return false, goerr.New("delivery record is nil")
	}
	if err := rec.Validate(); err != nil {
		return false, goerr.Wrap(err, "invalid delivery record")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := rec.Key()
	if _, exists := r.records[key]; exists {
		return false, nil
	}
	r.records[key] = copyRecord(rec)
	return true, nil
}

func (r *deliveryRepository) Get(ctx context.Context, userID model.UserID, rule types.RuleKind, occurrenceID string) (*model.DeliveryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lookup := model.DeliveryRecord{UserID: userID, Rule: rule, OccurrenceID: occurrenceID}
	rec, exists := r.records[lookup.Key()]
	if !exists {
		return nil, nil
	}
	return copyRecord(rec), nil
}

func (r *deliveryRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(r.records, key)
			removed++
		}
	}
	return removed, nil
}
