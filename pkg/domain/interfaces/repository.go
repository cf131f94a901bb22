package interfaces

// Repository defines the interface for data persistence. It is the only
// shared mutable resource between the trigger clock and the request path, so
// every cross-cutting write is exposed as an atomic claim or a guarded
// single-writer transition rather than read-modify-write.
type Repository interface {
	User() UserRepository
	Delivery() DeliveryRepository
	Offer() OfferRepository
	ActionItem() ActionItemRepository

	Close() error
}
