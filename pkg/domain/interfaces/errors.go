package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by repository implementations
var (
	// ErrNotFound is returned when a keyed lookup has no matching entity
	ErrNotFound = goerr.New("entity not found")

	// ErrTransitionConflict is returned when a guarded transition observes a
	// current state different from the expected one, i.e. another writer won
	ErrTransitionConflict = goerr.New("state transition conflict")
)
