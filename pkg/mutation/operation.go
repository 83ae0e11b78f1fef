package mutation

import "github.com/jordanlanch/salescrm/pkg/domain"

// Kind tags an Operation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Operation describes one logical write. Draft is used by create, Patch by
// update; ID is required for update and delete.
type Operation[T any, P any] struct {
	Kind  Kind
	ID    string
	Draft T
	Patch P
}

func (op Operation[T, P]) check() error {
	switch op.Kind {
	case KindCreate:
		return nil
	case KindUpdate, KindDelete:
		if op.ID == "" {
			return domain.NewValidationError("an id is required")
		}
		if IsTemporaryID(op.ID) {
			return domain.NewValidationError("This item is still being saved. Try again in a moment.")
		}
		return nil
	default:
		return domain.NewValidationError("unknown operation " + string(op.Kind))
	}
}

// Outcome labels how a mutation ended.
type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeRejected   Outcome = "rejected"
)

// Result reports what a mutation did to the cache and the store.
type Result[T any] struct {
	Kind Kind
	// ID is the target id, or the server-assigned id after a create.
	ID string
	// TempID is the local id the optimistic create used.
	TempID string
	// Entity is the store's copy after create or update.
	Entity T
	// Applied is false when the key was not loaded, so nothing was patched.
	Applied bool
	// Snapshot is the visible value captured just before the patch.
	Snapshot []T
	// Restored is the visible value after a rollback.
	Restored []T
}
