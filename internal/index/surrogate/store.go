package surrogate

import (
	"context"
	"errors"
)

// ErrStoreUnavailable wraps failures to reach the persistent identifier store.
// A write cannot proceed without a real surrogate id, so callers treat this as
// fatal to the in-progress resource write and surface it for retry.
var ErrStoreUnavailable = errors.New("surrogate id store unavailable")

// Store is the persistent side of the identifier mapping. Implementations
// must enforce a uniqueness constraint on (category, value) so that
// concurrent first-use races converge on a single id.
type Store interface {
	// Lookup returns the id previously assigned to (category, value), if any.
	Lookup(ctx context.Context, cat Category, value string) (int64, bool, error)

	// Insert assigns an id to (category, value). When another writer inserted
	// the same pair concurrently, Insert must return the winning id rather
	// than an error.
	Insert(ctx context.Context, cat Category, value string) (int64, error)
}
