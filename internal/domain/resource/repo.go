package resource

import (
	"context"
	"errors"
)

// ErrNotFound reports that no resource exists for the given type and id.
var ErrNotFound = errors.New("resource not found")

// Repository provides access to resource snapshots and their version history.
type Repository interface {
	// Get returns the current snapshot, including soft-deleted ones; callers
	// decide how deletion surfaces.
	Get(ctx context.Context, resourceType, fhirID string) (*Resource, error)

	// Create inserts version 1 of a new resource.
	Create(ctx context.Context, r *Resource) error

	// Update replaces the snapshot with a new version.
	Update(ctx context.Context, r *Resource) error

	// SaveVersion appends a version snapshot to the history.
	SaveVersion(ctx context.Context, entry *HistoryEntry) error

	// GetVersion returns one historical version.
	GetVersion(ctx context.Context, resourceType, fhirID string, versionID int) (*HistoryEntry, error)

	// ListVersions returns history entries newest first, with the total count.
	ListVersions(ctx context.Context, resourceType, fhirID string, limit, offset int) ([]*HistoryEntry, int, error)
}
