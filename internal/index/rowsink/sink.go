// Package rowsink is the persistence boundary for generated index rows. It
// accepts the orchestrator's per-table row groups and replaces the previous
// index rows of the resource with them in one transaction.
package rowsink

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinrepo/clinrepo/internal/index/rowgen"
)

// Sink persists the complete replacement row set of one resource write.
type Sink interface {
	// Replace removes all existing index rows for the resource and inserts
	// the given groups. The groups are treated as the exact index state for
	// the resource: tables absent from the map are cleared.
	Replace(ctx context.Context, resourceID uuid.UUID, groups map[rowgen.TableType][]rowgen.Row) error
}
