package resource

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Resource maps to the resource table: the current snapshot of one clinical
// resource. Every write creates a new version; deletes are soft, leaving the
// row in place with Deleted set and a delete marker in history.
type Resource struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	FHIRID         string          `db:"fhir_id" json:"fhir_id"`
	ResourceType   string          `db:"resource_type" json:"resource_type"`
	ResourceTypeID int64           `db:"resource_type_id" json:"resource_type_id"`
	Body           json.RawMessage `db:"body" json:"body"`
	VersionID      int             `db:"version_id" json:"version_id"`
	Deleted        bool            `db:"deleted" json:"deleted"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// HistoryEntry is one stored version of a resource in resource_history.
type HistoryEntry struct {
	ResourceType string          `json:"resource_type"`
	FHIRID       string          `json:"fhir_id"`
	VersionID    int             `json:"version_id"`
	Body         json.RawMessage `json:"body"`
	Action       string          `json:"action"` // "create", "update", "delete"
	Timestamp    time.Time       `json:"timestamp"`
}
