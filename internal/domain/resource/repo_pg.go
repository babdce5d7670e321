package resource

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinrepo/clinrepo/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a Repository over the resource and resource_history tables.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const resourceCols = `id, fhir_id, resource_type, resource_type_id, body,
	version_id, deleted, created_at, updated_at`

func (r *repoPG) scanRow(row pgx.Row) (*Resource, error) {
	var res Resource
	err := row.Scan(&res.ID, &res.FHIRID, &res.ResourceType, &res.ResourceTypeID, &res.Body,
		&res.VersionID, &res.Deleted, &res.CreatedAt, &res.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan resource: %w", err)
	}
	return &res, nil
}

func (r *repoPG) Get(ctx context.Context, resourceType, fhirID string) (*Resource, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+resourceCols+` FROM resource WHERE resource_type = $1 AND fhir_id = $2`,
		resourceType, fhirID))
}

func (r *repoPG) Create(ctx context.Context, res *Resource) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	res.VersionID = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO resource (id, fhir_id, resource_type, resource_type_id, body, version_id, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)`,
		res.ID, res.FHIRID, res.ResourceType, res.ResourceTypeID, res.Body, res.VersionID)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, res *Resource) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE resource
		SET body = $3, version_id = $4, deleted = $5, updated_at = NOW()
		WHERE resource_type = $1 AND fhir_id = $2`,
		res.ResourceType, res.FHIRID, res.Body, res.VersionID, res.Deleted)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SaveVersion(ctx context.Context, entry *HistoryEntry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO resource_history (resource_type, fhir_id, version_id, body, action, timestamp)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		entry.ResourceType, entry.FHIRID, entry.VersionID, entry.Body, entry.Action)
	if err != nil {
		return fmt.Errorf("save history version: %w", err)
	}
	return nil
}

func (r *repoPG) GetVersion(ctx context.Context, resourceType, fhirID string, versionID int) (*HistoryEntry, error) {
	var h HistoryEntry
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT resource_type, fhir_id, version_id, body, action, timestamp
		FROM resource_history
		WHERE resource_type = $1 AND fhir_id = $2 AND version_id = $3`,
		resourceType, fhirID, versionID).
		Scan(&h.ResourceType, &h.FHIRID, &h.VersionID, &h.Body, &h.Action, &h.Timestamp)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history version: %w", err)
	}
	return &h, nil
}

func (r *repoPG) ListVersions(ctx context.Context, resourceType, fhirID string, limit, offset int) ([]*HistoryEntry, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM resource_history
		WHERE resource_type = $1 AND fhir_id = $2`,
		resourceType, fhirID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count history versions: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT resource_type, fhir_id, version_id, body, action, timestamp
		FROM resource_history
		WHERE resource_type = $1 AND fhir_id = $2
		ORDER BY version_id DESC
		LIMIT $3 OFFSET $4`,
		resourceType, fhirID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list history versions: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ResourceType, &h.FHIRID, &h.VersionID, &h.Body, &h.Action, &h.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan history version: %w", err)
		}
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history versions: %w", err)
	}
	return entries, total, nil
}
