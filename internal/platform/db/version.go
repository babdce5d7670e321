package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CurrentSchemaVersion reads the deployed index schema version from the
// index_schema_version metadata table. The value is read once at startup and
// selects which generator set is wired for the process lifetime.
func CurrentSchemaVersion(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var version int
	err := pool.QueryRow(ctx,
		`SELECT version FROM index_schema_version ORDER BY version DESC LIMIT 1`).
		Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read index schema version: %w", err)
	}
	return version, nil
}
