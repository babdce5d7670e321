package surrogate

import (
	"context"
	"fmt"

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

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore creates a Store backed by the surrogate_id table. The table
// carries a UNIQUE (category, value) constraint and an identity id column;
// the store relies on that constraint to resolve concurrent first-use races.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *pgStore) Lookup(ctx context.Context, cat Category, value string) (int64, bool, error) {
	var id int64
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT id FROM surrogate_id WHERE category = $1 AND value = $2`,
		int16(cat), value).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: lookup %s %q: %v", ErrStoreUnavailable, cat, value, err)
	}
	return id, true, nil
}

func (s *pgStore) Insert(ctx context.Context, cat Category, value string) (int64, error) {
	// ON CONFLICT DO NOTHING returns no row when a concurrent writer won the
	// race; in that case the winning id is read back.
	var id int64
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO surrogate_id (category, value)
		VALUES ($1, $2)
		ON CONFLICT (category, value) DO NOTHING
		RETURNING id`,
		int16(cat), value).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("%w: insert %s %q: %v", ErrStoreUnavailable, cat, value, err)
	}

	id, found, err := s.Lookup(ctx, cat, value)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: insert %s %q: conflict row not visible", ErrStoreUnavailable, cat, value)
	}
	return id, nil
}
