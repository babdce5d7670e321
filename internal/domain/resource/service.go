package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/clinrepo/clinrepo/internal/index/rowgen"
	"github.com/clinrepo/clinrepo/internal/index/rowsink"
	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
	"github.com/clinrepo/clinrepo/internal/index/surrogate"
	"github.com/clinrepo/clinrepo/internal/platform/db"
)

// ErrVersionConflict reports an If-Match precondition failure.
var ErrVersionConflict = errors.New("resource version conflict")

// ErrParamIDOutOfRange reports a search parameter whose surrogate id no
// longer fits the smallint search_param_id columns. The surrogate sequence
// is shared across categories, so this can happen long before 32k distinct
// parameter codes exist.
var ErrParamIDOutOfRange = errors.New("search parameter id out of smallint range")

// TxBeginner opens write transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service implements the resource write and read flows. A write stores the
// new snapshot and its history entry, regenerates the complete index row set
// for the resource, and replaces the previous rows, all in one transaction
// so that partial index state is never visible.
type Service struct {
	repo     Repository
	resolver *surrogate.Resolver
	indexer  *rowgen.Indexer
	sink     rowsink.Sink
	pool     TxBeginner
	logger   zerolog.Logger
}

// NewService wires the resource lifecycle over the indexing engine.
func NewService(repo Repository, resolver *surrogate.Resolver, indexer *rowgen.Indexer, sink rowsink.Sink, pool TxBeginner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, indexer: indexer, sink: sink, pool: pool, logger: logger}
}

// Upsert writes a resource snapshot. search maps search-parameter codes to
// the values extracted from the resource content by the upstream extraction
// pipeline. expectedVersion is the If-Match version, 0 for unconditional.
func (s *Service) Upsert(ctx context.Context, resourceType, fhirID string, body json.RawMessage, search map[string][]searchvalue.SearchValue, expectedVersion int) (*Resource, error) {
	values, err := s.resolveParams(ctx, search)
	if err != nil {
		return nil, err
	}
	typeID, err := s.resolver.Resolve(ctx, surrogate.CategoryResourceType, resourceType)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin resource write: %w", err)
	}
	defer tx.Rollback(ctx)
	txCtx := db.WithTx(ctx, tx)

	current, err := s.repo.Get(txCtx, resourceType, fhirID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var res *Resource
	action := "update"
	switch {
	case current == nil:
		action = "create"
		res = &Resource{
			FHIRID:         fhirID,
			ResourceType:   resourceType,
			ResourceTypeID: typeID,
			Body:           body,
		}
		if err := s.repo.Create(txCtx, res); err != nil {
			return nil, err
		}
	default:
		if expectedVersion != 0 && expectedVersion != current.VersionID {
			return nil, fmt.Errorf("%w: expected version %d but resource is at version %d",
				ErrVersionConflict, expectedVersion, current.VersionID)
		}
		res = current
		res.Body = body
		res.VersionID = current.VersionID + 1
		res.Deleted = false
		if err := s.repo.Update(txCtx, res); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SaveVersion(txCtx, &HistoryEntry{
		ResourceType: resourceType,
		FHIRID:       fhirID,
		VersionID:    res.VersionID,
		Body:         body,
		Action:       action,
	}); err != nil {
		return nil, err
	}

	groups, err := s.indexer.GenerateRows(txCtx, values)
	if err != nil {
		return nil, err
	}
	if err := s.sink.Replace(txCtx, res.ID, groups); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit resource write: %w", err)
	}

	rowCount := 0
	for _, rows := range groups {
		rowCount += len(rows)
	}
	s.logger.Info().
		Str("resource_type", resourceType).
		Str("fhir_id", fhirID).
		Int("version", res.VersionID).
		Int("index_rows", rowCount).
		Str("action", action).
		Msg("resource written")

	return res, nil
}

// Delete soft-deletes a resource: the snapshot stays with Deleted set, a
// delete marker lands in history, and all index rows are removed so the
// resource no longer matches any search.
func (s *Service) Delete(ctx context.Context, resourceType, fhirID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin resource delete: %w", err)
	}
	defer tx.Rollback(ctx)
	txCtx := db.WithTx(ctx, tx)

	current, err := s.repo.Get(txCtx, resourceType, fhirID)
	if err != nil {
		return err
	}
	if current.Deleted {
		return nil
	}

	current.VersionID++
	current.Deleted = true
	if err := s.repo.Update(txCtx, current); err != nil {
		return err
	}
	if err := s.repo.SaveVersion(txCtx, &HistoryEntry{
		ResourceType: resourceType,
		FHIRID:       fhirID,
		VersionID:    current.VersionID,
		Body:         current.Body,
		Action:       "delete",
	}); err != nil {
		return err
	}
	if err := s.sink.Replace(txCtx, current.ID, nil); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit resource delete: %w", err)
	}

	s.logger.Info().
		Str("resource_type", resourceType).
		Str("fhir_id", fhirID).
		Int("version", current.VersionID).
		Msg("resource deleted")
	return nil
}

// Get returns the current snapshot. Soft-deleted resources are returned with
// Deleted set; the handler maps them to 410 Gone.
func (s *Service) Get(ctx context.Context, resourceType, fhirID string) (*Resource, error) {
	return s.repo.Get(ctx, resourceType, fhirID)
}

// GetVersion returns one historical version of a resource.
func (s *Service) GetVersion(ctx context.Context, resourceType, fhirID string, versionID int) (*HistoryEntry, error) {
	return s.repo.GetVersion(ctx, resourceType, fhirID, versionID)
}

// History lists a resource's versions, newest first.
func (s *Service) History(ctx context.Context, resourceType, fhirID string, limit, offset int) ([]*HistoryEntry, int, error) {
	return s.repo.ListVersions(ctx, resourceType, fhirID, limit, offset)
}

// resolveParams maps search-parameter codes to their compact ids.
func (s *Service) resolveParams(ctx context.Context, search map[string][]searchvalue.SearchValue) (map[rowgen.SearchParamID][]searchvalue.SearchValue, error) {
	values := make(map[rowgen.SearchParamID][]searchvalue.SearchValue, len(search))
	for code, vals := range search {
		id, err := s.resolver.Resolve(ctx, surrogate.CategorySearchParameter, code)
		if err != nil {
			return nil, err
		}
		if id < 1 || id > math.MaxInt16 {
			return nil, fmt.Errorf("%w: parameter %q resolved to %d", ErrParamIDOutOfRange, code, id)
		}
		values[rowgen.SearchParamID(id)] = vals
	}
	return values, nil
}
