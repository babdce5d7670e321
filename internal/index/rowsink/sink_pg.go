package rowsink

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinrepo/clinrepo/internal/index/rowgen"
	"github.com/clinrepo/clinrepo/internal/platform/db"
)

// insertColumnsV1 lists each table's column names after resource_id, in the
// order row fields are produced. The baseline layout.
var insertColumnsV1 = map[rowgen.TableType][]string{
	rowgen.TableTokenSearchParam:     {"search_param_id", "system_id", "code"},
	rowgen.TableStringSearchParam:    {"search_param_id", "text"},
	rowgen.TableDateSearchParam:      {"search_param_id", "start_time", "end_time"},
	rowgen.TableReferenceSearchParam: {"search_param_id", "target_type_id", "target_id"},
	rowgen.TableQuantitySearchParam:  {"search_param_id", "system_id", "code_id", "value"},
	rowgen.TableNumberSearchParam:    {"search_param_id", "value"},
	rowgen.TableURISearchParam:       {"search_param_id", "uri"},
	rowgen.TableTokenTokenCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "system_id_2", "code_2"},
	rowgen.TableTokenQuantityCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "system_id_2", "code_id_2", "value_2"},
	rowgen.TableTokenStringCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "text_2"},
	rowgen.TableTokenDateCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "start_time_2", "end_time_2"},
}

// insertColumnsV2 overrides the tables whose shapes were restructured, and
// adds the token-number composite.
var insertColumnsV2 = map[rowgen.TableType][]string{
	rowgen.TableStringSearchParam:   {"search_param_id", "text", "text_lower"},
	rowgen.TableQuantitySearchParam: {"search_param_id", "system_id", "code_id", "value", "low", "high"},
	rowgen.TableTokenQuantityCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "system_id_2", "code_id_2", "value_2", "low_2", "high_2"},
	rowgen.TableTokenStringCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "text_2", "text_lower_2"},
	rowgen.TableTokenNumberCompositeSearchParam: {
		"search_param_id", "system_id_1", "code_1", "value_2"},
}

// columnsFor returns the insert column list for a table under the given
// schema version.
func columnsFor(version rowgen.SchemaVersion, table rowgen.TableType) ([]string, bool) {
	if version >= rowgen.SchemaV2 {
		if cols, ok := insertColumnsV2[table]; ok {
			return cols, true
		}
	}
	cols, ok := insertColumnsV1[table]
	return cols, ok
}

// allTables lists every index table of a schema version, for clearing stale
// rows from tables the new row set no longer touches.
func allTables(version rowgen.SchemaVersion) []rowgen.TableType {
	tables := []rowgen.TableType{
		rowgen.TableTokenSearchParam,
		rowgen.TableStringSearchParam,
		rowgen.TableDateSearchParam,
		rowgen.TableReferenceSearchParam,
		rowgen.TableQuantitySearchParam,
		rowgen.TableNumberSearchParam,
		rowgen.TableURISearchParam,
		rowgen.TableTokenTokenCompositeSearchParam,
		rowgen.TableTokenQuantityCompositeSearchParam,
		rowgen.TableTokenStringCompositeSearchParam,
		rowgen.TableTokenDateCompositeSearchParam,
	}
	if version >= rowgen.SchemaV2 {
		tables = append(tables, rowgen.TableTokenNumberCompositeSearchParam)
	}
	return tables
}

type pgSink struct {
	pool    *pgxpool.Pool
	version rowgen.SchemaVersion
}

// NewPGSink creates a Sink writing to the index tables of the given schema
// version.
func NewPGSink(pool *pgxpool.Pool, version rowgen.SchemaVersion) Sink {
	return &pgSink{pool: pool, version: version}
}

func (s *pgSink) Replace(ctx context.Context, resourceID uuid.UUID, groups map[rowgen.TableType][]rowgen.Row) error {
	tx := db.TxFromContext(ctx)
	if tx == nil {
		own, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin index replace: %w", err)
		}
		defer own.Rollback(ctx)
		if err := s.replaceInTx(ctx, own, resourceID, groups); err != nil {
			return err
		}
		return own.Commit(ctx)
	}
	return s.replaceInTx(ctx, tx, resourceID, groups)
}

func (s *pgSink) replaceInTx(ctx context.Context, tx pgx.Tx, resourceID uuid.UUID, groups map[rowgen.TableType][]rowgen.Row) error {
	batch := &pgx.Batch{}

	for _, table := range allTables(s.version) {
		batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE resource_id = $1`, table.Name()), resourceID)
	}

	for table, rows := range groups {
		cols, ok := columnsFor(s.version, table)
		if !ok {
			return fmt.Errorf("no index table for %s in schema version %d", table.Name(), s.version)
		}
		stmt := insertStatement(table.Name(), cols)
		for _, row := range rows {
			args := append([]interface{}{resourceID}, rowgen.Columns(row)...)
			if len(args) != len(cols)+1 {
				return fmt.Errorf("row for %s has %d values, table takes %d",
					table.Name(), len(args)-1, len(cols))
			}
			batch.Queue(stmt, args...)
		}
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("replace index rows: %w", err)
		}
	}
	return br.Close()
}

func insertStatement(table string, cols []string) string {
	placeholders := make([]string, len(cols)+1)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(`INSERT INTO %s (resource_id, %s) VALUES (%s)`,
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
}
