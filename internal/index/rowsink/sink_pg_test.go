package rowsink

import (
	"testing"
	"time"

	"github.com/clinrepo/clinrepo/internal/index/rowgen"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestColumnsFor_MatchesRowShapes(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		version rowgen.SchemaVersion
		row     rowgen.Row
	}{
		{"token", rowgen.SchemaV1, rowgen.TokenRow{SystemID: i64(1), Code: "A"}},
		{"string v1", rowgen.SchemaV1, rowgen.StringRow{Text: "x"}},
		{"string v2", rowgen.SchemaV2, rowgen.StringOverflowRow{Text: "X", TextLower: "x"}},
		{"date", rowgen.SchemaV1, rowgen.DateRow{Start: now, End: now}},
		{"reference", rowgen.SchemaV1, rowgen.ReferenceRow{ResourceTypeID: i64(2), ResourceID: "p1"}},
		{"quantity v1", rowgen.SchemaV1, rowgen.QuantityRow{Value: 5}},
		{"quantity v2", rowgen.SchemaV2, rowgen.QuantityRangeRow{Value: f64(5)}},
		{"number", rowgen.SchemaV1, rowgen.NumberRow{Value: 5}},
		{"uri", rowgen.SchemaV1, rowgen.URIRow{URI: "http://x"}},
		{"token-quantity v1", rowgen.SchemaV1, rowgen.CompositeRow{
			TableKind: rowgen.TableTokenQuantityCompositeSearchParam,
			Components: []rowgen.Row{
				rowgen.TokenRow{Code: "A"},
				rowgen.QuantityRow{Value: 5},
			},
		}},
		{"token-quantity v2", rowgen.SchemaV2, rowgen.CompositeRow{
			TableKind: rowgen.TableTokenQuantityCompositeSearchParam,
			Components: []rowgen.Row{
				rowgen.TokenRow{Code: "A"},
				rowgen.QuantityRangeRow{Value: f64(5)},
			},
		}},
		{"token-number v2", rowgen.SchemaV2, rowgen.CompositeRow{
			TableKind: rowgen.TableTokenNumberCompositeSearchParam,
			Components: []rowgen.Row{
				rowgen.TokenRow{Code: "A"},
				rowgen.NumberRow{Value: 5},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, ok := columnsFor(tt.version, tt.row.Table())
			if !ok {
				t.Fatalf("no columns for %s in version %d", tt.row.Table().Name(), tt.version)
			}
			if got := len(rowgen.Columns(tt.row)); got != len(cols) {
				t.Errorf("row yields %d values, table %s takes %d (%v)",
					got, tt.row.Table().Name(), len(cols), cols)
			}
		})
	}
}

func TestColumnsFor_V2OverridesOnlyRestructuredTables(t *testing.T) {
	v1Cols, _ := columnsFor(rowgen.SchemaV1, rowgen.TableTokenSearchParam)
	v2Cols, _ := columnsFor(rowgen.SchemaV2, rowgen.TableTokenSearchParam)
	if len(v1Cols) != len(v2Cols) {
		t.Error("token table is not restructured between versions")
	}

	if _, ok := columnsFor(rowgen.SchemaV1, rowgen.TableTokenNumberCompositeSearchParam); ok {
		t.Error("token-number composite must not exist in version 1")
	}
}

func TestAllTables_PerVersion(t *testing.T) {
	v1 := allTables(rowgen.SchemaV1)
	v2 := allTables(rowgen.SchemaV2)
	if len(v2) != len(v1)+1 {
		t.Errorf("version 2 adds one table: v1=%d v2=%d", len(v1), len(v2))
	}
	for _, table := range v2 {
		if _, ok := columnsFor(rowgen.SchemaV2, table); !ok {
			t.Errorf("no insert columns for %s", table.Name())
		}
	}
}

func TestInsertStatement(t *testing.T) {
	stmt := insertStatement("token_search_param", []string{"search_param_id", "system_id", "code"})
	want := `INSERT INTO token_search_param (resource_id, search_param_id, system_id, code) VALUES ($1, $2, $3, $4)`
	if stmt != want {
		t.Errorf("stmt = %q, want %q", stmt, want)
	}
}
