// Package rowgen converts typed search values into rows of the versioned
// relational index tables. One generator exists per value kind per schema
// version; composite parameters combine component generators via a
// cross-product. The orchestrator groups generated rows by destination table
// for bulk replacement by the persistence layer.
package rowgen

// TableType names the physical index table a row targets.
type TableType int

const (
	TableTokenSearchParam TableType = iota + 1
	TableStringSearchParam
	TableDateSearchParam
	TableReferenceSearchParam
	TableQuantitySearchParam
	TableNumberSearchParam
	TableURISearchParam
	TableTokenTokenCompositeSearchParam
	TableTokenQuantityCompositeSearchParam
	TableTokenStringCompositeSearchParam
	TableTokenDateCompositeSearchParam
	TableTokenNumberCompositeSearchParam
)

// Name returns the SQL table name.
func (t TableType) Name() string {
	switch t {
	case TableTokenSearchParam:
		return "token_search_param"
	case TableStringSearchParam:
		return "string_search_param"
	case TableDateSearchParam:
		return "date_search_param"
	case TableReferenceSearchParam:
		return "reference_search_param"
	case TableQuantitySearchParam:
		return "quantity_search_param"
	case TableNumberSearchParam:
		return "number_search_param"
	case TableURISearchParam:
		return "uri_search_param"
	case TableTokenTokenCompositeSearchParam:
		return "token_token_composite_search_param"
	case TableTokenQuantityCompositeSearchParam:
		return "token_quantity_composite_search_param"
	case TableTokenStringCompositeSearchParam:
		return "token_string_composite_search_param"
	case TableTokenDateCompositeSearchParam:
		return "token_date_composite_search_param"
	case TableTokenNumberCompositeSearchParam:
		return "token_number_composite_search_param"
	}
	return "unknown"
}

// SearchParamID identifies a search parameter definition. It is embedded as a
// foreign key in every generated row.
type SearchParamID int16

// Row is one generated index row targeting exactly one table.
type Row interface {
	Table() TableType
	ParamID() SearchParamID

	// Fields returns the column values that follow the search-parameter id,
	// in the target table's column order.
	Fields() []interface{}
}

// Columns flattens a row into its full column tuple: the search-parameter id
// followed by the row's fields.
func Columns(r Row) []interface{} {
	return append([]interface{}{int16(r.ParamID())}, r.Fields()...)
}
