package rowgen

import "time"

// TokenRow indexes a coded value. SystemID is nil when the token carries no
// coding system.
type TokenRow struct {
	SearchParamID SearchParamID
	SystemID      *int64
	Code          string
}

func (r TokenRow) Table() TableType       { return TableTokenSearchParam }
func (r TokenRow) ParamID() SearchParamID { return r.SearchParamID }
func (r TokenRow) Fields() []interface{}  { return []interface{}{r.SystemID, r.Code} }

// StringRow indexes a text value.
type StringRow struct {
	SearchParamID SearchParamID
	Text          string
}

func (r StringRow) Table() TableType       { return TableStringSearchParam }
func (r StringRow) ParamID() SearchParamID { return r.SearchParamID }
func (r StringRow) Fields() []interface{}  { return []interface{}{r.Text} }

// StringOverflowRow is the restructured string row: it adds the
// case-normalized text used for case-insensitive matching.
type StringOverflowRow struct {
	SearchParamID SearchParamID
	Text          string
	TextLower     string
}

func (r StringOverflowRow) Table() TableType       { return TableStringSearchParam }
func (r StringOverflowRow) ParamID() SearchParamID { return r.SearchParamID }
func (r StringOverflowRow) Fields() []interface{}  { return []interface{}{r.Text, r.TextLower} }

// DateRow indexes a period. Point dates carry Start == End.
type DateRow struct {
	SearchParamID SearchParamID
	Start         time.Time
	End           time.Time
}

func (r DateRow) Table() TableType       { return TableDateSearchParam }
func (r DateRow) ParamID() SearchParamID { return r.SearchParamID }
func (r DateRow) Fields() []interface{}  { return []interface{}{r.Start, r.End} }

// ReferenceRow indexes a pointer to another resource. ResourceTypeID is nil
// for untyped references.
type ReferenceRow struct {
	SearchParamID  SearchParamID
	ResourceTypeID *int64
	ResourceID     string
}

func (r ReferenceRow) Table() TableType       { return TableReferenceSearchParam }
func (r ReferenceRow) ParamID() SearchParamID { return r.SearchParamID }
func (r ReferenceRow) Fields() []interface{}  { return []interface{}{r.ResourceTypeID, r.ResourceID} }

// QuantityRow indexes a point quantity value with surrogate system/code ids.
type QuantityRow struct {
	SearchParamID SearchParamID
	SystemID      *int64
	CodeID        *int64
	Value         float64
}

func (r QuantityRow) Table() TableType       { return TableQuantitySearchParam }
func (r QuantityRow) ParamID() SearchParamID { return r.SearchParamID }
func (r QuantityRow) Fields() []interface{}  { return []interface{}{r.SystemID, r.CodeID, r.Value} }

// QuantityRangeRow is the restructured quantity row: it adds the Low/High
// range columns so range quantities can be indexed alongside point values.
type QuantityRangeRow struct {
	SearchParamID SearchParamID
	SystemID      *int64
	CodeID        *int64
	Value         *float64
	Low           *float64
	High          *float64
}

func (r QuantityRangeRow) Table() TableType       { return TableQuantitySearchParam }
func (r QuantityRangeRow) ParamID() SearchParamID { return r.SearchParamID }
func (r QuantityRangeRow) Fields() []interface{} {
	return []interface{}{r.SystemID, r.CodeID, r.Value, r.Low, r.High}
}

// NumberRow indexes a plain numeric value.
type NumberRow struct {
	SearchParamID SearchParamID
	Value         float64
}

func (r NumberRow) Table() TableType       { return TableNumberSearchParam }
func (r NumberRow) ParamID() SearchParamID { return r.SearchParamID }
func (r NumberRow) Fields() []interface{}  { return []interface{}{r.Value} }

// URIRow indexes a URI value.
type URIRow struct {
	SearchParamID SearchParamID
	URI           string
}

func (r URIRow) Table() TableType       { return TableURISearchParam }
func (r URIRow) ParamID() SearchParamID { return r.SearchParamID }
func (r URIRow) Fields() []interface{}  { return []interface{}{r.URI} }

// CompositeRow combines the fields of its component rows, in component
// declaration order, under a single search-parameter id. The component order
// determines the column layout and must match the target table's schema.
type CompositeRow struct {
	SearchParamID SearchParamID
	TableKind     TableType
	Components    []Row
}

func (r CompositeRow) Table() TableType       { return r.TableKind }
func (r CompositeRow) ParamID() SearchParamID { return r.SearchParamID }

func (r CompositeRow) Fields() []interface{} {
	var fields []interface{}
	for _, c := range r.Components {
		fields = append(fields, c.Fields()...)
	}
	return fields
}
