// Package surrogate maintains the bidirectional mapping between free-form
// domain strings (resource-type names, search-parameter codes, coding systems,
// unit codes) and compact integer surrogate identifiers. Mappings are assigned
// lazily on first observation, cached for the lifetime of the process, and are
// permanent: the same string in the same category always resolves to the same
// id for the lifetime of the store.
package surrogate

// Category partitions the surrogate identifier space. Each category has its
// own uniqueness scope: the same string may hold different ids in different
// categories.
type Category int16

const (
	CategoryResourceType Category = iota + 1
	CategorySearchParameter
	CategorySystem
	CategoryQuantityCode
)

// String returns the category name used in logs.
func (c Category) String() string {
	switch c {
	case CategoryResourceType:
		return "resource_type"
	case CategorySearchParameter:
		return "search_parameter"
	case CategorySystem:
		return "system"
	case CategoryQuantityCode:
		return "quantity_code"
	}
	return "unknown"
}
