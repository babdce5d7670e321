// Package searchvalue defines the typed search values extracted from FHIR
// resources before indexing. Each value kind maps to one physical index table;
// the extraction pipeline produces these, the row generators consume them.
package searchvalue

import "time"

// Kind discriminates the SearchValue variants.
type Kind int

const (
	KindToken Kind = iota
	KindQuantity
	KindString
	KindDate
	KindReference
	KindURI
	KindNumber
	KindComposite
)

// String returns the FHIR search parameter type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindQuantity:
		return "quantity"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindReference:
		return "reference"
	case KindURI:
		return "uri"
	case KindNumber:
		return "number"
	case KindComposite:
		return "composite"
	}
	return "unknown"
}

// SearchValue is a single extracted search attribute of a resource.
// Values are immutable once extracted.
type SearchValue interface {
	Kind() Kind
}

// Token is a coded value, optionally qualified by a coding system URI
// (e.g., system "http://loinc.org", code "8480-6").
type Token struct {
	System string
	Code   string
}

func (Token) Kind() Kind { return KindToken }

// Quantity is a measured amount with an optional unit system/code. Point
// quantities carry Value; range quantities carry Low and/or High instead.
type Quantity struct {
	System string
	Code   string
	Value  *float64
	Low    *float64
	High   *float64
}

func (Quantity) Kind() Kind { return KindQuantity }

// String is a human-readable text value (names, addresses).
type String struct {
	Value string
}

func (String) Kind() Kind { return KindString }

// Date is a period. Point-in-time dates carry Start == End.
type Date struct {
	Start time.Time
	End   time.Time
}

func (Date) Kind() Kind { return KindDate }

// Reference points at another resource by type and id
// (e.g., "Patient", "123").
type Reference struct {
	ResourceType string
	ResourceID   string
}

func (Reference) Kind() Kind { return KindReference }

// URI is an absolute or relative URI value.
type URI struct {
	Value string
}

func (URI) Kind() Kind { return KindURI }

// Number is a plain numeric value.
type Number struct {
	Value float64
}

func (Number) Kind() Kind { return KindNumber }

// Composite bundles the component values of one composite search parameter
// match, in component declaration order. Component order is significant: it
// determines the column layout of the generated composite row.
type Composite struct {
	Components []SearchValue
}

func (Composite) Kind() Kind { return KindComposite }
