package rowgen

import (
	"context"
	"strings"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
)

// CompositeGenerator produces rows for search parameters defined over two or
// more component values. Component generators run independently; a composite
// row is emitted for every tuple in the cross-product of the per-component
// value sets whose component generations all succeed. A tuple where any
// component generator skips produces no row, without affecting other tuples.
type CompositeGenerator struct {
	kinds      []searchvalue.Kind
	generators []Generator
	table      TableType
}

// NewCompositeGenerator wires component generators in declaration order for
// the given composite table shape.
func NewCompositeGenerator(table TableType, generators ...Generator) *CompositeGenerator {
	kinds := make([]searchvalue.Kind, len(generators))
	for i, g := range generators {
		kinds[i] = g.Kind()
	}
	return &CompositeGenerator{kinds: kinds, generators: generators, table: table}
}

// Kinds returns the component kinds in declaration order.
func (c *CompositeGenerator) Kinds() []searchvalue.Kind { return c.kinds }

// Generate emits composite rows for the cross-product of the per-component
// value sets. components must be ordered by component declaration; its length
// must equal the number of component generators, otherwise no rows are
// produced.
func (c *CompositeGenerator) Generate(ctx context.Context, paramID SearchParamID, components [][]searchvalue.SearchValue) ([]Row, error) {
	if len(components) != len(c.generators) {
		return nil, nil
	}
	for _, vs := range components {
		if len(vs) == 0 {
			return nil, nil
		}
	}

	// Generate each component value once; a skipped value is excluded from
	// every tuple it would participate in.
	parts := make([][]Row, len(components))
	for i, vs := range components {
		for _, v := range vs {
			row, ok, err := c.generators[i].TryGenerate(ctx, paramID, v)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			parts[i] = append(parts[i], row)
		}
		if len(parts[i]) == 0 {
			return nil, nil
		}
	}

	var rows []Row
	c.cross(paramID, parts, 0, make([]Row, 0, len(parts)), &rows)
	return rows, nil
}

func (c *CompositeGenerator) cross(paramID SearchParamID, parts [][]Row, depth int, picked []Row, out *[]Row) {
	if depth == len(parts) {
		comps := make([]Row, len(picked))
		copy(comps, picked)
		*out = append(*out, CompositeRow{
			SearchParamID: paramID,
			TableKind:     c.table,
			Components:    comps,
		})
		return
	}
	for _, r := range parts[depth] {
		c.cross(paramID, parts, depth+1, append(picked, r), out)
	}
}

// compositeSignature keys a composite shape by its ordered component kinds.
func compositeSignature(kinds []searchvalue.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "+")
}
