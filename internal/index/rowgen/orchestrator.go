package rowgen

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
)

// Indexer orchestrates row generation for one resource write. It is invoked
// once per write; its output is the exact, complete replacement set of index
// rows for that resource in the active schema version. It performs no
// persistence itself.
type Indexer struct {
	set    *GeneratorSet
	logger zerolog.Logger
	stats  Stats
}

// Stats receives generation events. Implementations must be safe for
// concurrent use.
type Stats interface {
	AddRowsGenerated(n int)
	IncValuesSkipped()
}

type noStats struct{}

func (noStats) AddRowsGenerated(int) {}
func (noStats) IncValuesSkipped()    {}

// NewIndexer creates an Indexer over the generator set selected for the
// deployed schema version.
func NewIndexer(set *GeneratorSet, logger zerolog.Logger) *Indexer {
	return &Indexer{set: set, logger: logger, stats: noStats{}}
}

// WithStats attaches a stats collector and returns the indexer.
func (ix *Indexer) WithStats(s Stats) *Indexer {
	ix.stats = s
	return ix
}

// GenerateRows converts all extracted search values of one resource into
// index rows grouped by destination table. Simple parameters invoke their
// kind's generator once per value; composite parameters route every Composite
// value's per-component sets through the matching composite generator.
//
// Values that cannot be represented are skipped silently. Identifier-store
// failures abort the whole call: partial row sets are never returned.
func (ix *Indexer) GenerateRows(ctx context.Context, values map[SearchParamID][]searchvalue.SearchValue) (map[TableType][]Row, error) {
	groups := make(map[TableType][]Row)

	// Parameter order is fixed so output ordering within each table group is
	// deterministic across calls.
	params := make([]SearchParamID, 0, len(values))
	for p := range values {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })

	for _, paramID := range params {
		var composites []searchvalue.Composite

		for _, v := range values[paramID] {
			if cv, ok := v.(searchvalue.Composite); ok {
				composites = append(composites, cv)
				continue
			}

			gen, ok := ix.set.Generator(v.Kind())
			if !ok {
				continue
			}
			row, ok, err := gen.TryGenerate(ctx, paramID, v)
			if err != nil {
				return nil, err
			}
			if !ok {
				ix.stats.IncValuesSkipped()
				ix.logger.Debug().
					Int16("search_param", int16(paramID)).
					Str("kind", v.Kind().String()).
					Msg("value not representable, skipped")
				continue
			}
			groups[row.Table()] = append(groups[row.Table()], row)
		}

		if len(composites) > 0 {
			rows, err := ix.generateComposites(ctx, paramID, composites)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				groups[row.Table()] = append(groups[row.Table()], row)
			}
		}
	}

	total := 0
	for _, rows := range groups {
		total += len(rows)
	}
	ix.stats.AddRowsGenerated(total)

	return groups, nil
}

// generateComposites gathers the per-component value sets across all
// Composite values of one parameter and hands them to the composite generator
// as a cross-product. Tuples with mismatched arity or unknown shapes are
// dropped silently.
func (ix *Indexer) generateComposites(ctx context.Context, paramID SearchParamID, composites []searchvalue.Composite) ([]Row, error) {
	kinds := componentKinds(composites[0])

	gen, ok := ix.set.Composite(kinds)
	if !ok {
		ix.logger.Debug().
			Int16("search_param", int16(paramID)).
			Str("shape", compositeSignature(kinds)).
			Msg("no composite shape for schema version, skipped")
		return nil, nil
	}

	components := make([][]searchvalue.SearchValue, len(kinds))
	for _, cv := range composites {
		if len(cv.Components) != len(kinds) {
			continue
		}
		mismatch := false
		for i, c := range cv.Components {
			if c.Kind() != kinds[i] {
				mismatch = true
				break
			}
		}
		if mismatch {
			continue
		}
		for i, c := range cv.Components {
			components[i] = append(components[i], c)
		}
	}

	return gen.Generate(ctx, paramID, components)
}

func componentKinds(cv searchvalue.Composite) []searchvalue.Kind {
	kinds := make([]searchvalue.Kind, len(cv.Components))
	for i, c := range cv.Components {
		kinds[i] = c.Kind()
	}
	return kinds
}
