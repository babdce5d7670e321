package rowgen

import (
	"errors"
	"fmt"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
	"github.com/clinrepo/clinrepo/internal/index/surrogate"
)

// SchemaVersion selects which generator implementations, and therefore which
// table shapes, are active. Higher versions are supersets or restructurings
// of lower ones; existing data is never reprocessed on upgrade.
type SchemaVersion int

const (
	// SchemaV1 is the baseline layout: point-value quantity rows,
	// single-column string rows, and the token-token / token-quantity /
	// token-string / token-date composite shapes.
	SchemaV1 SchemaVersion = 1

	// SchemaV2 restructures quantity rows with Low/High range columns,
	// string rows with case-normalized text, and adds the token-number
	// composite shape.
	SchemaV2 SchemaVersion = 2
)

// ErrUnsupportedSchemaVersion reports a deployed schema version with no
// matching generator set. This is a startup configuration error; no write is
// attempted against an unknown schema.
var ErrUnsupportedSchemaVersion = errors.New("unsupported index schema version")

// GeneratorSet is the self-consistent set of generators for one schema
// version. Generators from different versions are never mixed within one
// write.
type GeneratorSet struct {
	version    SchemaVersion
	simple     map[searchvalue.Kind]Generator
	composites map[string]*CompositeGenerator
}

// Version returns the schema version this set serves.
func (s *GeneratorSet) Version() SchemaVersion { return s.version }

// Generator returns the simple-value generator for the given kind.
func (s *GeneratorSet) Generator(k searchvalue.Kind) (Generator, bool) {
	g, ok := s.simple[k]
	return g, ok
}

// Composite returns the composite generator for the ordered component kinds,
// when that shape exists in this schema version.
func (s *GeneratorSet) Composite(kinds []searchvalue.Kind) (*CompositeGenerator, bool) {
	c, ok := s.composites[compositeSignature(kinds)]
	return c, ok
}

// GeneratorsFor returns the generator set matching the deployed schema
// version. The version is read once at startup; an unknown version is a fatal
// configuration error, not a per-write one.
func GeneratorsFor(version SchemaVersion, res *surrogate.Resolver) (*GeneratorSet, error) {
	switch version {
	case SchemaV1:
		return newGeneratorSet(version, res,
			stringGenerator{}, quantityGenerator{res: res}, false), nil
	case SchemaV2:
		return newGeneratorSet(version, res,
			stringOverflowGenerator{}, quantityRangeGenerator{res: res}, true), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchemaVersion, version)
}

func newGeneratorSet(version SchemaVersion, res *surrogate.Resolver, strGen, qtyGen Generator, withTokenNumber bool) *GeneratorSet {
	token := tokenGenerator{res: res}
	date := dateGenerator{}
	number := numberGenerator{}

	simple := map[searchvalue.Kind]Generator{
		searchvalue.KindToken:     token,
		searchvalue.KindString:    strGen,
		searchvalue.KindDate:      date,
		searchvalue.KindReference: referenceGenerator{res: res},
		searchvalue.KindQuantity:  qtyGen,
		searchvalue.KindNumber:    number,
		searchvalue.KindURI:       uriGenerator{},
	}

	composites := []*CompositeGenerator{
		NewCompositeGenerator(TableTokenTokenCompositeSearchParam, token, token),
		NewCompositeGenerator(TableTokenQuantityCompositeSearchParam, token, qtyGen),
		NewCompositeGenerator(TableTokenStringCompositeSearchParam, token, strGen),
		NewCompositeGenerator(TableTokenDateCompositeSearchParam, token, date),
	}
	if withTokenNumber {
		composites = append(composites,
			NewCompositeGenerator(TableTokenNumberCompositeSearchParam, token, number))
	}

	byShape := make(map[string]*CompositeGenerator, len(composites))
	for _, c := range composites {
		byShape[compositeSignature(c.Kinds())] = c
	}

	return &GeneratorSet{version: version, simple: simple, composites: byShape}
}
