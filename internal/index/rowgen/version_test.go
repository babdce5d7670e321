package rowgen

import (
	"errors"
	"testing"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
)

func TestGeneratorsFor_SupportedVersions(t *testing.T) {
	res := newTestResolver()

	for _, version := range []SchemaVersion{SchemaV1, SchemaV2} {
		set, err := GeneratorsFor(version, res)
		if err != nil {
			t.Fatalf("version %d: unexpected error: %v", version, err)
		}
		if set.Version() != version {
			t.Errorf("set version = %d, want %d", set.Version(), version)
		}

		for _, kind := range []searchvalue.Kind{
			searchvalue.KindToken, searchvalue.KindString, searchvalue.KindDate,
			searchvalue.KindReference, searchvalue.KindQuantity,
			searchvalue.KindNumber, searchvalue.KindURI,
		} {
			if _, ok := set.Generator(kind); !ok {
				t.Errorf("version %d: no generator for %s", version, kind)
			}
		}
	}
}

func TestGeneratorsFor_UnsupportedVersion(t *testing.T) {
	res := newTestResolver()

	for _, version := range []SchemaVersion{0, 3, 99} {
		_, err := GeneratorsFor(version, res)
		if !errors.Is(err, ErrUnsupportedSchemaVersion) {
			t.Errorf("version %d: expected ErrUnsupportedSchemaVersion, got %v", version, err)
		}
	}
}

func TestGeneratorsFor_VersionedShapes(t *testing.T) {
	res := newTestResolver()

	v1, err := GeneratorsFor(SchemaV1, res)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := GeneratorsFor(SchemaV2, res)
	if err != nil {
		t.Fatal(err)
	}

	tokenNumber := []searchvalue.Kind{searchvalue.KindToken, searchvalue.KindNumber}
	if _, ok := v1.Composite(tokenNumber); ok {
		t.Error("token+number composite must not exist before version 2")
	}
	if _, ok := v2.Composite(tokenNumber); !ok {
		t.Error("token+number composite missing in version 2")
	}

	// The quantity generator is version-specific: V1 emits point rows, V2
	// range rows.
	g1, _ := v1.Generator(searchvalue.KindQuantity)
	if _, ok := g1.(quantityGenerator); !ok {
		t.Errorf("v1 quantity generator is %T", g1)
	}
	g2, _ := v2.Generator(searchvalue.KindQuantity)
	if _, ok := g2.(quantityRangeGenerator); !ok {
		t.Errorf("v2 quantity generator is %T", g2)
	}

	for _, set := range []*GeneratorSet{v1, v2} {
		for _, kinds := range [][]searchvalue.Kind{
			{searchvalue.KindToken, searchvalue.KindToken},
			{searchvalue.KindToken, searchvalue.KindQuantity},
			{searchvalue.KindToken, searchvalue.KindString},
			{searchvalue.KindToken, searchvalue.KindDate},
		} {
			if _, ok := set.Composite(kinds); !ok {
				t.Errorf("version %d: composite %v missing", set.Version(), kinds)
			}
		}
	}
}
