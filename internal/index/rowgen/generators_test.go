package rowgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
	"github.com/clinrepo/clinrepo/internal/index/surrogate"
)

// memStore is an in-memory surrogate store for generator tests.
type memStore struct {
	mu   sync.Mutex
	next int64
	ids  map[string]int64
}

func newMemStore() *memStore {
	return &memStore{ids: make(map[string]int64)}
}

func (s *memStore) key(cat surrogate.Category, value string) string {
	return cat.String() + "|" + value
}

func (s *memStore) Lookup(_ context.Context, cat surrogate.Category, value string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[s.key(cat, value)]
	return id, ok, nil
}

func (s *memStore) Insert(_ context.Context, cat surrogate.Category, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(cat, value)
	if id, ok := s.ids[k]; ok {
		return id, nil
	}
	s.next++
	s.ids[k] = s.next
	return s.next, nil
}

func newTestResolver() *surrogate.Resolver {
	return surrogate.NewResolver(newMemStore(), zerolog.Nop())
}

func f64(v float64) *float64 { return &v }

func TestTokenGenerator(t *testing.T) {
	res := newTestResolver()
	gen := tokenGenerator{res: res}
	ctx := context.Background()

	row, ok, err := gen.TryGenerate(ctx, 7, searchvalue.Token{System: "http://loinc.org", Code: "8480-6"})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	tr := row.(TokenRow)
	if tr.SearchParamID != 7 || tr.Code != "8480-6" || tr.SystemID == nil {
		t.Errorf("unexpected row %+v", tr)
	}
	if row.Table() != TableTokenSearchParam {
		t.Errorf("table = %v, want token", row.Table())
	}

	// Same system resolves to the same surrogate id.
	row2, _, _ := gen.TryGenerate(ctx, 8, searchvalue.Token{System: "http://loinc.org", Code: "other"})
	if *row2.(TokenRow).SystemID != *tr.SystemID {
		t.Error("same system produced different surrogate ids")
	}
}

func TestTokenGenerator_SkipsEmptyCode(t *testing.T) {
	gen := tokenGenerator{res: newTestResolver()}

	_, ok, err := gen.TryGenerate(context.Background(), 1, searchvalue.Token{System: "http://loinc.org"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("token without code must be skipped, not indexed")
	}
}

func TestTokenGenerator_NoSystem(t *testing.T) {
	gen := tokenGenerator{res: newTestResolver()}

	row, ok, err := gen.TryGenerate(context.Background(), 1, searchvalue.Token{Code: "active"})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	if row.(TokenRow).SystemID != nil {
		t.Error("expected nil system id for system-less token")
	}
}

func TestQuantityGenerator_V1(t *testing.T) {
	res := newTestResolver()
	gen := quantityGenerator{res: res}
	ctx := context.Background()

	row, ok, err := gen.TryGenerate(ctx, 3, searchvalue.Quantity{
		System: "http://unitsofmeasure.org", Code: "mg", Value: f64(5),
	})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	qr := row.(QuantityRow)
	if qr.Value != 5 || qr.SystemID == nil || qr.CodeID == nil {
		t.Errorf("unexpected row %+v", qr)
	}

	// A range-only quantity has no place in the point-value shape.
	_, ok, err = gen.TryGenerate(ctx, 3, searchvalue.Quantity{Code: "mg", Low: f64(1), High: f64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("range-only quantity must be skipped in the point-value shape")
	}
}

func TestQuantityRangeGenerator_V2(t *testing.T) {
	res := newTestResolver()
	gen := quantityRangeGenerator{res: res}
	ctx := context.Background()

	row, ok, err := gen.TryGenerate(ctx, 3, searchvalue.Quantity{Code: "mg", Low: f64(1), High: f64(2)})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	qr := row.(QuantityRangeRow)
	if qr.Value != nil || *qr.Low != 1 || *qr.High != 2 {
		t.Errorf("unexpected row %+v", qr)
	}

	_, ok, err = gen.TryGenerate(ctx, 3, searchvalue.Quantity{Code: "mg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("quantity without value or bounds must be skipped")
	}
}

func TestStringGenerators(t *testing.T) {
	ctx := context.Background()

	row, ok, err := stringGenerator{}.TryGenerate(ctx, 2, searchvalue.String{Value: "Smith"})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	if row.(StringRow).Text != "Smith" {
		t.Errorf("unexpected row %+v", row)
	}

	row, ok, err = stringOverflowGenerator{}.TryGenerate(ctx, 2, searchvalue.String{Value: "Smith"})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	sr := row.(StringOverflowRow)
	if sr.Text != "Smith" || sr.TextLower != "smith" {
		t.Errorf("unexpected row %+v", sr)
	}

	for _, gen := range []Generator{stringGenerator{}, stringOverflowGenerator{}} {
		if _, ok, _ := gen.TryGenerate(ctx, 2, searchvalue.String{}); ok {
			t.Error("empty string must be skipped")
		}
	}
}

func TestDateGenerator(t *testing.T) {
	gen := dateGenerator{}
	ctx := context.Background()
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		value      searchvalue.Date
		wantOK     bool
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{"period", searchvalue.Date{Start: day, End: day.Add(24 * time.Hour)}, true, day, day.Add(24 * time.Hour)},
		{"point start only", searchvalue.Date{Start: day}, true, day, day},
		{"point end only", searchvalue.Date{End: day}, true, day, day},
		{"empty", searchvalue.Date{}, false, time.Time{}, time.Time{}},
		{"inverted", searchvalue.Date{Start: day.Add(time.Hour), End: day}, false, time.Time{}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok, err := gen.TryGenerate(ctx, 4, tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			dr := row.(DateRow)
			if !dr.Start.Equal(tt.wantStart) || !dr.End.Equal(tt.wantEnd) {
				t.Errorf("row = [%v, %v], want [%v, %v]", dr.Start, dr.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestReferenceGenerator(t *testing.T) {
	gen := referenceGenerator{res: newTestResolver()}
	ctx := context.Background()

	row, ok, err := gen.TryGenerate(ctx, 5, searchvalue.Reference{ResourceType: "Patient", ResourceID: "123"})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	rr := row.(ReferenceRow)
	if rr.ResourceID != "123" || rr.ResourceTypeID == nil {
		t.Errorf("unexpected row %+v", rr)
	}

	if _, ok, _ := gen.TryGenerate(ctx, 5, searchvalue.Reference{ResourceType: "Patient"}); ok {
		t.Error("reference without target id must be skipped")
	}
}

func TestNumberAndURIGenerators(t *testing.T) {
	ctx := context.Background()

	row, ok, err := numberGenerator{}.TryGenerate(ctx, 6, searchvalue.Number{Value: 1.5})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	if row.(NumberRow).Value != 1.5 {
		t.Errorf("unexpected row %+v", row)
	}

	row, ok, err = uriGenerator{}.TryGenerate(ctx, 6, searchvalue.URI{Value: "http://example.org/fhir"})
	if err != nil || !ok {
		t.Fatalf("TryGenerate = (%v, %v), want success", ok, err)
	}
	if row.(URIRow).URI != "http://example.org/fhir" {
		t.Errorf("unexpected row %+v", row)
	}

	if _, ok, _ := (uriGenerator{}).TryGenerate(ctx, 6, searchvalue.URI{}); ok {
		t.Error("empty uri must be skipped")
	}
}

func TestGenerator_WrongVariantSkips(t *testing.T) {
	// Generators receive the value declared for the parameter; a mismatched
	// variant is a skip, never a panic.
	res := newTestResolver()
	gens := []Generator{
		tokenGenerator{res: res}, stringGenerator{}, stringOverflowGenerator{},
		dateGenerator{}, referenceGenerator{res: res},
		quantityGenerator{res: res}, quantityRangeGenerator{res: res},
		numberGenerator{}, uriGenerator{},
	}
	for _, gen := range gens {
		if _, ok, err := gen.TryGenerate(context.Background(), 1, searchvalue.Composite{}); ok || err != nil {
			t.Errorf("%T: wrong variant must skip silently, got ok=%v err=%v", gen, ok, err)
		}
	}
}
