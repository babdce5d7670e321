package rowgen

import (
	"context"
	"reflect"
	"testing"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
)

func tokenValues(codes ...string) []searchvalue.SearchValue {
	vs := make([]searchvalue.SearchValue, len(codes))
	for i, c := range codes {
		vs[i] = searchvalue.Token{System: "http://sys", Code: c}
	}
	return vs
}

func TestComposite_CrossProductCardinality(t *testing.T) {
	res := newTestResolver()
	gen := NewCompositeGenerator(TableTokenQuantityCompositeSearchParam,
		tokenGenerator{res: res}, quantityGenerator{res: res})

	quantities := []searchvalue.SearchValue{
		searchvalue.Quantity{System: "http://unitsys", Code: "mg", Value: f64(5)},
		searchvalue.Quantity{System: "http://unitsys", Code: "mg", Value: f64(10)},
	}

	rows, err := gen.Generate(context.Background(), 9, [][]searchvalue.SearchValue{
		tokenValues("A", "B", "C"),
		quantities,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("3 tokens x 2 quantities: got %d rows, want 6", len(rows))
	}
	for _, row := range rows {
		if row.Table() != TableTokenQuantityCompositeSearchParam {
			t.Errorf("row targets %v", row.Table())
		}
		if row.ParamID() != 9 {
			t.Errorf("row param id = %d, want 9", row.ParamID())
		}
	}
}

func TestComposite_FailedComponentExcludedFromAllPairs(t *testing.T) {
	res := newTestResolver()
	gen := NewCompositeGenerator(TableTokenQuantityCompositeSearchParam,
		tokenGenerator{res: res}, quantityGenerator{res: res})

	// The empty-code token fails its own generation; it must not appear in
	// any pair, leaving 2 x 2 rows.
	tokens := append(tokenValues("A", "B"), searchvalue.Token{System: "http://sys"})
	quantities := []searchvalue.SearchValue{
		searchvalue.Quantity{Code: "mg", Value: f64(5)},
		searchvalue.Quantity{Code: "mg", Value: f64(10)},
	}

	rows, err := gen.Generate(context.Background(), 9, [][]searchvalue.SearchValue{tokens, quantities})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4 (failed token excluded from every pair)", len(rows))
	}
}

func TestComposite_AllComponentsFailProducesNoRows(t *testing.T) {
	res := newTestResolver()
	gen := NewCompositeGenerator(TableTokenQuantityCompositeSearchParam,
		tokenGenerator{res: res}, quantityGenerator{res: res})

	rows, err := gen.Generate(context.Background(), 9, [][]searchvalue.SearchValue{
		tokenValues("A"),
		{searchvalue.Quantity{Code: "mg"}}, // no value: unrepresentable in V1
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestComposite_ArityMismatchProducesNoRows(t *testing.T) {
	res := newTestResolver()
	gen := NewCompositeGenerator(TableTokenQuantityCompositeSearchParam,
		tokenGenerator{res: res}, quantityGenerator{res: res})

	rows, err := gen.Generate(context.Background(), 9, [][]searchvalue.SearchValue{tokenValues("A")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != nil {
		t.Errorf("got %v, want no rows for arity mismatch", rows)
	}
}

func TestComposite_FieldsConcatenateInComponentOrder(t *testing.T) {
	res := newTestResolver()
	tokGen := tokenGenerator{res: res}
	qtyGen := quantityGenerator{res: res}
	gen := NewCompositeGenerator(TableTokenQuantityCompositeSearchParam, tokGen, qtyGen)
	ctx := context.Background()

	token := searchvalue.Token{System: "http://sys", Code: "A"}
	quantity := searchvalue.Quantity{System: "http://unitsys", Code: "mg", Value: f64(5)}

	rows, err := gen.Generate(ctx, 9, [][]searchvalue.SearchValue{{token}, {quantity}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	tokenRow, _, _ := tokGen.TryGenerate(ctx, 9, token)
	quantityRow, _, _ := qtyGen.TryGenerate(ctx, 9, quantity)
	want := append(tokenRow.Fields(), quantityRow.Fields()...)

	if !reflect.DeepEqual(rows[0].Fields(), want) {
		t.Errorf("composite fields = %v, want concatenation %v", rows[0].Fields(), want)
	}
}
