package rowgen

import (
	"context"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
)

// Generator converts one search value of a single kind into at most one row.
//
// TryGenerate returns (row, true, nil) on success and (nil, false, nil) when
// the value cannot be represented in the target schema, which is a normal,
// silent skip rather than a failure. An error is returned only when surrogate identifier
// resolution fails; that error is fatal to the whole resource write.
type Generator interface {
	Kind() searchvalue.Kind
	TryGenerate(ctx context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error)
}
