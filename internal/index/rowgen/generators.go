package rowgen

import (
	"context"
	"strings"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
	"github.com/clinrepo/clinrepo/internal/index/surrogate"
)

// tokenGenerator produces TokenRows. A token without a code is skipped; a
// token without a system is indexed with a nil system id.
type tokenGenerator struct {
	res *surrogate.Resolver
}

func (tokenGenerator) Kind() searchvalue.Kind { return searchvalue.KindToken }

func (g tokenGenerator) TryGenerate(ctx context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	tok, ok := v.(searchvalue.Token)
	if !ok || tok.Code == "" {
		return nil, false, nil
	}

	var systemID *int64
	if tok.System != "" {
		id, err := g.res.Resolve(ctx, surrogate.CategorySystem, tok.System)
		if err != nil {
			return nil, false, err
		}
		systemID = &id
	}

	return TokenRow{SearchParamID: paramID, SystemID: systemID, Code: tok.Code}, true, nil
}

// stringGenerator produces the single-column StringRow shape.
type stringGenerator struct{}

func (stringGenerator) Kind() searchvalue.Kind { return searchvalue.KindString }

func (stringGenerator) TryGenerate(_ context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	sv, ok := v.(searchvalue.String)
	if !ok || sv.Value == "" {
		return nil, false, nil
	}
	return StringRow{SearchParamID: paramID, Text: sv.Value}, true, nil
}

// stringOverflowGenerator produces the restructured string row carrying the
// case-normalized text alongside the original.
type stringOverflowGenerator struct{}

func (stringOverflowGenerator) Kind() searchvalue.Kind { return searchvalue.KindString }

func (stringOverflowGenerator) TryGenerate(_ context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	sv, ok := v.(searchvalue.String)
	if !ok || sv.Value == "" {
		return nil, false, nil
	}
	return StringOverflowRow{
		SearchParamID: paramID,
		Text:          sv.Value,
		TextLower:     strings.ToLower(sv.Value),
	}, true, nil
}

// dateGenerator produces DateRows. A period whose start follows its end
// cannot be represented and is skipped.
type dateGenerator struct{}

func (dateGenerator) Kind() searchvalue.Kind { return searchvalue.KindDate }

func (dateGenerator) TryGenerate(_ context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	dv, ok := v.(searchvalue.Date)
	if !ok || dv.Start.IsZero() && dv.End.IsZero() {
		return nil, false, nil
	}
	start, end := dv.Start, dv.End
	if start.IsZero() {
		start = end
	}
	if end.IsZero() {
		end = start
	}
	if start.After(end) {
		return nil, false, nil
	}
	return DateRow{SearchParamID: paramID, Start: start, End: end}, true, nil
}

// referenceGenerator produces ReferenceRows, resolving the target resource
// type to a surrogate id. A reference without a target id is skipped.
type referenceGenerator struct {
	res *surrogate.Resolver
}

func (referenceGenerator) Kind() searchvalue.Kind { return searchvalue.KindReference }

func (g referenceGenerator) TryGenerate(ctx context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	rv, ok := v.(searchvalue.Reference)
	if !ok || rv.ResourceID == "" {
		return nil, false, nil
	}

	var typeID *int64
	if rv.ResourceType != "" {
		id, err := g.res.Resolve(ctx, surrogate.CategoryResourceType, rv.ResourceType)
		if err != nil {
			return nil, false, err
		}
		typeID = &id
	}

	return ReferenceRow{SearchParamID: paramID, ResourceTypeID: typeID, ResourceID: rv.ResourceID}, true, nil
}

// quantityGenerator produces the point-value QuantityRow shape. Range-only
// quantities have no representation in this shape and are skipped.
type quantityGenerator struct {
	res *surrogate.Resolver
}

func (quantityGenerator) Kind() searchvalue.Kind { return searchvalue.KindQuantity }

func (g quantityGenerator) TryGenerate(ctx context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	qv, ok := v.(searchvalue.Quantity)
	if !ok || qv.Value == nil {
		return nil, false, nil
	}

	systemID, codeID, err := resolveQuantityIDs(ctx, g.res, qv)
	if err != nil {
		return nil, false, err
	}

	return QuantityRow{
		SearchParamID: paramID,
		SystemID:      systemID,
		CodeID:        codeID,
		Value:         *qv.Value,
	}, true, nil
}

// quantityRangeGenerator produces the restructured quantity row with Low/High
// range columns. A quantity with neither a point value nor a bound is skipped.
type quantityRangeGenerator struct {
	res *surrogate.Resolver
}

func (quantityRangeGenerator) Kind() searchvalue.Kind { return searchvalue.KindQuantity }

func (g quantityRangeGenerator) TryGenerate(ctx context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	qv, ok := v.(searchvalue.Quantity)
	if !ok || qv.Value == nil && qv.Low == nil && qv.High == nil {
		return nil, false, nil
	}

	systemID, codeID, err := resolveQuantityIDs(ctx, g.res, qv)
	if err != nil {
		return nil, false, err
	}

	return QuantityRangeRow{
		SearchParamID: paramID,
		SystemID:      systemID,
		CodeID:        codeID,
		Value:         qv.Value,
		Low:           qv.Low,
		High:          qv.High,
	}, true, nil
}

func resolveQuantityIDs(ctx context.Context, res *surrogate.Resolver, qv searchvalue.Quantity) (*int64, *int64, error) {
	var systemID, codeID *int64
	if qv.System != "" {
		id, err := res.Resolve(ctx, surrogate.CategorySystem, qv.System)
		if err != nil {
			return nil, nil, err
		}
		systemID = &id
	}
	if qv.Code != "" {
		id, err := res.Resolve(ctx, surrogate.CategoryQuantityCode, qv.Code)
		if err != nil {
			return nil, nil, err
		}
		codeID = &id
	}
	return systemID, codeID, nil
}

// numberGenerator produces NumberRows.
type numberGenerator struct{}

func (numberGenerator) Kind() searchvalue.Kind { return searchvalue.KindNumber }

func (numberGenerator) TryGenerate(_ context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	nv, ok := v.(searchvalue.Number)
	if !ok {
		return nil, false, nil
	}
	return NumberRow{SearchParamID: paramID, Value: nv.Value}, true, nil
}

// uriGenerator produces URIRows.
type uriGenerator struct{}

func (uriGenerator) Kind() searchvalue.Kind { return searchvalue.KindURI }

func (uriGenerator) TryGenerate(_ context.Context, paramID SearchParamID, v searchvalue.SearchValue) (Row, bool, error) {
	uv, ok := v.(searchvalue.URI)
	if !ok || uv.Value == "" {
		return nil, false, nil
	}
	return URIRow{SearchParamID: paramID, URI: uv.Value}, true, nil
}
