package resource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinrepo/clinrepo/internal/index/searchvalue"
)

// WriteRequest is the write-path payload: the resource body plus the search
// values the extraction pipeline pulled out of it, keyed by search-parameter
// code.
type WriteRequest struct {
	Resource json.RawMessage             `json:"resource"`
	Search   map[string][]SearchValueDTO `json:"search"`
}

// SearchValueDTO is the wire form of one extracted search value.
type SearchValueDTO struct {
	Kind         string           `json:"kind"`
	System       string           `json:"system,omitempty"`
	Code         string           `json:"code,omitempty"`
	Value        *float64         `json:"value,omitempty"`
	Low          *float64         `json:"low,omitempty"`
	High         *float64         `json:"high,omitempty"`
	Start        *time.Time       `json:"start,omitempty"`
	End          *time.Time       `json:"end,omitempty"`
	ResourceType string           `json:"resource_type,omitempty"`
	ResourceID   string           `json:"resource_id,omitempty"`
	URI          string           `json:"uri,omitempty"`
	Text         string           `json:"text,omitempty"`
	Components   []SearchValueDTO `json:"components,omitempty"`
}

// ToSearchValue converts the DTO to its typed variant.
func (d SearchValueDTO) ToSearchValue() (searchvalue.SearchValue, error) {
	switch d.Kind {
	case "token":
		return searchvalue.Token{System: d.System, Code: d.Code}, nil
	case "quantity":
		return searchvalue.Quantity{System: d.System, Code: d.Code, Value: d.Value, Low: d.Low, High: d.High}, nil
	case "string":
		return searchvalue.String{Value: d.Text}, nil
	case "date":
		var start, end time.Time
		if d.Start != nil {
			start = *d.Start
		}
		if d.End != nil {
			end = *d.End
		}
		return searchvalue.Date{Start: start, End: end}, nil
	case "reference":
		return searchvalue.Reference{ResourceType: d.ResourceType, ResourceID: d.ResourceID}, nil
	case "uri":
		return searchvalue.URI{Value: d.URI}, nil
	case "number":
		if d.Value == nil {
			return nil, fmt.Errorf("number value requires a value")
		}
		return searchvalue.Number{Value: *d.Value}, nil
	case "composite":
		if len(d.Components) < 2 {
			return nil, fmt.Errorf("composite value requires at least 2 components, got %d", len(d.Components))
		}
		components := make([]searchvalue.SearchValue, len(d.Components))
		for i, c := range d.Components {
			if c.Kind == "composite" {
				return nil, fmt.Errorf("composite components cannot be nested")
			}
			sv, err := c.ToSearchValue()
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			components[i] = sv
		}
		return searchvalue.Composite{Components: components}, nil
	}
	return nil, fmt.Errorf("unknown search value kind %q", d.Kind)
}

// DecodeSearch converts the request's search map to typed values.
func (w *WriteRequest) DecodeSearch() (map[string][]searchvalue.SearchValue, error) {
	search := make(map[string][]searchvalue.SearchValue, len(w.Search))
	for code, dtos := range w.Search {
		values := make([]searchvalue.SearchValue, 0, len(dtos))
		for i, d := range dtos {
			sv, err := d.ToSearchValue()
			if err != nil {
				return nil, fmt.Errorf("search %q value %d: %w", code, i, err)
			}
			values = append(values, sv)
		}
		search[code] = values
	}
	return search, nil
}
