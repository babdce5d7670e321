package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.AddRowsGenerated(7)
	m.AddRowsGenerated(3)
	m.IncValuesSkipped()
	m.IncIDsMinted()
	m.IncCacheHit()
	m.IncCacheHit()
	m.IncCacheMiss()

	snap := m.Snapshot()
	want := map[string]int64{
		"index_rows_generated_total":   10,
		"index_values_skipped_total":   1,
		"surrogate_ids_minted_total":   1,
		"surrogate_cache_hits_total":   2,
		"surrogate_cache_misses_total": 1,
	}
	for name, v := range want {
		if snap[name] != v {
			t.Errorf("%s = %d, want %d", name, snap[name], v)
		}
	}
}

func TestMetrics_HandlerExposition(t *testing.T) {
	m := NewMetrics()
	m.AddRowsGenerated(5)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := m.Handler()(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "# TYPE index_rows_generated_total counter") {
		t.Error("missing TYPE line for index_rows_generated_total")
	}
	if !strings.Contains(body, "index_rows_generated_total 5") {
		t.Errorf("missing counter value, body:\n%s", body)
	}

	// Output order is fixed.
	first := strings.Index(body, "index_rows_generated_total")
	last := strings.Index(body, "surrogate_cache_misses_total")
	if first < 0 || last < 0 || first > last {
		t.Error("counters not emitted in fixed order")
	}
}
