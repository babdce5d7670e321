package telemetry

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

// Metrics collects engine counters. All methods are safe for concurrent use.
type Metrics struct {
	rowsGenerated atomic.Int64
	valuesSkipped atomic.Int64
	idsMinted     atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
}

// NewMetrics creates an empty Metrics set.
func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) AddRowsGenerated(n int) { m.rowsGenerated.Add(int64(n)) }
func (m *Metrics) IncValuesSkipped()      { m.valuesSkipped.Add(1) }
func (m *Metrics) IncIDsMinted()          { m.idsMinted.Add(1) }
func (m *Metrics) IncCacheHit()           { m.cacheHits.Add(1) }
func (m *Metrics) IncCacheMiss()          { m.cacheMisses.Add(1) }

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"index_rows_generated_total":   m.rowsGenerated.Load(),
		"index_values_skipped_total":   m.valuesSkipped.Load(),
		"surrogate_ids_minted_total":   m.idsMinted.Load(),
		"surrogate_cache_hits_total":   m.cacheHits.Load(),
		"surrogate_cache_misses_total": m.cacheMisses.Load(),
	}
}

// Handler exposes the counters in Prometheus text exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	// Fixed order keeps the output stable for scrapers and tests.
	names := []string{
		"index_rows_generated_total",
		"index_values_skipped_total",
		"surrogate_ids_minted_total",
		"surrogate_cache_hits_total",
		"surrogate_cache_misses_total",
	}
	return func(c echo.Context) error {
		snap := m.Snapshot()
		var out string
		for _, name := range names {
			out += fmt.Sprintf("# TYPE %s counter\n%s %d\n", name, name, snap[name])
		}
		return c.Blob(http.StatusOK, "text/plain; version=0.0.4", []byte(out))
	}
}
