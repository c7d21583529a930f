/*
handlers_test.go - HTTP tests for the solar API

Tests for:
- Envelope shape and status mapping (400/404/409)
- Project lifecycle over HTTP
- Production, metrics, BI and utility comparison end to end
- Demo scenario routes
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solar-engine/analytics"
	"github.com/warp/solar-engine/demo"
	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/metrics"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/rates"
	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/store/memory"
	"github.com/warp/solar-engine/tenant"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveUnit(ctx, solar.Unit{ID: "unit-1", Segments: []string{"solar"}}))
	require.NoError(t, store.SaveUnit(ctx, solar.Unit{ID: "unit-retail", Segments: []string{"retail"}}))

	clock := solar.FixedClock(testNow)
	guard := tenant.NewGuard(store, "")
	plants := lifecycle.NewManager(guard, store, lifecycle.WithClock(clock))
	samples := production.NewLedger(guard, store, production.WithClock(clock))
	contracts := distribution.NewLedger(guard, store, clock)
	engine := metrics.NewEngine(plants, samples, contracts, rates.NewTable(0.75, map[string]float64{"CE": 0.65, "CE-METRO": 0.70}), clock)

	h := NewHandler(plants, samples, contracts, engine, analytics.NewService(engine, samples), nil)
	h.Demo = demo.NewLoader(store, plants, samples, contracts, clock)
	return NewRouter(h, nil)
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, srv http.Handler, method, path string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return rec.Code, resp
}

func decodeData[T any](t *testing.T, resp response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func createProject(t *testing.T, srv http.Handler) {
	t.Helper()
	code, resp := do(t, srv, http.MethodPost, "/api/solar/unit-1/project", map[string]any{
		"name":            "Usina Fortaleza",
		"capacityKW":      100,
		"totalInvestment": "500000",
		"costPerKWH":      "0.30",
		"location":        map[string]any{"latitude": -3.73, "longitude": -38.52, "state": "CE"},
		"totalPanels":     200,
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	require.True(t, resp.Success)
}

// =============================================================================
// PROJECT
// =============================================================================

func TestProject_CreateGetConflict(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodGet, "/api/solar/unit-1/project", nil)
	require.Equal(t, http.StatusOK, code)
	p := decodeData[ProjectDTO](t, resp)
	assert.Equal(t, "planning", p.CurrentPhase)
	assert.Equal(t, "100", p.CapacityKW.String())
	require.Len(t, p.Phases, 1)
	assert.Equal(t, "in_progress", p.Phases[0].Status)

	code, resp = do(t, srv, http.MethodPost, "/api/solar/unit-1/project", map[string]any{"name": "Again"})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestProject_GuardAndMissingPlant(t *testing.T) {
	srv := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet, "/api/solar/unit-retail/project", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)

	code, _ = do(t, srv, http.MethodGet, "/api/solar/unit-1/metrics", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProject_Validation(t *testing.T) {
	srv := newTestServer(t)

	code, resp := do(t, srv, http.MethodPost, "/api/solar/unit-1/project", map[string]any{"capacityKW": 10})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "Name")

	code, _ = do(t, srv, http.MethodPost, "/api/solar/unit-1/project", map[string]any{"name": "x", "costPerKWH": "-1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, srv, http.MethodPost, "/api/solar/unit-1/project", map[string]any{"name": "x", "unknownField": 1})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProject_UpdateAndPhaseTransitions(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodPut, "/api/solar/unit-1/project", map[string]any{"costPerKWH": "0.28"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, "0.28", decodeData[ProjectDTO](t, resp).CostPerKWH.String())

	code, _ = do(t, srv, http.MethodPost, "/api/solar/unit-1/project-phase", map[string]any{"phase": "licensing", "notes": "filed"})
	require.Equal(t, http.StatusOK, code)
	code, resp = do(t, srv, http.MethodPost, "/api/solar/unit-1/project-phase", map[string]any{"phase": "planning"})
	require.Equal(t, http.StatusOK, code)

	p := decodeData[ProjectDTO](t, resp)
	assert.Equal(t, "planning", p.CurrentPhase)
	require.Len(t, p.Phases, 3)
	assert.Equal(t, "completed", p.Phases[0].Status)
	assert.Equal(t, "completed", p.Phases[1].Status)
	assert.Equal(t, "filed", p.Phases[1].Notes)
	assert.Equal(t, "in_progress", p.Phases[2].Status)

	code, _ = do(t, srv, http.MethodPost, "/api/solar/unit-1/project-phase", map[string]any{"phase": "demolition"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProject_ClearUtilityOverride(t *testing.T) {
	// GIVEN: A CE plant whose utility rate was overridden to 0.90
	// WHEN: The override is cleared through the update endpoint
	// THEN: Metrics fall back to the regional CE rate

	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodPut, "/api/solar/unit-1/project", map[string]any{"utilityCostPerKWH": "0.90"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	require.NotNil(t, decodeData[ProjectDTO](t, resp).UtilityCostPerKWH)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "override", decodeData[MetricsDTO](t, resp).UtilityRateSource)

	code, resp = do(t, srv, http.MethodPut, "/api/solar/unit-1/project", map[string]any{"clearUtilityCostPerKWH": true})
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Nil(t, decodeData[ProjectDTO](t, resp).UtilityCostPerKWH)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	m := decodeData[MetricsDTO](t, resp)
	assert.Equal(t, "region", m.UtilityRateSource)
	assert.Equal(t, "0.65", m.UtilityCostPerKWH.String())
}

func TestProject_LongRegionCode(t *testing.T) {
	// GIVEN: A rate table with a region code longer than two letters
	// WHEN: A plant is created in that region
	// THEN: The create succeeds and metrics resolve the regional rate

	srv := newTestServer(t)

	code, resp := do(t, srv, http.MethodPost, "/api/solar/unit-1/project", map[string]any{
		"name":       "Usina Metro",
		"capacityKW": 50,
		"costPerKWH": "0.30",
		"location":   map[string]any{"state": "ce-metro"},
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/metrics", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	m := decodeData[MetricsDTO](t, resp)
	assert.Equal(t, "region", m.UtilityRateSource)
	assert.Equal(t, "0.7", m.UtilityCostPerKWH.String())
}

func TestProject_Delete(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, _ := do(t, srv, http.MethodDelete, "/api/solar/unit-1/project", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, srv, http.MethodGet, "/api/solar/unit-1/equipment", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, srv, http.MethodDelete, "/api/solar/unit-1/project", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEquipment(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodPut, "/api/solar/unit-1/equipment", map[string]any{"inverters": "maintenance", "activePanels": 190})
	require.Equal(t, http.StatusOK, code, resp.Error)
	eq := decodeData[EquipmentDTO](t, resp)
	assert.Equal(t, "maintenance", eq.Inverters)
	assert.Equal(t, 190, eq.ActivePanels)

	code, _ = do(t, srv, http.MethodPut, "/api/solar/unit-1/equipment", map[string]any{"panels": "broken"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, srv, http.MethodPut, "/api/solar/unit-1/equipment", map[string]any{"activePanels": 999})
	assert.Equal(t, http.StatusBadRequest, code)
}

// =============================================================================
// PRODUCTION / METRICS / BI
// =============================================================================

func TestMetrics_EndToEnd(t *testing.T) {
	// GIVEN: A CE plant (100 kW, 500000 invested, cost 0.30)
	// WHEN: One 80 kW / 80 kWh sample is posted and metrics requested
	// THEN: Savings 28 and ROI 0.0672 come back in the envelope

	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodPost, "/api/solar/unit-1/production", map[string]any{
		"timestamp":     testNow.Add(-time.Hour).Format(time.RFC3339),
		"productionKW":  80,
		"productionKWH": 80,
		"efficiency":    80,
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	assert.NotEmpty(t, decodeData[SampleDTO](t, resp).ID)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/metrics", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	m := decodeData[MetricsDTO](t, resp)
	assert.Equal(t, "80", m.CurrentPowerKW.String())
	assert.Equal(t, "80", m.EfficiencyPercentage.String())
	assert.Equal(t, "80", m.MonthlyKWH.String())
	assert.Equal(t, "28", m.SavingsVsUtility.String())
	assert.Equal(t, "0.0672", m.ROIPercentage.String())
	assert.Equal(t, "region", m.UtilityRateSource)
	assert.Equal(t, "operational", m.Equipment.Panels)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/production?limit=10", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]SampleDTO](t, resp), 1)

	code, _ = do(t, srv, http.MethodGet, "/api/solar/unit-1/production?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProduction_UnencodedOffsetInRange(t *testing.T) {
	// GIVEN: One sample at 11:30 UTC
	// WHEN: Listing with from/to carrying a raw "+03:00" offset (decoded as a space)
	// THEN: The offset is honored instead of rejected

	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodPost, "/api/solar/unit-1/production", map[string]any{
		"timestamp":     "2025-03-15T11:30:00Z",
		"productionKW":  5,
		"productionKWH": 5,
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)

	// 14:00+03:00 is 11:00 UTC, 15:00+03:00 is 12:00 UTC.
	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/production?from=2025-03-15T14:00:00+03:00&to=2025-03-15T15:00:00+03:00", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Len(t, decodeData[[]SampleDTO](t, resp), 1)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/production?from=2025-03-15T15:00:00+03:00", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Empty(t, decodeData[[]SampleDTO](t, resp))
}

func TestBI_UnboundedPaybackIsNull(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodGet, "/api/solar/unit-1/bi?period=week", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &raw))
	assert.Nil(t, raw["paybackMonths"])
	assert.Equal(t, true, raw["paybackUnbounded"])
	assert.Equal(t, "stable", raw["productionTrend"])
	assert.Equal(t, "week", raw["period"])

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/bi?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
}

func TestUtilityComparison(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodGet, "/api/solar/unit-1/utility-comparison?state=SP", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	c := decodeData[UtilityComparisonDTO](t, resp)
	assert.Equal(t, "SP", c.State)
	assert.Equal(t, "0.75", c.UtilityRate.String())
	assert.Equal(t, "default", c.UtilityRateSource)
	assert.Equal(t, "60", c.SavingsPercentage.String())
}

// =============================================================================
// DISTRIBUTION
// =============================================================================

func TestDistribution(t *testing.T) {
	srv := newTestServer(t)
	createProject(t, srv)

	code, resp := do(t, srv, http.MethodPost, "/api/solar/unit-1/distribution", map[string]any{
		"counterparty": "Associação Vila Verde",
		"startDate":    testNow.Format(time.RFC3339),
		"monthlyKWH":   500,
		"pricePerKWH":  "0.25",
	})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	c := decodeData[ContractDTO](t, resp)
	assert.Equal(t, "pending", c.Status)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/distribution?status=active", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decodeData[[]ContractDTO](t, resp))

	code, resp = do(t, srv, http.MethodPatch, "/api/solar/unit-1/distribution/"+c.ID, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = do(t, srv, http.MethodGet, "/api/solar/unit-1/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "500", decodeData[MetricsDTO](t, resp).DistributionToAssociations.String())

	code, _ = do(t, srv, http.MethodPatch, "/api/solar/unit-1/distribution/missing", map[string]any{"status": "active"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, srv, http.MethodGet, "/api/solar/unit-1/distribution?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

// =============================================================================
// HEALTH / SCENARIOS
// =============================================================================

func TestHealthz(t *testing.T) {
	code, resp := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestScenarios(t *testing.T) {
	srv := newTestServer(t)

	code, resp := do(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decodeData[[]demo.Scenario](t, resp))

	code, resp = do(t, srv, http.MethodPost, "/api/scenarios/load", map[string]any{"scenarioId": "new-plant"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	loaded := decodeData[LoadScenarioResponse](t, resp)
	assert.Equal(t, "demo-new-plant", loaded.TenantID)

	code, _ = do(t, srv, http.MethodGet, "/api/solar/demo-new-plant/project", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, srv, http.MethodPost, "/api/scenarios/load", map[string]any{"scenarioId": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
}
