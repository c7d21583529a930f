/*
scenarios.go - Demo scenario endpoints

PURPOSE:
  Lets the dashboard list and load demo tenants during development.

  GET  /api/scenarios        List scenarios
  POST /api/scenarios/load   {"scenarioId": "operating-plant"}

  Routes exist only when the handler has a Loader (server --demo).

SEE ALSO:
  - demo/scenarios.go: Loaders
*/
package api

import (
	"net/http"

	"github.com/warp/solar-engine/demo"
)

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId" validate:"required"`
}

type LoadScenarioResponse struct {
	Scenario string `json:"scenario"`
	TenantID string `json:"tenantId"`
	Status   string `json:"status"`
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demo.Scenarios())
}

// LoadScenario rebuilds a demo tenant.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.Demo.Load(r.Context(), req.ScenarioID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info("scenario loaded", "scenario", req.ScenarioID, "tenant", t)
	writeJSON(w, http.StatusOK, LoadScenarioResponse{Scenario: req.ScenarioID, TenantID: string(t), Status: "loaded"})
}
