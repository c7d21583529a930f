/*
handlers.go - HTTP API handlers for the solar engine

PURPOSE:
  Exposes the lifecycle, production, distribution, metrics and analytics
  components over REST. Handles HTTP request/response, JSON, validation,
  and delegates to the domain packages.

REQUEST FLOW:
  1. Read the tenant from the path
  2. Decode and validate the body or query
  3. Call the component (every component runs the tenant guard first)
  4. Wrap the result in the envelope

ERROR HANDLING:
  Domain errors map to HTTP status in writeError:
  - 400: Validation errors, unknown phase/period/status
  - 404: Unknown or unentitled tenant, missing plant or contract
  - 409: Plant already exists, stale write
  - 500: Internal errors (message hidden, logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/analytics"
	"github.com/warp/solar-engine/demo"
	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/logger"
	"github.com/warp/solar-engine/metrics"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/solar"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports storage health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Plants    *lifecycle.Manager
	Samples   *production.Ledger
	Contracts *distribution.Ledger
	Metrics   *metrics.Engine
	Analytics *analytics.Service
	Health    Pinger
	// Demo is optional; scenario routes are mounted only when set.
	Demo      *demo.Loader

	validate *validator.Validate
	log      *slog.Logger
}

func NewHandler(plants *lifecycle.Manager, samples *production.Ledger, contracts *distribution.Ledger,
	engine *metrics.Engine, bi *analytics.Service, health Pinger) *Handler {
	return &Handler{
		Plants:    plants,
		Samples:   samples,
		Contracts: contracts,
		Metrics:   engine,
		Analytics: bi,
		Health:    health,
		validate:  validator.New(),
		log:       logger.WithComponent("api"),
	}
}

func tenantParam(r *http.Request) solar.TenantID {
	return solar.TenantID(chi.URLParam(r, "tenant"))
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// GetProject returns the tenant's plant.
// GET /api/solar/{tenant}/project
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	plant, err := h.Plants.GetPlant(r.Context(), tenantParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(plant))
}

// CreateProject creates the tenant's plant.
// POST /api/solar/{tenant}/project
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := nonNegative(map[string]decimal.Decimal{
		"capacityKW": req.CapacityKW, "areaM2": req.AreaM2,
		"totalInvestment": req.TotalInvestment, "costPerKWH": req.CostPerKWH,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.UtilityCostPerKWH != nil && req.UtilityCostPerKWH.IsNegative() {
		h.writeError(w, r, invalid("utilityCostPerKWH", req.UtilityCostPerKWH.String()))
		return
	}

	planned := make([]solar.Phase, 0, len(req.PlannedPhases))
	for _, p := range req.PlannedPhases {
		planned = append(planned, solar.Phase(p))
	}

	plant, err := h.Plants.CreatePlant(r.Context(), tenantParam(r), lifecycle.PlantAttrs{
		Name:              req.Name,
		CapacityKW:        req.CapacityKW,
		AreaM2:            req.AreaM2,
		InstallationDate:  req.InstallationDate,
		Phase:             solar.Phase(req.Phase),
		PlannedPhases:     planned,
		PhaseNotes:        req.PhaseNotes,
		TotalInvestment:   req.TotalInvestment,
		CostPerKWH:        req.CostPerKWH,
		UtilityCostPerKWH: req.UtilityCostPerKWH,
		Location:          req.Location.toDomain(),
		TotalPanels:       req.TotalPanels,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(plant))
}

// UpdateProject merges the supplied fields into the plant.
// PUT /api/solar/{tenant}/project
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	for field, v := range map[string]*decimal.Decimal{
		"capacityKW": req.CapacityKW, "areaM2": req.AreaM2, "totalInvestment": req.TotalInvestment,
		"costPerKWH": req.CostPerKWH, "utilityCostPerKWH": req.UtilityCostPerKWH,
	} {
		if v != nil && v.IsNegative() {
			h.writeError(w, r, invalid(field, v.String()))
			return
		}
	}

	patch := lifecycle.PlantPatch{
		Name:              req.Name,
		CapacityKW:        req.CapacityKW,
		AreaM2:            req.AreaM2,
		InstallationDate:  req.InstallationDate,
		TotalInvestment:   req.TotalInvestment,
		CostPerKWH:        req.CostPerKWH,
		UtilityCostPerKWH: req.UtilityCostPerKWH,
		ClearUtilityCost:  req.ClearUtilityCostPerKWH,
	}
	if req.Location != nil {
		loc := req.Location.toDomain()
		patch.Location = &loc
	}

	plant, err := h.Plants.UpdatePlant(r.Context(), tenantParam(r), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(plant))
}

// DeleteProject removes the plant and everything attached to it.
// DELETE /api/solar/{tenant}/project
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	t := tenantParam(r)
	if err := h.Plants.DeletePlant(r.Context(), t); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tenantId": string(t), "status": "deleted"})
}

// TransitionPhase moves the plant to another phase.
// POST /api/solar/{tenant}/project-phase
func (h *Handler) TransitionPhase(w http.ResponseWriter, r *http.Request) {
	var req TransitionPhaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	phase, err := solar.ParsePhase(req.Phase)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	plant, err := h.Plants.TransitionPhase(r.Context(), tenantParam(r), phase, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(plant))
}

// =============================================================================
// EQUIPMENT HANDLERS
// =============================================================================

// GET /api/solar/{tenant}/equipment
func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	eq, err := h.Plants.Equipment(r.Context(), tenantParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEquipmentDTO(eq))
}

// PUT /api/solar/{tenant}/equipment
func (h *Handler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	var req UpdateEquipmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	patch := lifecycle.EquipmentPatch{
		Panels:       componentState(req.Panels),
		Inverters:    componentState(req.Inverters),
		Monitoring:   componentState(req.Monitoring),
		TotalPanels:  req.TotalPanels,
		ActivePanels: req.ActivePanels,
	}
	eq, err := h.Plants.UpdateEquipment(r.Context(), tenantParam(r), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEquipmentDTO(eq))
}

func componentState(s *string) *solar.ComponentState {
	if s == nil {
		return nil
	}
	cs := solar.ComponentState(*s)
	return &cs
}

// =============================================================================
// PRODUCTION HANDLERS
// =============================================================================

// ListProduction returns samples newest first.
// GET /api/solar/{tenant}/production?from=&to=&limit=
func (h *Handler) ListProduction(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTimeParam(q.Get("from"), "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := parseTimeParam(q.Get("to"), "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			h.writeError(w, r, invalid("limit", s))
			return
		}
	}

	samples, err := h.Samples.Samples(r.Context(), tenantParam(r), from, to, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]SampleDTO, len(samples))
	for i, s := range samples {
		dtos[i] = toSampleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordProduction appends one sample.
// POST /api/solar/{tenant}/production
func (h *Handler) RecordProduction(w http.ResponseWriter, r *http.Request) {
	var req RecordSampleRequest
	if !h.decode(w, r, &req) {
		return
	}

	sample := solar.Sample{
		PowerKW:    req.ProductionKW,
		EnergyKWH:  req.ProductionKWH,
		Efficiency: req.Efficiency,
	}
	if req.Timestamp != nil {
		sample.Timestamp = *req.Timestamp
	}
	if req.Weather != nil {
		sample.Weather = &solar.Weather{
			TemperatureC: req.Weather.TemperatureC,
			Irradiance:   req.Weather.Irradiance,
			CloudCover:   req.Weather.CloudCover,
		}
	}

	recorded, err := h.Samples.Record(r.Context(), tenantParam(r), sample)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSampleDTO(recorded))
}

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// GET /api/solar/{tenant}/metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Metrics.Compute(r.Context(), tenantParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMetricsDTO(m))
}

// GET /api/solar/{tenant}/bi?period=week|month|quarter|year
func (h *Handler) GetBI(w http.ResponseWriter, r *http.Request) {
	bi, err := h.Analytics.GetBIMetrics(r.Context(), tenantParam(r), r.URL.Query().Get("period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBIDTO(bi))
}

// GET /api/solar/{tenant}/utility-comparison?state=CE
func (h *Handler) GetUtilityComparison(w http.ResponseWriter, r *http.Request) {
	c, err := h.Analytics.GetUtilityComparison(r.Context(), tenantParam(r), r.URL.Query().Get("state"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(c))
}

// =============================================================================
// DISTRIBUTION HANDLERS
// =============================================================================

// ListDistribution returns contracts; ?status=active narrows to active ones.
// GET /api/solar/{tenant}/distribution
func (h *Handler) ListDistribution(w http.ResponseWriter, r *http.Request) {
	var (
		contracts []solar.Contract
		err       error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		contracts, err = h.Contracts.List(r.Context(), tenantParam(r))
	case string(solar.ContractActive):
		contracts, err = h.Contracts.ListActive(r.Context(), tenantParam(r))
	default:
		err = &solar.InvalidValueError{Field: "status", Value: status, Err: solar.ErrInvalidStatus}
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTOs(contracts))
}

// POST /api/solar/{tenant}/distribution
func (h *Handler) CreateDistribution(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := nonNegative(map[string]decimal.Decimal{
		"monthlyKWH": req.MonthlyKWH, "pricePerKWH": req.PricePerKWH,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.Contracts.Create(r.Context(), tenantParam(r), distribution.Terms{
		Counterparty:   req.Counterparty,
		CounterpartyID: req.CounterpartyID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		MonthlyKWH:     req.MonthlyKWH,
		PricePerKWH:    req.PricePerKWH,
		Status:         solar.ContractStatus(req.Status),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractDTO(c))
}

// PATCH /api/solar/{tenant}/distribution/{id}
func (h *Handler) UpdateDistribution(w http.ResponseWriter, r *http.Request) {
	var req UpdateContractRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Contracts.SetStatus(r.Context(), tenantParam(r), chi.URLParam(r, "id"), solar.ContractStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(c))
}

// =============================================================================
// HEALTH
// =============================================================================

// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Health.Ping(ctx); err != nil {
			h.log.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, Envelope{Success: false, Error: "storage unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body. On failure it has already
// written the response.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Envelope{Error: "invalid request body: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, err)
		return false
	}
	return true
}

func parseTimeParam(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	// An unencoded "+03:00" offset reaches us query-decoded as " 03:00".
	s = strings.ReplaceAll(s, " ", "+")
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	return nil, invalid(field, s)
}

func invalid(field, value string) error {
	return &solar.InvalidValueError{Field: field, Value: value, Err: solar.ErrInvalidValue}
}

func nonNegative(values map[string]decimal.Decimal) error {
	for field, v := range values {
		if v.IsNegative() {
			return invalid(field, v.String())
		}
	}
	return nil
}

// writeJSON wraps data in the success envelope unless it already is one.
func writeJSON(w http.ResponseWriter, status int, data any) {
	env, ok := data.(Envelope)
	if !ok {
		env = Envelope{Success: true, Data: data}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, Envelope{Error: validationMessage(verrs)})
	case solar.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, Envelope{Error: err.Error()})
	case solar.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, Envelope{Error: err.Error()})
	case solar.IsConflict(err):
		writeJSON(w, http.StatusConflict, Envelope{Error: err.Error()})
	default:
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, Envelope{Error: "internal server error"})
	}
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
