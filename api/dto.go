/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Money, energy and rates are decimals and serialize as JSON strings
  ("0.65"), so no precision is lost in transit. Requests accept either
  strings or numbers.

VALIDATION:
  Request structs carry go-playground/validator tags. Decimal ranges are
  checked in handlers (validator cannot compare decimal.Decimal).

ENVELOPE:
  Every response is {"success": true, "data": ...} or
  {"success": false, "error": "..."}.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/analytics"
	"github.com/warp/solar-engine/finance"
	"github.com/warp/solar-engine/metrics"
	"github.com/warp/solar-engine/solar"
)

// =============================================================================
// ENVELOPE
// =============================================================================

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// =============================================================================
// PROJECT
// =============================================================================

type LocationDTO struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty" validate:"omitempty,max=32,printascii"`
}

type CreateProjectRequest struct {
	Name              string           `json:"name" validate:"required,max=200"`
	CapacityKW        decimal.Decimal  `json:"capacityKW"`
	AreaM2            decimal.Decimal  `json:"areaM2"`
	InstallationDate  *time.Time       `json:"installationDate,omitempty"`
	Phase             string           `json:"phase,omitempty" validate:"omitempty,oneof=planning licensing procurement installation operation"`
	PlannedPhases     []string         `json:"plannedPhases,omitempty" validate:"omitempty,dive,oneof=planning licensing procurement installation operation"`
	PhaseNotes        string           `json:"phaseNotes,omitempty" validate:"max=2000"`
	TotalInvestment   decimal.Decimal  `json:"totalInvestment"`
	CostPerKWH        decimal.Decimal  `json:"costPerKWH"`
	UtilityCostPerKWH *decimal.Decimal `json:"utilityCostPerKWH,omitempty"`
	Location          LocationDTO      `json:"location"`
	TotalPanels       int              `json:"totalPanels" validate:"gte=0"`
}

// UpdateProjectRequest fields are all optional; absent means unchanged.
type UpdateProjectRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	CapacityKW        *decimal.Decimal `json:"capacityKW,omitempty"`
	AreaM2            *decimal.Decimal `json:"areaM2,omitempty"`
	InstallationDate  *time.Time       `json:"installationDate,omitempty"`
	TotalInvestment   *decimal.Decimal `json:"totalInvestment,omitempty"`
	CostPerKWH        *decimal.Decimal `json:"costPerKWH,omitempty"`
	UtilityCostPerKWH *decimal.Decimal `json:"utilityCostPerKWH,omitempty"`
	Location          *LocationDTO     `json:"location,omitempty"`

	// ClearUtilityCostPerKWH removes the override; the regional rate applies again.
	ClearUtilityCostPerKWH bool `json:"clearUtilityCostPerKWH,omitempty"`
}

type TransitionPhaseRequest struct {
	Phase string  `json:"phase" validate:"required"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type PhaseRecordDTO struct {
	Phase     string     `json:"phase"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

type ProjectDTO struct {
	TenantID          string           `json:"tenantId"`
	Name              string           `json:"name"`
	CapacityKW        decimal.Decimal  `json:"capacityKW"`
	AreaM2            decimal.Decimal  `json:"areaM2"`
	InstallationDate  *time.Time       `json:"installationDate,omitempty"`
	CurrentPhase      string           `json:"currentPhase"`
	Phases            []PhaseRecordDTO `json:"phases"`
	TotalInvestment   decimal.Decimal  `json:"totalInvestment"`
	CostPerKWH        decimal.Decimal  `json:"costPerKWH"`
	UtilityCostPerKWH *decimal.Decimal `json:"utilityCostPerKWH,omitempty"`
	Location          LocationDTO      `json:"location"`
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func toPhaseDTOs(records []solar.PhaseRecord) []PhaseRecordDTO {
	dtos := make([]PhaseRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = PhaseRecordDTO{
			Phase:     string(r.Phase),
			Status:    string(r.Status),
			StartedAt: r.StartedAt,
			EndedAt:   r.EndedAt,
			Notes:     r.Notes,
		}
	}
	return dtos
}

func toLocationDTO(l solar.Location) LocationDTO {
	return LocationDTO{Latitude: l.Latitude, Longitude: l.Longitude, Address: l.Address, City: l.City, State: l.State}
}

func (l LocationDTO) toDomain() solar.Location {
	return solar.Location{Latitude: l.Latitude, Longitude: l.Longitude, Address: l.Address, City: l.City, State: l.State}
}

func toProjectDTO(p *solar.Plant) ProjectDTO {
	return ProjectDTO{
		TenantID:          string(p.TenantID),
		Name:              p.Name,
		CapacityKW:        p.CapacityKW,
		AreaM2:            p.AreaM2,
		InstallationDate:  p.InstallationDate,
		CurrentPhase:      string(p.CurrentPhase),
		Phases:            toPhaseDTOs(p.Phases),
		TotalInvestment:   p.TotalInvestment,
		CostPerKWH:        p.CostPerKWH,
		UtilityCostPerKWH: p.UtilityCostPerKWH,
		Location:          toLocationDTO(p.Location),
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// =============================================================================
// EQUIPMENT
// =============================================================================

type EquipmentDTO struct {
	Panels       string    `json:"panels"`
	Inverters    string    `json:"inverters"`
	Monitoring   string    `json:"monitoring"`
	TotalPanels  int       `json:"totalPanels"`
	ActivePanels int       `json:"activePanels"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UpdateEquipmentRequest struct {
	Panels       *string `json:"panels,omitempty" validate:"omitempty,oneof=operational maintenance fault"`
	Inverters    *string `json:"inverters,omitempty" validate:"omitempty,oneof=operational maintenance fault"`
	Monitoring   *string `json:"monitoring,omitempty" validate:"omitempty,oneof=operational maintenance fault"`
	TotalPanels  *int    `json:"totalPanels,omitempty" validate:"omitempty,gte=0"`
	ActivePanels *int    `json:"activePanels,omitempty" validate:"omitempty,gte=0"`
}

func toEquipmentDTO(eq *solar.EquipmentStatus) EquipmentDTO {
	return EquipmentDTO{
		Panels:       string(eq.Panels),
		Inverters:    string(eq.Inverters),
		Monitoring:   string(eq.Monitoring),
		TotalPanels:  eq.TotalPanels,
		ActivePanels: eq.ActivePanels,
		UpdatedAt:    eq.UpdatedAt,
	}
}

// =============================================================================
// PRODUCTION
// =============================================================================

type WeatherDTO struct {
	TemperatureC float64 `json:"temperatureC"`
	Irradiance   float64 `json:"irradiance" validate:"gte=0"`
	CloudCover   float64 `json:"cloudCover" validate:"gte=0,lte=100"`
}

type RecordSampleRequest struct {
	Timestamp     *time.Time      `json:"timestamp,omitempty"`
	ProductionKW  decimal.Decimal `json:"productionKW"`
	ProductionKWH decimal.Decimal `json:"productionKWH"`
	Efficiency    decimal.Decimal `json:"efficiency"`
	Weather       *WeatherDTO     `json:"weather,omitempty"`
}

type SampleDTO struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	ProductionKW  decimal.Decimal `json:"productionKW"`
	ProductionKWH decimal.Decimal `json:"productionKWH"`
	Efficiency    decimal.Decimal `json:"efficiency"`
	Weather       *WeatherDTO     `json:"weather,omitempty"`
}

func toSampleDTO(s solar.Sample) SampleDTO {
	dto := SampleDTO{
		ID:            s.ID,
		Timestamp:     s.Timestamp,
		ProductionKW:  s.PowerKW,
		ProductionKWH: s.EnergyKWH,
		Efficiency:    s.Efficiency,
	}
	if s.Weather != nil {
		dto.Weather = &WeatherDTO{TemperatureC: s.Weather.TemperatureC, Irradiance: s.Weather.Irradiance, CloudCover: s.Weather.CloudCover}
	}
	return dto
}

// =============================================================================
// DISTRIBUTION
// =============================================================================

type CreateContractRequest struct {
	Counterparty   string          `json:"counterparty" validate:"required,max=200"`
	CounterpartyID string          `json:"counterpartyId,omitempty" validate:"max=100"`
	StartDate      time.Time       `json:"startDate" validate:"required"`
	EndDate        *time.Time      `json:"endDate,omitempty"`
	MonthlyKWH     decimal.Decimal `json:"monthlyKWH"`
	PricePerKWH    decimal.Decimal `json:"pricePerKWH"`
	Status         string          `json:"status,omitempty" validate:"omitempty,oneof=active pending expired cancelled"`
}

type UpdateContractRequest struct {
	Status string `json:"status" validate:"required,oneof=active pending expired cancelled"`
}

type ContractDTO struct {
	ID             string          `json:"id"`
	Counterparty   string          `json:"counterparty"`
	CounterpartyID string          `json:"counterpartyId,omitempty"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        *time.Time      `json:"endDate,omitempty"`
	MonthlyKWH     decimal.Decimal `json:"monthlyKWH"`
	PricePerKWH    decimal.Decimal `json:"pricePerKWH"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toContractDTO(c *solar.Contract) ContractDTO {
	return ContractDTO{
		ID:             c.ID,
		Counterparty:   c.Counterparty,
		CounterpartyID: c.CounterpartyID,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		MonthlyKWH:     c.MonthlyKWH,
		PricePerKWH:    c.PricePerKWH,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toContractDTOs(contracts []solar.Contract) []ContractDTO {
	dtos := make([]ContractDTO, len(contracts))
	for i := range contracts {
		dtos[i] = toContractDTO(&contracts[i])
	}
	return dtos
}

// =============================================================================
// METRICS / BI
// =============================================================================

type MetricsDTO struct {
	CurrentPowerKW             decimal.Decimal  `json:"currentPowerKW"`
	DailyKWH                   decimal.Decimal  `json:"dailyKWH"`
	MonthlyKWH                 decimal.Decimal  `json:"monthlyKWH"`
	YearlyKWH                  decimal.Decimal  `json:"yearlyKWH"`
	EfficiencyPercentage       decimal.Decimal  `json:"efficiencyPercentage"`
	DistributionToAssociations decimal.Decimal  `json:"distributionToAssociations"`
	CostPerKWH                 decimal.Decimal  `json:"costPerKWH"`
	UtilityCostPerKWH          decimal.Decimal  `json:"utilityCostPerKWH"`
	UtilityRateSource          string           `json:"utilityRateSource"`
	SavingsVsUtility           decimal.Decimal  `json:"savingsVsUtility"`
	ROIPercentage              decimal.Decimal  `json:"roiPercentage"`
	CurrentPhase               string           `json:"currentPhase"`
	Phases                     []PhaseRecordDTO `json:"phases"`
	Equipment                  EquipmentDTO     `json:"equipmentStatus"`
	AsOf                       time.Time        `json:"asOf"`
}

func toMetricsDTO(m *metrics.Metrics) MetricsDTO {
	return MetricsDTO{
		CurrentPowerKW:             m.CurrentPowerKW,
		DailyKWH:                   m.DailyKWH,
		MonthlyKWH:                 m.MonthlyKWH,
		YearlyKWH:                  m.YearlyKWH,
		EfficiencyPercentage:       m.EfficiencyPercentage,
		DistributionToAssociations: m.DistributionToAssociations,
		CostPerKWH:                 m.CostPerKWH,
		UtilityCostPerKWH:          m.UtilityCostPerKWH,
		UtilityRateSource:          string(m.UtilityRateSource),
		SavingsVsUtility:           m.SavingsVsUtility,
		ROIPercentage:              m.ROIPercentage,
		CurrentPhase:               string(m.CurrentPhase),
		Phases:                     toPhaseDTOs(m.Phases),
		Equipment:                  toEquipmentDTO(&m.Equipment),
		AsOf:                       m.AsOf,
	}
}

type UtilityComparisonDTO struct {
	State             string          `json:"state,omitempty"`
	UtilityRate       decimal.Decimal `json:"utilityRate"`
	UtilityRateSource string          `json:"utilityRateSource"`
	PlantRate         decimal.Decimal `json:"plantRate"`
	MonthlyKWH        decimal.Decimal `json:"monthlyKWH"`
	MonthlySavings    decimal.Decimal `json:"monthlySavings"`
	YearlySavings     decimal.Decimal `json:"yearlySavings"`
	SavingsPercentage decimal.Decimal `json:"savingsPercentage"`
}

func toComparisonDTO(c *analytics.Comparison) UtilityComparisonDTO {
	return UtilityComparisonDTO{
		State:             c.State,
		UtilityRate:       c.UtilityCostPerKWH,
		UtilityRateSource: string(c.UtilityRateSource),
		PlantRate:         c.PlantCostPerKWH,
		MonthlyKWH:        c.MonthlyKWH,
		MonthlySavings:    c.MonthlySavings,
		YearlySavings:     c.YearlySavings,
		SavingsPercentage: c.SavingsPercentage.Round(2),
	}
}

type BIDTO struct {
	Period            string               `json:"period"`
	From              time.Time            `json:"from"`
	AsOf              time.Time            `json:"asOf"`
	ROIPercentage     decimal.Decimal      `json:"roiPercentage"`
	PaybackMonths     finance.Payback      `json:"paybackMonths"`
	PaybackUnbounded  bool                 `json:"paybackUnbounded"`
	AverageDailyKWH   decimal.Decimal      `json:"averageDailyProduction"`
	AverageMonthlyKWH decimal.Decimal      `json:"averageMonthlyProduction"`
	SampleCount       int                  `json:"sampleCount"`
	ProductionTrend   string               `json:"productionTrend"`
	EfficiencyTrend   string               `json:"efficiencyTrend"`
	ActiveContracts   int                  `json:"activeContracts"`
	ContractRevenue   decimal.Decimal      `json:"contractRevenue"`
	UtilityComparison UtilityComparisonDTO `json:"utilityComparison"`
}

func toBIDTO(bi *analytics.BIMetrics) BIDTO {
	return BIDTO{
		Period:            string(bi.Period),
		From:              bi.From,
		AsOf:              bi.AsOf,
		ROIPercentage:     bi.ROIPercentage.Round(4),
		PaybackMonths:     bi.Payback,
		PaybackUnbounded:  bi.Payback.Unbounded,
		AverageDailyKWH:   bi.AverageDailyKWH.Round(3),
		AverageMonthlyKWH: bi.AverageMonthlyKWH.Round(3),
		SampleCount:       bi.SampleCount,
		ProductionTrend:   string(bi.ProductionTrend),
		EfficiencyTrend:   string(bi.EfficiencyTrend),
		ActiveContracts:   bi.ActiveContracts,
		ContractRevenue:   bi.ContractRevenue,
		UtilityComparison: toComparisonDTO(&bi.Utility),
	}
}
