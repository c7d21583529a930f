/*
scenarios.go - Demo scenario loaders for development and demonstrations

PURPOSE:
  Populates a tenant with realistic data so the dashboard and the BI
  endpoints have something to show. Each scenario owns one tenant
  ("demo-<scenario id>"), registers its unit, and rebuilds the plant from
  scratch on every load.

AVAILABLE SCENARIOS:
  new-plant:         Planning phase, no production yet
  operating-plant:   In operation, 30 days of hourly production
  association-hub:   Operating plant reselling energy to associations
  ramp-up:           Production and efficiency rising over 90 days

HOW SCENARIOS WORK:
  1. Register the demo unit with the solar segment
  2. Delete any existing plant for that tenant (cascade)
  3. Create the plant and walk its phases
  4. Record samples and contracts

NOTE:
  Loading a scenario destroys the demo tenant's data. Only use in
  development/demo environments.
*/
package demo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/solar"
)

// UnitRegistrar writes tenant directory records.
type UnitRegistrar interface {
	SaveUnit(ctx context.Context, u solar.Unit) error
}

type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []Scenario{
	{ID: "new-plant", Name: "New Plant", Description: "Plant in planning with licensing and procurement ahead"},
	{ID: "operating-plant", Name: "Operating Plant", Description: "100 kW plant in operation with 30 days of hourly production"},
	{ID: "association-hub", Name: "Association Hub", Description: "Operating plant with active resale contracts to local associations"},
	{ID: "ramp-up", Name: "Ramp-Up", Description: "Newly commissioned plant whose output and efficiency rise over 90 days"},
}

// Scenarios lists the available scenarios.
func Scenarios() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// TenantFor is the tenant a scenario loads into.
func TenantFor(id string) solar.TenantID {
	return solar.TenantID("demo-" + id)
}

type Loader struct {
	units     UnitRegistrar
	plants    *lifecycle.Manager
	samples   *production.Ledger
	contracts *distribution.Ledger
	clock     solar.Clock
}

func NewLoader(units UnitRegistrar, plants *lifecycle.Manager, samples *production.Ledger, contracts *distribution.Ledger, clock solar.Clock) *Loader {
	if clock == nil {
		clock = solar.SystemClock(time.UTC)
	}
	return &Loader{units: units, plants: plants, samples: samples, contracts: contracts, clock: clock}
}

// Load rebuilds the scenario's tenant and returns it.
func (l *Loader) Load(ctx context.Context, id string) (solar.TenantID, error) {
	var load func(context.Context, solar.TenantID) error
	switch id {
	case "new-plant":
		load = l.loadNewPlant
	case "operating-plant":
		load = l.loadOperatingPlant
	case "association-hub":
		load = l.loadAssociationHub
	case "ramp-up":
		load = l.loadRampUp
	default:
		return "", &solar.InvalidValueError{Field: "scenario", Value: id, Err: solar.ErrInvalidValue}
	}

	t := TenantFor(id)
	if err := l.reset(ctx, t); err != nil {
		return "", err
	}
	if err := load(ctx, t); err != nil {
		return "", fmt.Errorf("load scenario %s: %w", id, err)
	}
	return t, nil
}

func (l *Loader) reset(ctx context.Context, t solar.TenantID) error {
	if err := l.units.SaveUnit(ctx, solar.Unit{ID: t, Name: "Demo " + string(t), Segments: []string{"solar"}}); err != nil {
		return err
	}
	if err := l.plants.DeletePlant(ctx, t); err != nil && !solar.IsNotFound(err) {
		return err
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (l *Loader) loadNewPlant(ctx context.Context, t solar.TenantID) error {
	_, err := l.plants.CreatePlant(ctx, t, lifecycle.PlantAttrs{
		Name:            "Usina Comunitária Sobral",
		CapacityKW:      decimal.NewFromInt(75),
		AreaM2:          decimal.NewFromInt(600),
		PlannedPhases:   []solar.Phase{solar.PhaseLicensing, solar.PhaseProcurement, solar.PhaseInstallation, solar.PhaseOperation},
		PhaseNotes:      "Site survey scheduled",
		TotalInvestment: decimal.NewFromInt(380000),
		CostPerKWH:      decimal.RequireFromString("0.32"),
		Location:        solar.Location{Latitude: -3.6861, Longitude: -40.3497, City: "Sobral", State: "CE"},
		TotalPanels:     140,
	})
	return err
}

func (l *Loader) loadOperatingPlant(ctx context.Context, t solar.TenantID) error {
	if err := l.operatingPlant(ctx, t, "Usina Fortaleza Leste", 100); err != nil {
		return err
	}
	return l.recordDays(ctx, t, 100, 30, func(day int) float64 { return 1 }, func(day int) float64 { return 82 })
}

func (l *Loader) loadAssociationHub(ctx context.Context, t solar.TenantID) error {
	if err := l.operatingPlant(ctx, t, "Usina Associativa Caucaia", 250); err != nil {
		return err
	}
	if err := l.recordDays(ctx, t, 250, 30, func(int) float64 { return 1 }, func(int) float64 { return 80 }); err != nil {
		return err
	}

	start := solar.StartOfMonth(l.clock()).AddDate(0, -2, 0)
	for _, c := range []distribution.Terms{
		{Counterparty: "Associação de Moradores do Pecém", CounterpartyID: "assoc-pecem", MonthlyKWH: decimal.NewFromInt(4000), PricePerKWH: decimal.RequireFromString("0.48"), Status: solar.ContractActive},
		{Counterparty: "Cooperativa Pesqueira Icaraí", CounterpartyID: "coop-icarai", MonthlyKWH: decimal.NewFromInt(2500), PricePerKWH: decimal.RequireFromString("0.50"), Status: solar.ContractActive},
		{Counterparty: "Escola Municipal Tabuba", CounterpartyID: "escola-tabuba", MonthlyKWH: decimal.NewFromInt(1200), PricePerKWH: decimal.RequireFromString("0.45")},
	} {
		c.StartDate = start
		if _, err := l.contracts.Create(ctx, t, c); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadRampUp(ctx context.Context, t solar.TenantID) error {
	if err := l.operatingPlant(ctx, t, "Usina Juazeiro Norte", 150); err != nil {
		return err
	}
	const days = 90
	return l.recordDays(ctx, t, 150, days,
		func(day int) float64 { return 0.55 + 0.45*float64(day)/days },
		func(day int) float64 { return 70 + 15*float64(day)/days },
	)
}

// operatingPlant creates a plant and walks it through every phase.
func (l *Loader) operatingPlant(ctx context.Context, t solar.TenantID, name string, capacityKW int64) error {
	installed := l.clock().AddDate(-1, 0, 0)
	_, err := l.plants.CreatePlant(ctx, t, lifecycle.PlantAttrs{
		Name:             name,
		CapacityKW:       decimal.NewFromInt(capacityKW),
		AreaM2:           decimal.NewFromInt(capacityKW * 8),
		InstallationDate: &installed,
		TotalInvestment:  decimal.NewFromInt(capacityKW * 5000),
		CostPerKWH:       decimal.RequireFromString("0.30"),
		Location:         solar.Location{Latitude: -3.7319, Longitude: -38.5267, City: "Fortaleza", State: "CE"},
		TotalPanels:      int(capacityKW * 2),
	})
	if err != nil {
		return err
	}
	for _, ph := range solar.Phases[1:] {
		if _, err := l.plants.TransitionPhase(ctx, t, ph, nil); err != nil {
			return err
		}
	}
	return nil
}

// recordDays writes hourly daylight samples for the last n days. scale
// and efficiency are evaluated per day (0 = oldest).
func (l *Loader) recordDays(ctx context.Context, t solar.TenantID, capacityKW float64, n int,
	scale func(day int) float64, efficiency func(day int) float64) error {
	rng := rand.New(rand.NewSource(int64(len(t))))
	today := solar.StartOfDay(l.clock())

	for day := 0; day < n; day++ {
		date := today.AddDate(0, 0, day-n)
		cloud := rng.Float64() * 0.3
		for hour := 6; hour <= 18; hour++ {
			sun := math.Sin(math.Pi * float64(hour-6) / 12)
			power := capacityKW * sun * scale(day) * (1 - cloud)
			_, err := l.samples.Record(ctx, t, solar.Sample{
				Timestamp:  date.Add(time.Duration(hour) * time.Hour),
				PowerKW:    decimal.NewFromFloat(power).Round(3),
				EnergyKWH:  decimal.NewFromFloat(power).Round(3),
				Efficiency: decimal.NewFromFloat(efficiency(day) - cloud*10).Round(2),
				Weather: &solar.Weather{
					TemperatureC: 26 + 6*sun,
					Irradiance:   math.Round(1000 * sun * (1 - cloud)),
					CloudCover:   math.Round(cloud * 100),
				},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
