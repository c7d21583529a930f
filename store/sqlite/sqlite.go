/*
Package sqlite provides a SQLite-backed implementation of solar.Store.

PURPOSE:
  Persists plants, equipment status, production samples, distribution
  contracts and the tenant directory. The same SQL carries over to
  PostgreSQL with minor dialect changes.

KEY TABLES:
  plants:                 One document per tenant (phase history as JSON)
  equipment_status:       One row per tenant
  production_samples:     Append-only telemetry
  distribution_contracts: Energy-resale agreements
  units:                  Tenant directory mirror

APPEND-ONLY ENFORCEMENT:
  No UPDATE statements touch production_samples. Rows only leave through
  the DeletePlant cascade.

TIMESTAMPS:
  Sample timestamps are stored as unix nanoseconds so range filters compare
  numerically. Everything else is RFC3339 text.

CASCADE DELETE:
  DeletePlant removes all four entity kinds inside one SQL transaction.

OPTIMISTIC SAVES:
  SavePlant updates WHERE version = ?; zero affected rows on an existing
  plant means another writer got there first.

MIGRATION:
  Schema is managed by goose with embedded SQL files (migrations/).
  New() applies pending migrations.

USAGE:
  store, err := sqlite.New("./data/solar.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/solar"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Store implements solar.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ solar.Store = (*Store)(nil)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	s, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Open opens the database without touching the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies all pending goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, "migrations")
}

// SchemaVersion returns the applied goose version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.db)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// UNIT DIRECTORY
// =============================================================================

// SaveUnit upserts a tenant directory record.
func (s *Store) SaveUnit(ctx context.Context, u solar.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments, err := json.Marshal(u.Segments)
	if err != nil {
		return err
	}
	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO units (id, name, segments_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			segments_json = excluded.segments_json,
			updated_at = excluded.updated_at
	`, u.ID, u.Name, string(segments), now, now)
	return err
}

func (s *Store) GetUnit(ctx context.Context, tenant solar.TenantID) (*solar.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u        solar.Unit
		segments string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, segments_json FROM units WHERE id = ?", tenant,
	).Scan(&u.ID, &u.Name, &segments)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &solar.NotFoundError{Kind: "tenant", TenantID: tenant}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	if err := json.Unmarshal([]byte(segments), &u.Segments); err != nil {
		return nil, fmt.Errorf("failed to decode unit segments: %w", err)
	}
	return &u, nil
}

// =============================================================================
// PLANT STORE
// =============================================================================

const plantColumns = `tenant_id, name, capacity_kw, area_m2, installation_date, current_phase,
	phases_json, total_investment, cost_per_kwh, utility_cost_per_kwh,
	latitude, longitude, address, city, state, version, created_at, updated_at`

func (s *Store) GetPlant(ctx context.Context, tenant solar.TenantID) (*solar.Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+plantColumns+" FROM plants WHERE tenant_id = ?", tenant)
	p, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &solar.NotFoundError{Kind: "plant", TenantID: tenant}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) InsertPlant(ctx context.Context, p solar.Plant, eq solar.EquipmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	phases, err := json.Marshal(p.Phases)
	if err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO plants (`+plantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`,
		p.TenantID, p.Name, p.CapacityKW.String(), p.AreaM2.String(),
		nullTime(p.InstallationDate), p.CurrentPhase, string(phases),
		p.TotalInvestment.String(), p.CostPerKWH.String(), nullDecimal(p.UtilityCostPerKWH),
		p.Location.Latitude, p.Location.Longitude,
		nullString(p.Location.Address), nullString(p.Location.City), nullString(p.Location.State),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return solar.ErrConflict
		}
		return fmt.Errorf("failed to insert plant: %w", err)
	}

	if err := upsertEquipment(ctx, sqlTx, eq); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) SavePlant(ctx context.Context, p solar.Plant) (solar.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	phases, err := json.Marshal(p.Phases)
	if err != nil {
		return solar.Plant{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE plants SET
			name = ?, capacity_kw = ?, area_m2 = ?, installation_date = ?,
			current_phase = ?, phases_json = ?, total_investment = ?, cost_per_kwh = ?,
			utility_cost_per_kwh = ?, latitude = ?, longitude = ?, address = ?, city = ?,
			state = ?, version = version + 1, updated_at = ?
		WHERE tenant_id = ? AND version = ?
	`,
		p.Name, p.CapacityKW.String(), p.AreaM2.String(), nullTime(p.InstallationDate),
		p.CurrentPhase, string(phases), p.TotalInvestment.String(), p.CostPerKWH.String(),
		nullDecimal(p.UtilityCostPerKWH), p.Location.Latitude, p.Location.Longitude,
		nullString(p.Location.Address), nullString(p.Location.City), nullString(p.Location.State),
		formatTime(p.UpdatedAt), p.TenantID, p.Version,
	)
	if err != nil {
		return solar.Plant{}, fmt.Errorf("failed to save plant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return solar.Plant{}, err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plants WHERE tenant_id = ?", p.TenantID).Scan(&exists)
		if err != nil {
			return solar.Plant{}, err
		}
		if exists == 0 {
			return solar.Plant{}, &solar.NotFoundError{Kind: "plant", TenantID: p.TenantID}
		}
		return solar.Plant{}, solar.ErrConcurrentModification
	}
	p.Version++
	return p, nil
}

// DeletePlant removes every record the tenant owns in one transaction.
func (s *Store) DeletePlant(ctx context.Context, tenant solar.TenantID) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM plants WHERE tenant_id = ?", tenant)
		if err != nil {
			return fmt.Errorf("failed to delete plant: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &solar.NotFoundError{Kind: "plant", TenantID: tenant}
		}
		for _, table := range []string{"production_samples", "distribution_contracts", "equipment_status"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE tenant_id = ?", tenant); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Store) GetEquipment(ctx context.Context, tenant solar.TenantID) (*solar.EquipmentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		eq        solar.EquipmentStatus
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, panels, inverters, monitoring, total_panels, active_panels, updated_at
		FROM equipment_status WHERE tenant_id = ?
	`, tenant).Scan(&eq.TenantID, &eq.Panels, &eq.Inverters, &eq.Monitoring,
		&eq.TotalPanels, &eq.ActivePanels, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &solar.NotFoundError{Kind: "equipment", TenantID: tenant}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment status: %w", err)
	}
	eq.UpdatedAt = parseTime(updatedAt)
	return &eq, nil
}

func (s *Store) SaveEquipment(ctx context.Context, eq solar.EquipmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertEquipment(ctx, s.db, eq)
}

func upsertEquipment(ctx context.Context, db execer, eq solar.EquipmentStatus) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO equipment_status
		(tenant_id, panels, inverters, monitoring, total_panels, active_panels, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			panels = excluded.panels,
			inverters = excluded.inverters,
			monitoring = excluded.monitoring,
			total_panels = excluded.total_panels,
			active_panels = excluded.active_panels,
			updated_at = excluded.updated_at
	`, eq.TenantID, eq.Panels, eq.Inverters, eq.Monitoring,
		eq.TotalPanels, eq.ActivePanels, formatTime(eq.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save equipment status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*solar.Plant, error) {
	var (
		p                            solar.Plant
		capacity, area, invest, cost string
		installDate, utilityCost     sql.NullString
		address, city, state         sql.NullString
		phases, createdAt, updatedAt string
	)
	err := row.Scan(
		&p.TenantID, &p.Name, &capacity, &area, &installDate, &p.CurrentPhase,
		&phases, &invest, &cost, &utilityCost,
		&p.Location.Latitude, &p.Location.Longitude, &address, &city, &state,
		&p.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.CapacityKW, err = decimal.NewFromString(capacity); err != nil {
		return nil, fmt.Errorf("bad capacity_kw: %w", err)
	}
	if p.AreaM2, err = decimal.NewFromString(area); err != nil {
		return nil, fmt.Errorf("bad area_m2: %w", err)
	}
	if p.TotalInvestment, err = decimal.NewFromString(invest); err != nil {
		return nil, fmt.Errorf("bad total_investment: %w", err)
	}
	if p.CostPerKWH, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("bad cost_per_kwh: %w", err)
	}
	if utilityCost.Valid {
		d, err := decimal.NewFromString(utilityCost.String)
		if err != nil {
			return nil, fmt.Errorf("bad utility_cost_per_kwh: %w", err)
		}
		p.UtilityCostPerKWH = &d
	}
	if installDate.Valid {
		t := parseTime(installDate.String)
		p.InstallationDate = &t
	}
	if err := json.Unmarshal([]byte(phases), &p.Phases); err != nil {
		return nil, fmt.Errorf("bad phases_json: %w", err)
	}
	p.Location.Address = address.String
	p.Location.City = city.String
	p.Location.State = state.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// =============================================================================
// SAMPLE STORE (append-only)
// =============================================================================

func (s *Store) AppendSample(ctx context.Context, smp solar.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var weather sql.NullString
	if smp.Weather != nil {
		b, err := json.Marshal(smp.Weather)
		if err != nil {
			return err
		}
		weather = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO production_samples
		(id, tenant_id, recorded_at, power_kw, energy_kwh, efficiency, weather_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		smp.ID, smp.TenantID, smp.Timestamp.UnixNano(),
		smp.PowerKW.String(), smp.EnergyKWH.String(), smp.Efficiency.String(),
		weather, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to append sample: %w", err)
	}
	return nil
}

const sampleColumns = "id, tenant_id, recorded_at, power_kw, energy_kwh, efficiency, weather_json"

func (s *Store) LoadSamples(ctx context.Context, tenant solar.TenantID, q solar.SampleQuery) ([]solar.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where = []string{"tenant_id = ?"}
		args  = []any{tenant}
	)
	if q.From != nil {
		where = append(where, "recorded_at >= ?")
		args = append(args, q.From.UnixNano())
	}
	if q.To != nil {
		where = append(where, "recorded_at <= ?")
		args = append(args, q.To.UnixNano())
	}

	order := "recorded_at DESC, rowid DESC"
	if q.Ascending {
		order = "recorded_at ASC, rowid ASC"
	}
	query := "SELECT " + sampleColumns + " FROM production_samples WHERE " +
		strings.Join(where, " AND ") + " ORDER BY " + order
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []solar.Sample
	for rows.Next() {
		smp, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// SumEnergy re-scans the window every call; decimals are summed in Go
// because SQLite would round them through REAL.
func (s *Store) SumEnergy(ctx context.Context, tenant solar.TenantID, from, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT energy_kwh FROM production_samples
		WHERE tenant_id = ? AND recorded_at >= ? AND recorded_at < ?
	`, tenant, from.UnixNano(), to.UnixNano())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum energy: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bad energy_kwh %q: %w", v, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *Store) LatestSample(ctx context.Context, tenant solar.TenantID) (*solar.Sample, error) {
	samples, err := s.LoadSamples(ctx, tenant, solar.SampleQuery{Limit: 1})
	if err != nil || len(samples) == 0 {
		return nil, err
	}
	return &samples[0], nil
}

func scanSample(rows *sql.Rows) (solar.Sample, error) {
	var (
		smp                       solar.Sample
		recordedAt                int64
		power, energy, efficiency string
		weather                   sql.NullString
	)
	if err := rows.Scan(&smp.ID, &smp.TenantID, &recordedAt, &power, &energy, &efficiency, &weather); err != nil {
		return smp, fmt.Errorf("failed to scan sample: %w", err)
	}
	smp.Timestamp = time.Unix(0, recordedAt).UTC()
	smp.PowerKW = parseDecimal(power)
	smp.EnergyKWH = parseDecimal(energy)
	smp.Efficiency = parseDecimal(efficiency)
	if weather.Valid && weather.String != "" {
		var w solar.Weather
		if err := json.Unmarshal([]byte(weather.String), &w); err == nil {
			smp.Weather = &w
		}
	}
	return smp, nil
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

const contractColumns = `id, tenant_id, counterparty, counterparty_id, start_date, end_date,
	monthly_kwh, price_per_kwh, status, created_at, updated_at`

func (s *Store) InsertContract(ctx context.Context, c solar.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO distribution_contracts (`+contractColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.TenantID, c.Counterparty, nullString(c.CounterpartyID),
		formatTime(c.StartDate), nullTime(c.EndDate),
		c.MonthlyKWH.String(), c.PricePerKWH.String(), c.Status,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

func (s *Store) GetContract(ctx context.Context, tenant solar.TenantID, id string) (*solar.Contract, error) {
	contracts, err := s.queryContracts(ctx,
		"SELECT "+contractColumns+" FROM distribution_contracts WHERE tenant_id = ? AND id = ?",
		tenant, id)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, &solar.NotFoundError{Kind: "contract", TenantID: tenant, ID: id}
	}
	return &contracts[0], nil
}

func (s *Store) ListContracts(ctx context.Context, tenant solar.TenantID, status solar.ContractStatus) ([]solar.Contract, error) {
	if status == "" {
		return s.queryContracts(ctx,
			"SELECT "+contractColumns+" FROM distribution_contracts WHERE tenant_id = ? ORDER BY created_at, rowid",
			tenant)
	}
	return s.queryContracts(ctx,
		"SELECT "+contractColumns+" FROM distribution_contracts WHERE tenant_id = ? AND status = ? ORDER BY created_at, rowid",
		tenant, status)
}

func (s *Store) UpdateContract(ctx context.Context, c solar.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE distribution_contracts SET
			counterparty = ?, counterparty_id = ?, start_date = ?, end_date = ?,
			monthly_kwh = ?, price_per_kwh = ?, status = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`,
		c.Counterparty, nullString(c.CounterpartyID), formatTime(c.StartDate), nullTime(c.EndDate),
		c.MonthlyKWH.String(), c.PricePerKWH.String(), c.Status, formatTime(c.UpdatedAt),
		c.TenantID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &solar.NotFoundError{Kind: "contract", TenantID: c.TenantID, ID: c.ID}
	}
	return nil
}

func (s *Store) queryContracts(ctx context.Context, query string, args ...any) ([]solar.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []solar.Contract
	for rows.Next() {
		var (
			c                    solar.Contract
			counterpartyID       sql.NullString
			start                string
			end                  sql.NullString
			monthly, price       string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Counterparty, &counterpartyID, &start, &end,
			&monthly, &price, &c.Status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		c.CounterpartyID = counterpartyID.String
		c.StartDate = parseTime(start)
		if end.Valid {
			t := parseTime(end.String)
			c.EndDate = &t
		}
		c.MonthlyKWH = parseDecimal(monthly)
		c.PricePerKWH = parseDecimal(price)
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
