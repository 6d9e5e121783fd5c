// Package store reads work orders from PostgreSQL for indexing. It is the
// engine's record source: the same database the record-management
// application writes its customers, equipment, and tuning work orders to.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bambooty57/tunershop-search/internal/engine"
	apperr "github.com/bambooty57/tunershop-search/pkg/errors"
	"github.com/bambooty57/tunershop-search/pkg/postgres"
)

// Store fetches work orders with their customer and first tuning entry.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

// New creates a Store over an open Postgres client.
func New(client *postgres.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "workorder-store"),
	}
}

// Only the earliest tuning entry per work order contributes searchable
// fields, matching what the record-management UI shows on the order card.
const listQuery = `
SELECT w.id,
       COALESCE(c.name, ''),
       w.vehicle_model, w.license_number, w.engine_code,
       w.work_type, w.description, w.notes,
       w.created_at,
       t.stage, t.ecu_maker, t.ecu_model,
       t.software_version, t.hardware_version, t.work_date
FROM work_orders w
LEFT JOIN customers c ON c.id = w.customer_id
LEFT JOIN LATERAL (
    SELECT te.stage, te.ecu_maker, te.ecu_model,
           te.software_version, te.hardware_version, te.work_date
    FROM tuning_entries te
    WHERE te.work_order_id = w.id
    ORDER BY te.id
    LIMIT 1
) t ON TRUE`

// ListWorkOrders returns every work order, newest first.
func (s *Store) ListWorkOrders(ctx context.Context) ([]engine.WorkOrderRecord, error) {
	rows, err := s.client.DB.QueryContext(ctx, listQuery+" ORDER BY w.created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying work orders: %w", err)
	}
	defer rows.Close()

	var records []engine.WorkOrderRecord
	for rows.Next() {
		rec, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning work order: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work orders: %w", err)
	}
	s.logger.Debug("work orders fetched", "count", len(records))
	return records, nil
}

// GetWorkOrder returns a single work order by id, for incremental indexing
// after a change event.
func (s *Store) GetWorkOrder(ctx context.Context, id int64) (engine.WorkOrderRecord, error) {
	row := s.client.DB.QueryRowContext(ctx, listQuery+" WHERE w.id = $1", id)
	rec, err := scanWorkOrder(row)
	if err == sql.ErrNoRows {
		return engine.WorkOrderRecord{}, fmt.Errorf("%w: work order %d", apperr.ErrWorkOrderNotFound, id)
	}
	if err != nil {
		return engine.WorkOrderRecord{}, fmt.Errorf("fetching work order %d: %w", id, err)
	}
	return rec, nil
}

// CountWorkOrders returns the number of work orders in the database, used
// by health reporting to compare against the index.
func (s *Store) CountWorkOrders(ctx context.Context) (int, error) {
	var count int
	err := s.client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_orders`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting work orders: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (engine.WorkOrderRecord, error) {
	var (
		rec       engine.WorkOrderRecord
		customer  string
		vehicle   sql.NullString
		license   sql.NullString
		engCode   sql.NullString
		workType  sql.NullString
		descr     sql.NullString
		notes     sql.NullString
		createdAt time.Time
		stage     sql.NullString
		ecuMaker  sql.NullString
		ecuModel  sql.NullString
		swVer     sql.NullString
		hwVer     sql.NullString
		workDate  sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &customer,
		&vehicle, &license, &engCode,
		&workType, &descr, &notes,
		&createdAt,
		&stage, &ecuMaker, &ecuModel,
		&swVer, &hwVer, &workDate,
	)
	if err != nil {
		return engine.WorkOrderRecord{}, err
	}

	rec.CustomerName = customer
	rec.VehicleModel = vehicle.String
	rec.LicenseNumber = license.String
	rec.EngineCode = engCode.String
	rec.WorkType = workType.String
	rec.Description = descr.String
	rec.Notes = notes.String
	rec.CreatedAt = createdAt

	if stage.Valid || ecuMaker.Valid || ecuModel.Valid || swVer.Valid || hwVer.Valid || workDate.Valid {
		tuning := &engine.TuningEntry{
			Stage:           stage.String,
			ECUMaker:        ecuMaker.String,
			ECUModel:        ecuModel.String,
			SoftwareVersion: swVer.String,
			HardwareVersion: hwVer.String,
		}
		if workDate.Valid {
			tuning.WorkDate = workDate.Time.Format("2006-01-02")
		}
		rec.Tuning = tuning
	}
	return rec, nil
}
