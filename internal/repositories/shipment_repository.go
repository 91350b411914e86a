package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"autoship/internal/db"
	"autoship/internal/domain"
	"autoship/internal/domain/models"
)

const shipmentColumns = `id, tracking_number, booking_id, status, current_location,
	departure_date, estimated_arrival, actual_arrival, delayed_from, created_at, updated_at`

type ShipmentRepository struct{}

func (ShipmentRepository) scan(row interface{ Scan(...any) error }) (models.Shipment, error) {
	var (
		s           models.Shipment
		status      string
		delayedFrom string
		departure   sql.NullTime
		estimated   sql.NullTime
		actual      sql.NullTime
	)
	if err := row.Scan(
		&s.ID, &s.TrackingNumber, &s.BookingID, &status, &s.CurrentLocation,
		&departure, &estimated, &actual, &delayedFrom, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return models.Shipment{}, err
	}
	s.Status = domain.Status(status)
	s.DelayedFrom = domain.Status(delayedFrom)
	if departure.Valid {
		t := departure.Time
		s.DepartureDate = &t
	}
	if estimated.Valid {
		t := estimated.Time
		s.EstimatedArrival = &t
	}
	if actual.Valid {
		t := actual.Time
		s.ActualArrival = &t
	}
	return s, nil
}

func (r ShipmentRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Shipment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id=?`, id)
	s, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, domain.NotFoundError{Resource: "shipment"}
	}
	return s, err
}

func (r ShipmentRepository) GetByIDForUpdate(ctx context.Context, q db.Queryer, id int64) (models.Shipment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id=? FOR UPDATE`, id)
	s, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, domain.NotFoundError{Resource: "shipment"}
	}
	return s, err
}

func (r ShipmentRepository) GetByBookingID(ctx context.Context, q db.Queryer, bookingID int64) (models.Shipment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE booking_id=?`, bookingID)
	s, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Shipment{}, domain.NotFoundError{Resource: "shipment"}
	}
	return s, err
}

func (r ShipmentRepository) Create(ctx context.Context, q db.Queryer, s models.Shipment) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO shipments
			(tracking_number, booking_id, status, current_location,
			 departure_date, estimated_arrival, delayed_from)
		VALUES (?, ?, ?, ?, ?, ?, '')`,
		s.TrackingNumber, s.BookingID, string(s.Status), s.CurrentLocation,
		s.DepartureDate, s.EstimatedArrival,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateStatus writes status plus the delay bookkeeping columns.
func (r ShipmentRepository) UpdateStatus(ctx context.Context, q db.Queryer, id int64, status, delayedFrom domain.Status, location string, actualArrival *time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE shipments
		SET status=?, delayed_from=?, current_location=IF(?='', current_location, ?),
		    actual_arrival=COALESCE(?, actual_arrival)
		WHERE id=?`,
		string(status), string(delayedFrom), location, location, actualArrival, id)
	return err
}

func (r ShipmentRepository) LastReferenceForUpdate(ctx context.Context, q db.Queryer, monthPrefix string) (string, error) {
	var ref string
	err := q.QueryRowContext(ctx, `
		SELECT tracking_number FROM shipments
		WHERE tracking_number LIKE ?
		ORDER BY tracking_number DESC LIMIT 1 FOR UPDATE`, monthPrefix+"%").Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return ref, err
}

// LastTrackingTimestamp returns the newest tracking event time, or zero when
// the shipment has no events yet.
func (r ShipmentRepository) LastTrackingTimestamp(ctx context.Context, q db.Queryer, shipmentID int64) (time.Time, error) {
	var ts sql.NullTime
	err := q.QueryRowContext(ctx, `
		SELECT MAX(ts) FROM shipment_tracking_updates WHERE shipment_id=?`, shipmentID).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}

func (r ShipmentRepository) AppendTrackingUpdate(ctx context.Context, q db.Queryer, u models.TrackingUpdate) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO shipment_tracking_updates (shipment_id, ts, location, status, description)
		VALUES (?, ?, ?, ?, ?)`,
		u.ShipmentID, u.Timestamp, u.Location, string(u.Status), u.Description)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r ShipmentRepository) ListTrackingUpdates(ctx context.Context, q db.Queryer, shipmentID int64) ([]models.TrackingUpdate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, shipment_id, ts, location, status, description
		FROM shipment_tracking_updates WHERE shipment_id=? ORDER BY ts, id`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrackingUpdate
	for rows.Next() {
		var (
			u      models.TrackingUpdate
			status string
		)
		if err := rows.Scan(&u.ID, &u.ShipmentID, &u.Timestamp, &u.Location, &status, &u.Description); err != nil {
			return nil, err
		}
		u.Status = domain.Status(status)
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListDelayCandidates returns moving shipments past their ETA plus those
// already flagged delayed.
func (r ShipmentRepository) ListDelayCandidates(ctx context.Context, q db.Queryer, now time.Time) ([]models.Shipment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+shipmentColumns+` FROM shipments
		WHERE status=?
		   OR (status IN (?, ?) AND estimated_arrival IS NOT NULL AND estimated_arrival < ?)
		ORDER BY estimated_arrival`,
		string(domain.ShipmentDelayed),
		string(domain.ShipmentInTransit), string(domain.ShipmentCustoms), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Shipment
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
