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

const bookingColumns = `id, booking_reference, customer_id, COALESCE(quote_id, 0),
	COALESCE(vehicle_id, 0), route_id, status, total_amount, paid_amount, currency,
	recipient_name, recipient_phone, recipient_address, COALESCE(notes, ''),
	COALESCE(created_by, 0), deleted_at, deleted_reason, created_at, updated_at`

type BookingRepository struct{}

func (BookingRepository) scan(row interface{ Scan(...any) error }) (models.Booking, error) {
	var (
		b         models.Booking
		status    string
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&b.ID, &b.BookingReference, &b.CustomerID, &b.QuoteID,
		&b.VehicleID, &b.RouteID, &status, &b.TotalAmount, &b.PaidAmount, &b.Currency,
		&b.RecipientName, &b.RecipientPhone, &b.RecipientAddress, &b.Notes,
		&b.CreatedBy, &deletedAt, &b.DeletedReason, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return models.Booking{}, err
	}
	b.Status = domain.Status(status)
	if deletedAt.Valid {
		t := deletedAt.Time
		b.DeletedAt = &t
	}
	return b, nil
}

func (r BookingRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Booking, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? AND deleted_at IS NULL`, id)
	b, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, err
}

// GetByIDForUpdate locks the booking row; the ledger serializes on it.
func (r BookingRepository) GetByIDForUpdate(ctx context.Context, q db.Queryer, id int64) (models.Booking, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? AND deleted_at IS NULL FOR UPDATE`, id)
	b, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, err
}

func (r BookingRepository) ExistsForQuote(ctx context.Context, q db.Queryer, quoteID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE quote_id=?`, quoteID).Scan(&n)
	return n > 0, err
}

func (r BookingRepository) Create(ctx context.Context, q db.Queryer, b models.Booking) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO bookings
			(booking_reference, customer_id, quote_id, vehicle_id, route_id, status,
			 total_amount, paid_amount, currency, recipient_name, recipient_phone,
			 recipient_address, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		b.BookingReference, b.CustomerID, nullID(b.QuoteID), nullID(b.VehicleID),
		b.RouteID, string(b.Status), b.TotalAmount, b.Currency, b.RecipientName,
		b.RecipientPhone, b.RecipientAddress, b.Notes, nullID(b.CreatedBy),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r BookingRepository) UpdateStatus(ctx context.Context, q db.Queryer, id int64, status domain.Status) error {
	_, err := q.ExecContext(ctx, `UPDATE bookings SET status=? WHERE id=?`, string(status), id)
	return err
}

// AddPaid adjusts paid_amount by delta; clamped at zero for refunds.
func (r BookingRepository) AddPaid(ctx context.Context, q db.Queryer, id, delta int64) error {
	_, err := q.ExecContext(ctx, `UPDATE bookings SET paid_amount=GREATEST(paid_amount + ?, 0) WHERE id=?`, delta, id)
	return err
}

func (r BookingRepository) SoftDelete(ctx context.Context, q db.Queryer, id int64, reason string, at time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE bookings SET deleted_at=?, deleted_reason=? WHERE id=? AND deleted_at IS NULL`, at, reason, id)
	return err
}

func (r BookingRepository) LastReferenceForUpdate(ctx context.Context, q db.Queryer, monthPrefix string) (string, error) {
	var ref string
	err := q.QueryRowContext(ctx, `
		SELECT booking_reference FROM bookings
		WHERE booking_reference LIKE ?
		ORDER BY booking_reference DESC LIMIT 1 FOR UPDATE`, monthPrefix+"%").Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return ref, err
}

func (r BookingRepository) List(ctx context.Context, q db.Queryer, status string, customerID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE deleted_at IS NULL`
	args := []any{}
	if status != "" {
		query += ` AND status=?`
		args = append(args, status)
	}
	if customerID > 0 {
		query += ` AND customer_id=?`
		args = append(args, customerID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
