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

const paymentColumns = `id, payment_reference, booking_id, customer_id, amount, currency,
	status, payment_method, transaction_id, processing_fee, notes,
	COALESCE(refund_of_id, 0), payment_date, created_at, updated_at`

type PaymentRepository struct{}

func (PaymentRepository) scan(row interface{ Scan(...any) error }) (models.Payment, error) {
	var (
		p           models.Payment
		status      string
		paymentDate sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.PaymentReference, &p.BookingID, &p.CustomerID, &p.Amount, &p.Currency,
		&status, &p.PaymentMethod, &p.TransactionID, &p.ProcessingFee, &p.Notes,
		&p.RefundOfID, &paymentDate, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return models.Payment{}, err
	}
	p.Status = domain.Status(status)
	if paymentDate.Valid {
		t := paymentDate.Time
		p.PaymentDate = &t
	}
	return p, nil
}

func (r PaymentRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Payment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=?`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, err
}

func (r PaymentRepository) GetByIDForUpdate(ctx context.Context, q db.Queryer, id int64) (models.Payment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=? FOR UPDATE`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, err
}

func (r PaymentRepository) Create(ctx context.Context, q db.Queryer, p models.Payment) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO payments
			(payment_reference, booking_id, customer_id, amount, currency, status,
			 payment_method, transaction_id, processing_fee, notes, refund_of_id, payment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PaymentReference, p.BookingID, p.CustomerID, p.Amount, p.Currency, string(p.Status),
		p.PaymentMethod, p.TransactionID, p.ProcessingFee, p.Notes, nullID(p.RefundOfID), p.PaymentDate,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r PaymentRepository) MarkCompleted(ctx context.Context, q db.Queryer, id int64, transactionID string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE payments SET status=?, transaction_id=IF(?='', transaction_id, ?), payment_date=?
		WHERE id=?`,
		string(domain.PaymentCompleted), transactionID, transactionID, at, id)
	return err
}

func (r PaymentRepository) UpdateStatus(ctx context.Context, q db.Queryer, id int64, status domain.Status, notes string) error {
	_, err := q.ExecContext(ctx, `UPDATE payments SET status=?, notes=IF(?='', notes, ?) WHERE id=?`,
		string(status), notes, notes, id)
	return err
}

func (r PaymentRepository) LastReferenceForUpdate(ctx context.Context, q db.Queryer, monthPrefix string) (string, error) {
	var ref string
	err := q.QueryRowContext(ctx, `
		SELECT payment_reference FROM payments
		WHERE payment_reference LIKE ?
		ORDER BY payment_reference DESC LIMIT 1 FOR UPDATE`, monthPrefix+"%").Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return ref, err
}

func (r PaymentRepository) ListByBooking(ctx context.Context, q db.Queryer, bookingID int64) ([]models.Payment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE booking_id=? ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r PaymentRepository) List(ctx context.Context, q db.Queryer, status string, customerID int64, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
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
	return r.collect(rows)
}

// ListPendingOlderThan powers the overdue-payments scanner.
func (r PaymentRepository) ListPendingOlderThan(ctx context.Context, q db.Queryer, cutoff time.Time) ([]models.Payment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status=? AND created_at < ?
		ORDER BY created_at`,
		string(domain.PaymentPending), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r PaymentRepository) collect(rows *sql.Rows) ([]models.Payment, error) {
	var out []models.Payment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
