package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"autoship/internal/db"
	"autoship/internal/domain"
	"autoship/internal/domain/models"
)

const quoteColumns = `id, quote_reference, customer_id, route_id,
	COALESCE(vehicle_id, 0), COALESCE(vehicle_details, '{}'),
	base_price, COALESCE(additional_fees, '[]'), total_amount, currency,
	status, valid_until, COALESCE(notes, ''), COALESCE(created_by, 0),
	COALESCE(approved_by, 0), approved_at, created_at, updated_at`

type QuoteRepository struct{}

func (QuoteRepository) scan(row interface{ Scan(...any) error }) (models.Quote, error) {
	var (
		q          models.Quote
		details    []byte
		fees       []byte
		status     string
		approvedAt sql.NullTime
	)
	if err := row.Scan(
		&q.ID, &q.QuoteReference, &q.CustomerID, &q.RouteID,
		&q.VehicleID, &details,
		&q.BasePrice, &fees, &q.TotalAmount, &q.Currency,
		&status, &q.ValidUntil, &q.Notes, &q.CreatedBy,
		&q.ApprovedBy, &approvedAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return models.Quote{}, err
	}
	q.Status = domain.Status(status)
	if approvedAt.Valid {
		t := approvedAt.Time
		q.ApprovedAt = &t
	}
	_ = json.Unmarshal(details, &q.VehicleDetails)
	_ = json.Unmarshal(fees, &q.AdditionalFees)
	return q, nil
}

func (r QuoteRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Quote, error) {
	row := q.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=?`, id)
	quote, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Quote{}, domain.NotFoundError{Resource: "quote"}
	}
	return quote, err
}

// GetByIDForUpdate takes a row lock; call inside a transaction.
func (r QuoteRepository) GetByIDForUpdate(ctx context.Context, q db.Queryer, id int64) (models.Quote, error) {
	row := q.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=? FOR UPDATE`, id)
	quote, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Quote{}, domain.NotFoundError{Resource: "quote"}
	}
	return quote, err
}

func (r QuoteRepository) Create(ctx context.Context, q db.Queryer, quote models.Quote) (int64, error) {
	details, err := json.Marshal(quote.VehicleDetails)
	if err != nil {
		return 0, err
	}
	fees, err := json.Marshal(quote.AdditionalFees)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO quotes
			(quote_reference, customer_id, route_id, vehicle_details, base_price,
			 additional_fees, total_amount, currency, status, valid_until, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.QuoteReference, quote.CustomerID, quote.RouteID, details, quote.BasePrice,
		fees, quote.TotalAmount, quote.Currency, string(quote.Status), quote.ValidUntil,
		quote.Notes, nullID(quote.CreatedBy),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r QuoteRepository) UpdateStatus(ctx context.Context, q db.Queryer, id int64, status domain.Status) error {
	_, err := q.ExecContext(ctx, `UPDATE quotes SET status=? WHERE id=?`, string(status), id)
	return err
}

func (r QuoteRepository) Approve(ctx context.Context, q db.Queryer, id, approvedBy int64, approvedAt time.Time, notes string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE quotes SET status=?, approved_by=?, approved_at=?, notes=IF(?='', notes, ?)
		WHERE id=?`,
		string(domain.QuoteApproved), approvedBy, approvedAt, notes, notes, id)
	return err
}

func (r QuoteRepository) Reject(ctx context.Context, q db.Queryer, id int64, reason string) error {
	_, err := q.ExecContext(ctx, `UPDATE quotes SET status=?, notes=? WHERE id=?`,
		string(domain.QuoteRejected), reason, id)
	return err
}

func (r QuoteRepository) UpdateValidity(ctx context.Context, q db.Queryer, id int64, validUntil time.Time, status domain.Status) error {
	_, err := q.ExecContext(ctx, `UPDATE quotes SET valid_until=?, status=? WHERE id=?`,
		validUntil, string(status), id)
	return err
}

// LastReferenceForUpdate returns the highest reference in the month bucket,
// holding a lock so concurrent inserts serialize on the sequence.
func (r QuoteRepository) LastReferenceForUpdate(ctx context.Context, q db.Queryer, monthPrefix string) (string, error) {
	var ref string
	err := q.QueryRowContext(ctx, `
		SELECT quote_reference FROM quotes
		WHERE quote_reference LIKE ?
		ORDER BY quote_reference DESC LIMIT 1 FOR UPDATE`, monthPrefix+"%").Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return ref, err
}

func (r QuoteRepository) List(ctx context.Context, q db.Queryer, status string, customerID int64, limit int) ([]models.Quote, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE 1=1`
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

	var out []models.Quote
	for rows.Next() {
		quote, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quote)
	}
	return out, rows.Err()
}

// ListExpiredCandidates returns non-terminal quotes whose validity has
// passed; the expiry sweep transitions them one by one.
func (r QuoteRepository) ListExpiredCandidates(ctx context.Context, q db.Queryer, now time.Time) ([]models.Quote, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE valid_until < ? AND status IN (?, ?)`,
		now, string(domain.QuotePending), string(domain.QuoteApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Quote
	for rows.Next() {
		quote, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quote)
	}
	return out, rows.Err()
}

// nullID turns a zero id into NULL for optional FK columns.
func nullID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}
