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

const documentColumns = `id, booking_id, customer_id, document_type, status,
	file_path, file_name, expiry_date, notes, COALESCE(verified_by, 0),
	verified_at, created_at, updated_at`

type DocumentRepository struct{}

func (DocumentRepository) scan(row interface{ Scan(...any) error }) (models.Document, error) {
	var (
		d          models.Document
		docType    string
		status     string
		expiry     sql.NullTime
		verifiedAt sql.NullTime
	)
	if err := row.Scan(
		&d.ID, &d.BookingID, &d.CustomerID, &docType, &status,
		&d.FilePath, &d.FileName, &expiry, &d.Notes, &d.VerifiedBy,
		&verifiedAt, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return models.Document{}, err
	}
	d.DocumentType = models.DocumentType(docType)
	d.Status = domain.Status(status)
	if expiry.Valid {
		t := expiry.Time
		d.ExpiryDate = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		d.VerifiedAt = &t
	}
	return d, nil
}

func (r DocumentRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Document, error) {
	row := q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=?`, id)
	d, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, domain.NotFoundError{Resource: "document"}
	}
	return d, err
}

func (r DocumentRepository) GetByIDForUpdate(ctx context.Context, q db.Queryer, id int64) (models.Document, error) {
	row := q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=? FOR UPDATE`, id)
	d, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, domain.NotFoundError{Resource: "document"}
	}
	return d, err
}

func (r DocumentRepository) Create(ctx context.Context, q db.Queryer, d models.Document) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO documents
			(booking_id, customer_id, document_type, status, file_path, file_name, expiry_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.BookingID, d.CustomerID, string(d.DocumentType), string(d.Status),
		d.FilePath, d.FileName, d.ExpiryDate, d.Notes,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r DocumentRepository) UpdateStatus(ctx context.Context, q db.Queryer, id int64, status domain.Status, verifiedBy int64, verifiedAt *time.Time, notes string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE documents
		SET status=?, verified_by=IF(? > 0, ?, verified_by), verified_at=COALESCE(?, verified_at),
		    notes=IF(?='', notes, ?)
		WHERE id=?`,
		string(status), verifiedBy, verifiedBy, verifiedAt, notes, notes, id)
	return err
}

func (r DocumentRepository) ListByBooking(ctx context.Context, q db.Queryer, bookingID int64) ([]models.Document, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE booking_id=? ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

// PresentTypes returns the document types that currently fill a slot for the
// booking (status pending or approved).
func (r DocumentRepository) PresentTypes(ctx context.Context, q db.Queryer, bookingID int64) (map[models.DocumentType]bool, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT document_type FROM documents
		WHERE booking_id=? AND status IN (?, ?)`,
		bookingID, string(domain.DocumentPending), string(domain.DocumentApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := map[models.DocumentType]bool{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		present[models.DocumentType(t)] = true
	}
	return present, rows.Err()
}

// ListExpiredApproved feeds the expiry sweep: approved documents whose
// expiry date has passed.
func (r DocumentRepository) ListExpiredApproved(ctx context.Context, q db.Queryer, now time.Time) ([]models.Document, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status=? AND expiry_date IS NOT NULL AND expiry_date < ?`,
		string(domain.DocumentApproved), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

// ListExpiringApproved returns approved documents expiring inside the window
// but not yet expired.
func (r DocumentRepository) ListExpiringApproved(ctx context.Context, q db.Queryer, now, until time.Time) ([]models.Document, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status=? AND expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?
		ORDER BY expiry_date`,
		string(domain.DocumentApproved), now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r DocumentRepository) collect(rows *sql.Rows) ([]models.Document, error) {
	var out []models.Document
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
