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

const customerColumns = `id, first_name, last_name, email, phone, address, city, country,
	password_hash, password_is_temporary, status, created_at, updated_at`

type CustomerRepository struct{}

func (CustomerRepository) scan(row interface{ Scan(...any) error }) (models.Customer, error) {
	var c models.Customer
	if err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.City, &c.Country,
		&c.PasswordHash, &c.PasswordIsTemporary, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

func (r CustomerRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Customer, error) {
	row := q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=?`, id)
	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, domain.NotFoundError{Resource: "customer"}
	}
	return c, err
}

func (r CustomerRepository) GetByEmail(ctx context.Context, q db.Queryer, email string) (models.Customer, error) {
	row := q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE email=?`, email)
	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, domain.NotFoundError{Resource: "customer"}
	}
	return c, err
}

func (r CustomerRepository) Create(ctx context.Context, q db.Queryer, c models.Customer) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO customers
			(first_name, last_name, email, phone, address, city, country,
			 password_hash, password_is_temporary, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.Country,
		c.PasswordHash, c.PasswordIsTemporary, c.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r CustomerRepository) Update(ctx context.Context, q db.Queryer, c models.Customer) error {
	_, err := q.ExecContext(ctx, `
		UPDATE customers
		SET first_name=?, last_name=?, email=?, phone=?, address=?, city=?, country=?, status=?
		WHERE id=?`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.Country, c.Status, c.ID)
	return err
}

func (r CustomerRepository) SetPassword(ctx context.Context, q db.Queryer, id int64, hash string, temporary bool) error {
	_, err := q.ExecContext(ctx, `
		UPDATE customers SET password_hash=?, password_is_temporary=? WHERE id=?`,
		hash, temporary, id)
	return err
}

func (r CustomerRepository) List(ctx context.Context, q db.Queryer, limit int) ([]models.Customer, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := q.QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CredentialRepository stores pending portal credentials issued at quote
// approval and consumed during conversion.
type CredentialRepository struct{}

func (CredentialRepository) Upsert(ctx context.Context, q db.Queryer, c models.PendingCredential) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO pending_credentials (quote_id, customer_id, temp_password, issued_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE temp_password=VALUES(temp_password), issued_at=VALUES(issued_at)`,
		c.QuoteID, c.CustomerID, c.TempPassword, c.IssuedAt)
	return err
}

// ConsumeByQuote removes and returns the pending credential for a quote.
// Returns ok=false when none was issued.
func (CredentialRepository) ConsumeByQuote(ctx context.Context, q db.Queryer, quoteID int64) (models.PendingCredential, bool, error) {
	var c models.PendingCredential
	err := q.QueryRowContext(ctx, `
		SELECT id, quote_id, customer_id, temp_password, issued_at
		FROM pending_credentials WHERE quote_id=? FOR UPDATE`, quoteID).
		Scan(&c.ID, &c.QuoteID, &c.CustomerID, &c.TempPassword, &c.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingCredential{}, false, nil
	}
	if err != nil {
		return models.PendingCredential{}, false, err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM pending_credentials WHERE id=?`, c.ID); err != nil {
		return models.PendingCredential{}, false, err
	}
	return c, true, nil
}

// DeleteStale clears credentials whose quote never converted.
func (CredentialRepository) DeleteStale(ctx context.Context, q db.Queryer, before time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM pending_credentials WHERE issued_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
