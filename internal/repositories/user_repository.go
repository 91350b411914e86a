package repositories

import (
	"context"
	"database/sql"
	"errors"

	"autoship/internal/db"
	"autoship/internal/domain"
	"autoship/internal/domain/models"
)

const userColumns = `id, name, username, email, phone, password_hash, role, status, created_at, updated_at`

type UserRepository struct{}

func (UserRepository) scan(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByLogin matches email or username, the same way the admin UI logs in.
func (r UserRepository) GetByLogin(ctx context.Context, q db.Queryer, login string) (models.User, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email=? OR username=?`, login, login)
	u, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, err
}

func (r UserRepository) ExistsByLogin(ctx context.Context, q db.Queryer, email, username string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE email=? OR username=?`, email, username).Scan(&n)
	return n > 0, err
}

func (r UserRepository) Create(ctx context.Context, q db.Queryer, u models.User) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO users (name, username, email, phone, password_hash, role, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Username, u.Email, u.Phone, u.PasswordHash, u.Role, u.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
