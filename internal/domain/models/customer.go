package models

import "time"

type Customer struct {
	ID                  int64     `json:"id"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone,omitempty"`
	Address             string    `json:"address,omitempty"`
	City                string    `json:"city,omitempty"`
	Country             string    `json:"country,omitempty"`
	PasswordHash        string    `json:"-"`
	PasswordIsTemporary bool      `json:"password_is_temporary"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// FullName joins first and last name for display and notifications.
func (c Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// PendingCredential is a temporary portal password issued at quote approval
// and consumed inside the conversion transaction.
type PendingCredential struct {
	ID           int64     `json:"id"`
	QuoteID      int64     `json:"quote_id"`
	CustomerID   int64     `json:"customer_id"`
	TempPassword string    `json:"-"`
	IssuedAt     time.Time `json:"issued_at"`
}
