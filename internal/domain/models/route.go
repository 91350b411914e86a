package models

import "time"

// Route is reference data: an origin/destination country pair with a base
// price used when drafting quotes.
type Route struct {
	ID                 int64     `json:"id"`
	OriginCountry      string    `json:"origin_country"`
	OriginCity         string    `json:"origin_city,omitempty"`
	DestinationCountry string    `json:"destination_country"`
	DestinationCity    string    `json:"destination_city,omitempty"`
	BasePrice          int64     `json:"base_price"`
	TransitDays        int       `json:"transit_days,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Vehicle struct {
	ID        int64     `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Color     string    `json:"color,omitempty"`
	VIN       string    `json:"vin,omitempty"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an admin/back-office account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
