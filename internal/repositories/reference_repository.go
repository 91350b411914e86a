package repositories

import (
	"context"
	"database/sql"
	"errors"

	"autoship/internal/db"
	"autoship/internal/domain"
	"autoship/internal/domain/models"
)

// Routes and vehicles are master data with plain CRUD.

const routeColumns = `id, origin_country, origin_city, destination_country, destination_city,
	base_price, transit_days, active, created_at, updated_at`

type RouteRepository struct{}

func (RouteRepository) scan(row interface{ Scan(...any) error }) (models.Route, error) {
	var rt models.Route
	if err := row.Scan(
		&rt.ID, &rt.OriginCountry, &rt.OriginCity, &rt.DestinationCountry, &rt.DestinationCity,
		&rt.BasePrice, &rt.TransitDays, &rt.Active, &rt.CreatedAt, &rt.UpdatedAt,
	); err != nil {
		return models.Route{}, err
	}
	return rt, nil
}

func (r RouteRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Route, error) {
	row := q.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=?`, id)
	rt, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Route{}, domain.NotFoundError{Resource: "route"}
	}
	return rt, err
}

func (r RouteRepository) Create(ctx context.Context, q db.Queryer, rt models.Route) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO routes
			(origin_country, origin_city, destination_country, destination_city,
			 base_price, transit_days, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.OriginCountry, rt.OriginCity, rt.DestinationCountry, rt.DestinationCity,
		rt.BasePrice, rt.TransitDays, rt.Active)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r RouteRepository) Update(ctx context.Context, q db.Queryer, rt models.Route) error {
	_, err := q.ExecContext(ctx, `
		UPDATE routes
		SET origin_country=?, origin_city=?, destination_country=?, destination_city=?,
		    base_price=?, transit_days=?, active=?
		WHERE id=?`,
		rt.OriginCountry, rt.OriginCity, rt.DestinationCountry, rt.DestinationCity,
		rt.BasePrice, rt.TransitDays, rt.Active, rt.ID)
	return err
}

func (r RouteRepository) List(ctx context.Context, q db.Queryer, activeOnly bool) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes`
	if activeOnly {
		query += ` WHERE active=1`
	}
	query += ` ORDER BY origin_country, destination_country`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Route
	for rows.Next() {
		rt, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

const vehicleColumns = `id, make, model, year, color, vin, type, created_at, updated_at`

type VehicleRepository struct{}

func (VehicleRepository) scan(row interface{ Scan(...any) error }) (models.Vehicle, error) {
	var v models.Vehicle
	if err := row.Scan(
		&v.ID, &v.Make, &v.Model, &v.Year, &v.Color, &v.VIN, &v.Type, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return models.Vehicle{}, err
	}
	return v, nil
}

func (r VehicleRepository) GetByID(ctx context.Context, q db.Queryer, id int64) (models.Vehicle, error) {
	row := q.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=?`, id)
	v, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vehicle{}, domain.NotFoundError{Resource: "vehicle"}
	}
	return v, err
}

func (r VehicleRepository) Create(ctx context.Context, q db.Queryer, v models.Vehicle) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO vehicles (make, model, year, color, vin, type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.Make, v.Model, v.Year, v.Color, v.VIN, v.Type)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r VehicleRepository) Update(ctx context.Context, q db.Queryer, v models.Vehicle) error {
	_, err := q.ExecContext(ctx, `
		UPDATE vehicles SET make=?, model=?, year=?, color=?, vin=?, type=? WHERE id=?`,
		v.Make, v.Model, v.Year, v.Color, v.VIN, v.Type, v.ID)
	return err
}

func (r VehicleRepository) List(ctx context.Context, q db.Queryer, limit int) ([]models.Vehicle, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := q.QueryContext(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vehicle
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
