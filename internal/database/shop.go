package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"autoshop/internal/models"
)

const vehicleColumns = `id, user_id, brand, model, year, plate, color, mileage`

func (db *DB) ListVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	return db.queryVehicles(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
}

func (db *DB) GetVehiclesByUser(ctx context.Context, userID string) ([]*models.Vehicle, error) {
	return db.queryVehicles(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = ? ORDER BY id`, userID)
}

func (db *DB) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	err := db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id).
		Scan(&v.ID, &v.UserID, &v.Brand, &v.Model, &v.Year, &v.Plate, &v.Color, &v.Mileage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &v, nil
}

func (db *DB) queryVehicles(ctx context.Context, query string, args ...interface{}) ([]*models.Vehicle, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.Brand, &v.Model, &v.Year, &v.Plate, &v.Color, &v.Mileage); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, &v)
	}
	return vehicles, rows.Err()
}

const serviceColumns = `id, name, description, category, price, duration_minutes, is_active`

// ListServices returns the whole catalog, inactive entries included.
func (db *DB) ListServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.Price, &s.DurationMinutes, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &s)
	}
	return services, rows.Err()
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.Price, &s.DurationMinutes, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &s, nil
}

func (db *DB) ListServiceOrders(ctx context.Context) ([]*models.ServiceOrder, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, user_id, vehicle_id, appointment_id, status, total, created_at
        FROM service_orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.ServiceOrder
	for rows.Next() {
		var o models.ServiceOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.VehicleID, &o.AppointmentID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (db *DB) ListPatioVehicles(ctx context.Context) ([]*models.PatioVehicle, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, vehicle_id, order_id, status, entered_at FROM patio_vehicles ORDER BY entered_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patio: %w", err)
	}
	defer rows.Close()

	var patio []*models.PatioVehicle
	for rows.Next() {
		var p models.PatioVehicle
		if err := rows.Scan(&p.ID, &p.VehicleID, &p.OrderID, &p.Status, &p.EnteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan patio vehicle: %w", err)
		}
		patio = append(patio, &p)
	}
	return patio, rows.Err()
}
