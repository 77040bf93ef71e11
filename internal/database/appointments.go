package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"autoshop/internal/models"

	"github.com/google/uuid"
)

const insertAppointment = `INSERT INTO appointments (id, user_id, vehicle_id, service_id, scheduled_date, scheduled_time, status, notes, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const appointmentColumns = `id, user_id, vehicle_id, service_id, scheduled_date, scheduled_time, status, notes, created_at`

// CreateAppointment inserts a, assigning an ID, status pending and
// created_at when they are empty.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AppointmentPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, insertAppointment,
		a.ID, a.UserID, a.VehicleID, a.ServiceID, a.ScheduledDate, a.ScheduledTime, a.Status, a.Notes, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	err := db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id).
		Scan(&a.ID, &a.UserID, &a.VehicleID, &a.ServiceID, &a.ScheduledDate, &a.ScheduledTime, &a.Status, &a.Notes, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

// ListAppointments is ordered by scheduled date and time.
func (db *DB) ListAppointments(ctx context.Context) ([]*models.Appointment, error) {
	return db.queryAppointments(ctx, `SELECT `+appointmentColumns+` FROM appointments
        ORDER BY scheduled_date, scheduled_time`)
}

func (db *DB) GetAppointmentsByUser(ctx context.Context, userID string) ([]*models.Appointment, error) {
	return db.queryAppointments(ctx, `SELECT `+appointmentColumns+` FROM appointments
        WHERE user_id = ? ORDER BY scheduled_date, scheduled_time`, userID)
}

func (db *DB) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE appointments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.UserID, &a.VehicleID, &a.ServiceID, &a.ScheduledDate, &a.ScheduledTime, &a.Status, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, &a)
	}
	return appointments, rows.Err()
}
