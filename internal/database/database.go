package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autoshop/internal/fixtures"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrForeignVehicle = errors.New("vehicle belongs to another user")
)

// DB wraps sql.DB with the shop queries.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	// Создаем директорию для БД, если её нет
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: is per connection
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL,
            full_name TEXT NOT NULL DEFAULT '',
            phone TEXT,
            avatar_url TEXT,
            role TEXT NOT NULL DEFAULT 'customer',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS vehicles (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            brand TEXT NOT NULL,
            model TEXT NOT NULL,
            year INTEGER NOT NULL DEFAULT 0,
            plate TEXT NOT NULL,
            color TEXT NOT NULL DEFAULT '',
            mileage INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY (user_id) REFERENCES profiles(id)
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            price REAL NOT NULL DEFAULT 0,
            duration_minutes INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS appointments (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            vehicle_id TEXT NOT NULL,
            service_id TEXT NOT NULL,
            scheduled_date TEXT NOT NULL,
            scheduled_time TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            notes TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            FOREIGN KEY (vehicle_id) REFERENCES vehicles(id),
            FOREIGN KEY (service_id) REFERENCES services(id)
        )`,
		`CREATE TABLE IF NOT EXISTS service_orders (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            vehicle_id TEXT NOT NULL,
            appointment_id TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'open',
            total REAL NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS patio_vehicles (
            id TEXT PRIMARY KEY,
            vehicle_id TEXT NOT NULL,
            order_id TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'waiting',
            entered_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS alerts (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            message TEXT NOT NULL,
            date DATETIME NOT NULL,
            read BOOLEAN NOT NULL DEFAULT 0,
            action_url TEXT NOT NULL DEFAULT '',
            action_label TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            appointment_id TEXT NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_user_id ON vehicles(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_user_id ON appointments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(scheduled_date, scheduled_time)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id, read)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 60 {
		return q[:60] + "..."
	}
	return q
}

// Seed loads fixtures into an empty database. A database that already has
// profiles is left alone.
func (db *DB) Seed(ctx context.Context, f *fixtures.Fixtures) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return fmt.Errorf("count profiles: %w", err)
	}
	if count > 0 {
		db.logger.Debug().Int("profiles", count).Msg("Database already seeded")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range f.Profiles {
		p := &f.Profiles[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (id, email, full_name, phone, avatar_url, role, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Email, p.FullName, p.Phone, p.AvatarURL, string(p.Role), p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
	}
	for i := range f.Vehicles {
		v := &f.Vehicles[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO vehicles (id, user_id, brand, model, year, plate, color, mileage)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.UserID, v.Brand, v.Model, v.Year, v.Plate, v.Color, v.Mileage); err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.ID, err)
		}
	}
	for i := range f.Services {
		s := &f.Services[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO services (id, name, description, category, price, duration_minutes, is_active)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Description, s.Category, s.Price, s.DurationMinutes, s.IsActive); err != nil {
			return fmt.Errorf("seed service %s: %w", s.ID, err)
		}
	}
	for i := range f.Appointments {
		a := &f.Appointments[i]
		if _, err := tx.ExecContext(ctx, insertAppointment,
			a.ID, a.UserID, a.VehicleID, a.ServiceID, a.ScheduledDate, a.ScheduledTime, a.Status, a.Notes, a.CreatedAt); err != nil {
			return fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
	}
	for i := range f.ServiceOrders {
		o := &f.ServiceOrders[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO service_orders (id, user_id, vehicle_id, appointment_id, status, total, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.UserID, o.VehicleID, o.AppointmentID, o.Status, o.Total, o.CreatedAt); err != nil {
			return fmt.Errorf("seed order %s: %w", o.ID, err)
		}
	}
	for i := range f.Patio {
		p := &f.Patio[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO patio_vehicles (id, vehicle_id, order_id, status, entered_at) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.VehicleID, p.OrderID, p.Status, p.EnteredAt); err != nil {
			return fmt.Errorf("seed patio %s: %w", p.ID, err)
		}
	}
	for i := range f.Alerts {
		a := &f.Alerts[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO alerts (id, user_id, type, title, message, date, read, action_url, action_label)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.Type, a.Title, a.Message, a.Date, a.Read, a.ActionURL, a.ActionLabel); err != nil {
			return fmt.Errorf("seed alert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	db.logger.Info().
		Int("profiles", len(f.Profiles)).
		Int("vehicles", len(f.Vehicles)).
		Int("services", len(f.Services)).
		Msg("Database seeded")
	return nil
}
