package models

import "time"

type Vehicle struct {
	ID      string `json:"id" yaml:"id"`
	UserID  string `json:"user_id" yaml:"user_id"`
	Brand   string `json:"brand" yaml:"brand"`
	Model   string `json:"model" yaml:"model"`
	Year    int    `json:"year" yaml:"year"`
	Plate   string `json:"plate" yaml:"plate"`
	Color   string `json:"color" yaml:"color"`
	Mileage int    `json:"mileage" yaml:"mileage"`
}

// Service is an entry of the shop's service catalog.
type Service struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Description     string  `json:"description" yaml:"description"`
	Category        string  `json:"category" yaml:"category"`
	Price           float64 `json:"price" yaml:"price"`
	DurationMinutes int     `json:"duration_minutes" yaml:"duration_minutes"`
	IsActive        bool    `json:"is_active" yaml:"is_active"`
}

type Appointment struct {
	ID            string    `json:"id" yaml:"id"`
	UserID        string    `json:"user_id" yaml:"user_id"`
	VehicleID     string    `json:"vehicle_id" yaml:"vehicle_id"`
	ServiceID     string    `json:"service_id" yaml:"service_id"`
	ScheduledDate string    `json:"scheduled_date" yaml:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string    `json:"scheduled_time" yaml:"scheduled_time"` // HH:MM
	Status        string    `json:"status" yaml:"status"`                 // pending, confirmed, in_progress, completed, cancelled
	Notes         string    `json:"notes" yaml:"notes"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

type ServiceOrder struct {
	ID            string    `json:"id" yaml:"id"`
	UserID        string    `json:"user_id" yaml:"user_id"`
	VehicleID     string    `json:"vehicle_id" yaml:"vehicle_id"`
	AppointmentID string    `json:"appointment_id,omitempty" yaml:"appointment_id"`
	Status        string    `json:"status" yaml:"status"` // open, in_progress, waiting_approval, completed, cancelled
	Total         float64   `json:"total" yaml:"total"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// PatioVehicle is a vehicle physically present at the shop.
type PatioVehicle struct {
	ID        string    `json:"id" yaml:"id"`
	VehicleID string    `json:"vehicle_id" yaml:"vehicle_id"`
	OrderID   string    `json:"order_id,omitempty" yaml:"order_id"`
	Status    string    `json:"status" yaml:"status"` // waiting, in_service, ready, delivered
	EnteredAt time.Time `json:"entered_at" yaml:"entered_at"`
}

type Alert struct {
	ID          string    `json:"id" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Type        string    `json:"type" yaml:"type"` // reminder, maintenance, promo, info
	Title       string    `json:"title" yaml:"title"`
	Message     string    `json:"message" yaml:"message"`
	Date        time.Time `json:"date" yaml:"date"`
	Read        bool      `json:"read" yaml:"read"`
	ActionURL   string    `json:"action_url,omitempty" yaml:"action_url"`
	ActionLabel string    `json:"action_label,omitempty" yaml:"action_label"`
}
