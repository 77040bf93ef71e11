package domain

import (
	"context"
	"time"

	"autoshop/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Mode tells which identity backend a provider talks to.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// AuthChangeEvent mirrors the identity service's auth-state notifications.
type AuthChangeEvent string

const (
	EventSignedIn       AuthChangeEvent = "SIGNED_IN"
	EventSignedOut      AuthChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
)

// AuthChangeFunc receives auth-state notifications. session is nil on sign-out.
type AuthChangeFunc func(ctx context.Context, event AuthChangeEvent, session *models.Session)

// OAuthStart is the outcome of starting an OAuth sign-in. Exactly one of
// RedirectURL (remote) or Session (local stand-in) is set.
type OAuthStart struct {
	RedirectURL string
	Session     *models.Session
}

// IdentityBackend is the single strategy behind the session provider.
type IdentityBackend interface {
	Mode() Mode
	RestoreSession(ctx context.Context) (*models.Session, error)
	SignInWithEmail(ctx context.Context, email, password string) (*models.Session, error)
	SignInWithOAuth(ctx context.Context) (*OAuthStart, error)
	CompleteOAuth(ctx context.Context, code string) (*models.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error)
	SignOut(ctx context.Context) error
	LoginAsDemo(ctx context.Context, role models.Role) (*models.Session, error)
	FetchProfile(ctx context.Context, id string) (*models.Profile, error)
	OnAuthStateChange(fn AuthChangeFunc) (unsubscribe func())
}

// RecordStore keeps small keyed records: persisted sessions, booking drafts
// and rate-limit counters. Get returns nil, nil for a missing key.
type RecordStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Repository interface {
	ListProfiles(ctx context.Context) ([]*models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	ListVehicles(ctx context.Context) ([]*models.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	GetVehiclesByUser(ctx context.Context, userID string) ([]*models.Vehicle, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
	ListAppointments(ctx context.Context) ([]*models.Appointment, error)
	GetAppointmentsByUser(ctx context.Context, userID string) ([]*models.Appointment, error)
	ListServiceOrders(ctx context.Context) ([]*models.ServiceOrder, error)
	ListPatioVehicles(ctx context.Context) ([]*models.PatioVehicle, error)
	GetAlertsByUser(ctx context.Context, userID string) ([]*models.Alert, error)
	MarkAlertRead(ctx context.Context, userID, alertID string) error
	MarkAllAlertsRead(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SheetsWriter mirrors appointments into the shop's booking spreadsheet.
type SheetsWriter interface {
	AppendAppointment(ctx context.Context, appointment *models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, appointmentID string, status string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, appointment *models.Appointment) error
}
