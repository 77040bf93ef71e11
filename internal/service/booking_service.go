package service

import (
	"context"
	"errors"
	"fmt"

	"autoshop/internal/database"
	"autoshop/internal/domain"
	"autoshop/internal/events"
	"autoshop/internal/metrics"
	"autoshop/internal/models"
	"autoshop/internal/worker"

	"github.com/rs/zerolog"
)

// BookingService persists confirmed wizard drafts and moves appointments
// through their statuses.
type BookingService struct {
	repo         domain.Repository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:         repo,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		logger:       logger,
	}
}

// SubmitBooking stores the draft as a pending appointment owned by userID.
func (s *BookingService) SubmitBooking(ctx context.Context, userID string, draft models.BookingDraft) (appointment *models.Appointment, err error) {
	defer func() { metrics.IncBooking(err) }()

	if userID == "" || !draft.Complete() {
		return nil, ErrIncompleteDraft
	}

	vehicle, err := s.repo.GetVehicle(ctx, draft.VehicleID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrVehicleNotOwned
		}
		return nil, err
	}
	if vehicle.UserID != userID {
		return nil, ErrVehicleNotOwned
	}

	svc, err := s.repo.GetService(ctx, draft.ServiceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrServiceUnavailable
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceUnavailable
	}

	appointment = &models.Appointment{
		UserID:        userID,
		VehicleID:     vehicle.ID,
		ServiceID:     svc.ID,
		ScheduledDate: draft.Date,
		ScheduledTime: draft.Time,
		Notes:         draft.Notes,
	}
	if err := s.repo.CreateAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Str("user_id", userID).
		Str("date", appointment.ScheduledDate).
		Str("time", appointment.ScheduledTime).
		Msg("Appointment created")

	s.publishCreated(ctx, appointment, vehicle, svc)
	s.enqueueSync(ctx, appointment, worker.TaskAppend)

	return appointment, nil
}

// UpdateStatus moves an appointment to status on behalf of staff member changedBy.
func (s *BookingService) UpdateStatus(ctx context.Context, appointmentID, status, changedBy string) (*models.Appointment, error) {
	if !validAppointmentStatus(status) {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	if err := s.repo.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		return nil, err
	}

	updated := *current
	updated.Status = status

	if s.eventBus != nil {
		payload := events.StatusEventPayload{
			AppointmentID: appointmentID,
			UserID:        current.UserID,
			OldStatus:     current.Status,
			NewStatus:     status,
			ChangedBy:     changedBy,
		}
		if err := s.eventBus.PublishJSON(events.EventAppointmentStatusChanged, payload); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("publish event error")
		}
	}
	s.enqueueSync(ctx, &updated, worker.TaskUpdateStatus)

	return &updated, nil
}

func (s *BookingService) publishCreated(ctx context.Context, a *models.Appointment, vehicle *models.Vehicle, svc *models.Service) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		AppointmentID: a.ID,
		UserID:        a.UserID,
		Vehicle:       vehicle.Brand + " " + vehicle.Model,
		Plate:         vehicle.Plate,
		ServiceName:   svc.Name,
		Date:          a.ScheduledDate,
		Time:          a.ScheduledTime,
		Status:        a.Status,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
	}
	if profile, err := s.repo.GetProfile(ctx, a.UserID); err == nil {
		payload.CustomerName = profile.FullName
		if profile.Phone != nil {
			payload.CustomerPhone = *profile.Phone
		}
	}

	if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", a.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, a *models.Appointment, taskType string) {
	if s.sheetsWorker == nil {
		return
	}
	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, a); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", a.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}

func validAppointmentStatus(status string) bool {
	switch status {
	case models.AppointmentPending, models.AppointmentConfirmed, models.AppointmentInProgress,
		models.AppointmentCompleted, models.AppointmentCancelled:
		return true
	}
	return false
}
