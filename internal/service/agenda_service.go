package service

import (
	"context"
	"sort"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// AgendaEntry is an appointment joined with what the agenda screens display.
type AgendaEntry struct {
	Appointment *models.Appointment `json:"appointment"`
	Vehicle     *models.Vehicle     `json:"vehicle,omitempty"`
	Service     *models.Service     `json:"service,omitempty"`
	Customer    *models.Profile     `json:"customer,omitempty"`
}

type AgendaDay struct {
	Date    string        `json:"date"`
	Entries []AgendaEntry `json:"entries"`
}

// HomeView backs the customer landing screen.
type HomeView struct {
	Vehicles []*models.Vehicle `json:"vehicles"`
	Upcoming []AgendaEntry     `json:"upcoming"`
	Services []*models.Service `json:"services"`
}

type AgendaService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAgendaService(repo domain.Repository, logger *zerolog.Logger) *AgendaService {
	return &AgendaService{repo: repo, logger: logger}
}

// Agenda returns appointments grouped by date in ascending order. Customers
// see only their own; admin and above see the whole shop.
func (s *AgendaService) Agenda(ctx context.Context, userID string, role models.Role, status string) ([]AgendaDay, error) {
	if status == "" {
		status = StatusAll
	}
	if status != StatusAll && !validAppointmentStatus(status) {
		return nil, ErrInvalidStatus
	}

	var (
		appointments []*models.Appointment
		err          error
	)
	if models.Allows(role, models.RoleAdmin) {
		appointments, err = s.repo.ListAppointments(ctx)
	} else {
		appointments, err = s.repo.GetAppointmentsByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	l, err := loadLookup(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	var filtered []*models.Appointment
	for _, a := range appointments {
		if status == StatusAll || a.Status == status {
			filtered = append(filtered, a)
		}
	}
	sortAppointments(filtered)

	days := make([]AgendaDay, 0)
	for _, a := range filtered {
		if n := len(days); n == 0 || days[n-1].Date != a.ScheduledDate {
			days = append(days, AgendaDay{Date: a.ScheduledDate})
		}
		last := &days[len(days)-1]
		last.Entries = append(last.Entries, l.entry(a))
	}
	return days, nil
}

// Home returns the user's vehicles, upcoming appointments (pending or
// confirmed) and the first featured services.
func (s *AgendaService) Home(ctx context.Context, userID string) (*HomeView, error) {
	vehicles, err := s.repo.GetVehiclesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	appointments, err := s.repo.GetAppointmentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	l, err := loadLookup(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	view := &HomeView{
		Vehicles: vehicles,
		Upcoming: make([]AgendaEntry, 0),
		Services: make([]*models.Service, 0, models.HomeFeaturedServices),
	}

	sortAppointments(appointments)
	for _, a := range appointments {
		if a.Status == models.AppointmentPending || a.Status == models.AppointmentConfirmed {
			view.Upcoming = append(view.Upcoming, l.entry(a))
		}
	}
	for _, svc := range services {
		if len(view.Services) == models.HomeFeaturedServices {
			break
		}
		if svc.IsActive {
			view.Services = append(view.Services, svc)
		}
	}
	return view, nil
}

func sortAppointments(list []*models.Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ScheduledDate != list[j].ScheduledDate {
			return list[i].ScheduledDate < list[j].ScheduledDate
		}
		return list[i].ScheduledTime < list[j].ScheduledTime
	})
}
