package service

import (
	"context"
	"strings"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

type ClientSummary struct {
	Profile          *models.Profile `json:"profile"`
	VehicleCount     int             `json:"vehicle_count"`
	AppointmentCount int             `json:"appointment_count"`
}

type ClientService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewClientService(repo domain.Repository, logger *zerolog.Logger) *ClientService {
	return &ClientService{repo: repo, logger: logger}
}

// List returns customers matching search on name, email or phone.
func (s *ClientService) List(ctx context.Context, search string) ([]ClientSummary, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.repo.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	appointments, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	vehicleCount := make(map[string]int)
	for _, v := range vehicles {
		vehicleCount[v.UserID]++
	}
	appointmentCount := make(map[string]int)
	for _, a := range appointments {
		appointmentCount[a.UserID]++
	}

	search = strings.TrimSpace(search)
	lower := strings.ToLower(search)

	result := make([]ClientSummary, 0)
	for _, p := range profiles {
		if p.Role != models.RoleCustomer {
			continue
		}
		if search != "" && !matchesClient(p, lower, search) {
			continue
		}
		result = append(result, ClientSummary{
			Profile:          p,
			VehicleCount:     vehicleCount[p.ID],
			AppointmentCount: appointmentCount[p.ID],
		})
	}
	return result, nil
}

func matchesClient(p *models.Profile, lower, raw string) bool {
	if strings.Contains(strings.ToLower(p.FullName), lower) || strings.Contains(strings.ToLower(p.Email), lower) {
		return true
	}
	return p.Phone != nil && strings.Contains(*p.Phone, raw)
}
