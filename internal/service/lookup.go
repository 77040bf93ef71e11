package service

import (
	"context"

	"autoshop/internal/domain"
	"autoshop/internal/models"
)

// lookup indexes the reference tables used to join appointments, orders and
// patio entries for display.
type lookup struct {
	vehicles map[string]*models.Vehicle
	services map[string]*models.Service
	profiles map[string]*models.Profile
}

func loadLookup(ctx context.Context, repo domain.Repository) (*lookup, error) {
	vehicles, err := repo.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	services, err := repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	l := &lookup{
		vehicles: make(map[string]*models.Vehicle, len(vehicles)),
		services: make(map[string]*models.Service, len(services)),
		profiles: make(map[string]*models.Profile, len(profiles)),
	}
	for _, v := range vehicles {
		l.vehicles[v.ID] = v
	}
	for _, s := range services {
		l.services[s.ID] = s
	}
	for _, p := range profiles {
		l.profiles[p.ID] = p
	}
	return l, nil
}

func (l *lookup) entry(a *models.Appointment) AgendaEntry {
	return AgendaEntry{
		Appointment: a,
		Vehicle:     l.vehicles[a.VehicleID],
		Service:     l.services[a.ServiceID],
		Customer:    l.profiles[a.UserID],
	}
}
