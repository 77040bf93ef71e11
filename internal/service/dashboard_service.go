package service

import (
	"context"
	"time"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

type OrderCard struct {
	Order    *models.ServiceOrder `json:"order"`
	Vehicle  *models.Vehicle      `json:"vehicle,omitempty"`
	Customer *models.Profile      `json:"customer,omitempty"`
}

// Dashboard is the admin console landing summary.
type Dashboard struct {
	TodayAppointments int         `json:"today_appointments"`
	PendingOrders     int         `json:"pending_orders"`
	VehiclesInPatio   int         `json:"vehicles_in_patio"`
	Revenue           float64     `json:"revenue"`
	RecentOrders      []OrderCard `json:"recent_orders"`
	Patio             []PatioCard `json:"patio"`
}

type DashboardService struct {
	repo   domain.Repository
	patio  *PatioService
	logger *zerolog.Logger
}

func NewDashboardService(repo domain.Repository, logger *zerolog.Logger) *DashboardService {
	return &DashboardService{
		repo:   repo,
		patio:  NewPatioService(repo, logger),
		logger: logger,
	}
}

// Summary computes the dashboard counters for the day containing today.
func (s *DashboardService) Summary(ctx context.Context, today time.Time) (*Dashboard, error) {
	appointments, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListServiceOrders(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := s.patio.cards(ctx)
	if err != nil {
		return nil, err
	}
	l, err := loadLookup(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		RecentOrders: make([]OrderCard, 0, models.DashboardRecentOrders),
		Patio:        make([]PatioCard, 0, len(cards)),
	}

	day := today.Format(models.DateLayout)
	for _, a := range appointments {
		if a.ScheduledDate == day {
			d.TodayAppointments++
		}
	}

	// orders arrive newest first
	for _, o := range orders {
		switch o.Status {
		case models.OrderCompleted:
			d.Revenue += o.Total
		case models.OrderCancelled:
		default:
			d.PendingOrders++
		}
		if len(d.RecentOrders) < models.DashboardRecentOrders {
			card := OrderCard{Order: o, Vehicle: l.vehicles[o.VehicleID], Customer: l.profiles[o.UserID]}
			d.RecentOrders = append(d.RecentOrders, card)
		}
	}

	for _, c := range cards {
		if c.Entry.Status != models.PatioDelivered {
			d.VehiclesInPatio++
		}
		d.Patio = append(d.Patio, c)
	}
	return d, nil
}
