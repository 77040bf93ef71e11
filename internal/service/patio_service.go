package service

import (
	"context"
	"strings"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

// PatioCard is one vehicle on the kanban board.
type PatioCard struct {
	Entry    *models.PatioVehicle `json:"entry"`
	Vehicle  *models.Vehicle      `json:"vehicle,omitempty"`
	Order    *models.ServiceOrder `json:"order,omitempty"`
	Customer *models.Profile      `json:"customer,omitempty"`
}

type PatioColumn struct {
	Status string      `json:"status"`
	Label  string      `json:"label"`
	Cards  []PatioCard `json:"cards"`
}

var patioColumns = []struct{ status, label string }{
	{models.PatioWaiting, "Aguardando"},
	{models.PatioInService, "Em serviço"},
	{models.PatioReady, "Pronto"},
	{models.PatioDelivered, "Entregue"},
}

type PatioService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewPatioService(repo domain.Repository, logger *zerolog.Logger) *PatioService {
	return &PatioService{repo: repo, logger: logger}
}

// Board returns the four patio columns in fixed order. search matches brand,
// model or plate, case-insensitively.
func (s *PatioService) Board(ctx context.Context, search string) ([]PatioColumn, error) {
	cards, err := s.cards(ctx)
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))

	columns := make([]PatioColumn, len(patioColumns))
	index := make(map[string]int, len(patioColumns))
	for i, c := range patioColumns {
		columns[i] = PatioColumn{Status: c.status, Label: c.label, Cards: make([]PatioCard, 0)}
		index[c.status] = i
	}

	for _, card := range cards {
		if search != "" && !matchesVehicle(card.Vehicle, search) {
			continue
		}
		i, ok := index[card.Entry.Status]
		if !ok {
			s.logger.Warn().Str("patio_id", card.Entry.ID).Str("status", card.Entry.Status).Msg("Unknown patio status")
			continue
		}
		columns[i].Cards = append(columns[i].Cards, card)
	}
	return columns, nil
}

func (s *PatioService) cards(ctx context.Context) ([]PatioCard, error) {
	entries, err := s.repo.ListPatioVehicles(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListServiceOrders(ctx)
	if err != nil {
		return nil, err
	}
	l, err := loadLookup(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	ordersByID := make(map[string]*models.ServiceOrder, len(orders))
	for _, o := range orders {
		ordersByID[o.ID] = o
	}

	cards := make([]PatioCard, 0, len(entries))
	for _, e := range entries {
		card := PatioCard{Entry: e, Vehicle: l.vehicles[e.VehicleID]}
		if e.OrderID != "" {
			card.Order = ordersByID[e.OrderID]
		}
		if card.Vehicle != nil {
			card.Customer = l.profiles[card.Vehicle.UserID]
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func matchesVehicle(v *models.Vehicle, lower string) bool {
	if v == nil {
		return false
	}
	return strings.Contains(strings.ToLower(v.Brand), lower) ||
		strings.Contains(strings.ToLower(v.Model), lower) ||
		strings.Contains(strings.ToLower(v.Plate), lower)
}
