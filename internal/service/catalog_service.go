package service

import (
	"context"
	"strings"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

// CategoryAll matches every category.
const CategoryAll = "all"

type ServiceFilter struct {
	Search   string
	Category string
}

type CatalogService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// List filters the whole catalog, inactive services included, by a
// case-insensitive search on name or description and by category.
func (s *CatalogService) List(ctx context.Context, filter ServiceFilter) ([]*models.Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	category := strings.TrimSpace(filter.Category)

	result := make([]*models.Service, 0, len(services))
	for _, svc := range services {
		if category != "" && category != CategoryAll && svc.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(svc.Name), search) &&
			!strings.Contains(strings.ToLower(svc.Description), search) {
			continue
		}
		result = append(result, svc)
	}
	return result, nil
}

// Categories returns distinct categories in first-seen order.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, svc := range services {
		if svc.Category == "" || seen[svc.Category] {
			continue
		}
		seen[svc.Category] = true
		categories = append(categories, svc.Category)
	}
	return categories, nil
}

// Active returns the services a customer may book.
func (s *CatalogService) Active(ctx context.Context) ([]*models.Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*models.Service, 0, len(services))
	for _, svc := range services {
		if svc.IsActive {
			active = append(active, svc)
		}
	}
	return active, nil
}
