package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garagedesk/internal/domain"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyName     = errors.New("name must not be empty")
	ErrNegativePrice = errors.New("price must not be negative")
)

// CatalogService manages the workshop's service pricing: categories and the
// priced services under them. All data lives in the backend; this side only
// validates and forwards.
type CatalogService struct {
	api    domain.CatalogAPI
	logger zerolog.Logger
}

func NewCatalogService(api domain.CatalogAPI, logger zerolog.Logger) *CatalogService {
	return &CatalogService{api: api, logger: logger}
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.ServiceCategory, error) {
	return s.api.ListCategories(ctx)
}

func (s *CatalogService) Services(ctx context.Context, categoryID int64) ([]models.ServiceItem, error) {
	return s.api.ListServices(ctx, categoryID)
}

func (s *CatalogService) AddCategory(ctx context.Context, name string) (*models.ServiceCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("add category: %w", ErrEmptyName)
	}
	created, err := s.api.CreateCategory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}
	s.logger.Info().Str("category", name).Msg("category added")
	return created, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, categoryID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename category: %w", ErrEmptyName)
	}
	if err := s.api.RenameCategory(ctx, categoryID, name); err != nil {
		return fmt.Errorf("rename category %d: %w", categoryID, err)
	}
	return nil
}

// RemoveCategory deletes a category; the backend cascades to its services.
func (s *CatalogService) RemoveCategory(ctx context.Context, categoryID int64) error {
	if err := s.api.DeleteCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("remove category %d: %w", categoryID, err)
	}
	s.logger.Info().Int64("category_id", categoryID).Msg("category removed")
	return nil
}

func (s *CatalogService) AddService(ctx context.Context, categoryID int64, name string, price float64) (*models.ServiceItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("add service: %w", ErrEmptyName)
	}
	if price < 0 {
		return nil, fmt.Errorf("add service: %w", ErrNegativePrice)
	}
	created, err := s.api.CreateService(ctx, categoryID, name, price)
	if err != nil {
		return nil, fmt.Errorf("add service: %w", err)
	}
	s.logger.Info().Str("service", name).Float64("price", price).Msg("service added")
	return created, nil
}

func (s *CatalogService) UpdateService(ctx context.Context, serviceID int64, name string, price float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("update service: %w", ErrEmptyName)
	}
	if price < 0 {
		return fmt.Errorf("update service: %w", ErrNegativePrice)
	}
	if err := s.api.UpdateService(ctx, serviceID, name, price); err != nil {
		return fmt.Errorf("update service %d: %w", serviceID, err)
	}
	return nil
}

func (s *CatalogService) RemoveService(ctx context.Context, serviceID int64) error {
	if err := s.api.DeleteService(ctx, serviceID); err != nil {
		return fmt.Errorf("remove service %d: %w", serviceID, err)
	}
	return nil
}
