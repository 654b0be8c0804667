package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

// FoodService manages the catalog entries orders are priced against.
type FoodService struct {
	repo   ports.FoodRepository
	logger zerolog.Logger
}

func NewFoodService(repo ports.FoodRepository, logger zerolog.Logger) *FoodService {
	return &FoodService{repo: repo, logger: logger}
}

func (s *FoodService) CreateFood(ctx context.Context, in ports.CreateFoodInput) (*domain.FoodItem, error) {
	if !domain.CanManageCatalog(in.Requester) {
		return nil, domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price <= 0 {
		return nil, domain.ErrInvalidFood
	}

	now := time.Now().UTC()
	food := &domain.FoodItem{
		Name:      name,
		Price:     in.Price,
		Available: in.Available,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, food); err != nil {
		return nil, fmt.Errorf("create food: %w: %w", domain.ErrInternal, err)
	}

	s.logger.Info().Str("food_id", food.ID).Int64("price", int64(food.Price)).Msg("food created")
	return food, nil
}

// UpdateFood changes price and/or availability. Existing orders keep the price they
// were placed at.
func (s *FoodService) UpdateFood(ctx context.Context, requester domain.Principal, id string, upd ports.FoodUpdate) (*domain.FoodItem, error) {
	if !domain.CanManageCatalog(requester) {
		return nil, domain.ErrForbidden
	}
	if upd.Price != nil && *upd.Price <= 0 {
		return nil, domain.ErrInvalidFood
	}

	food, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrFoodNotFound) {
			return nil, domain.ErrFoodNotFound
		}
		return nil, fmt.Errorf("update food: %w: %w", domain.ErrInternal, err)
	}

	s.logger.Info().Str("food_id", food.ID).Str("actor", requester.UserID).Msg("food updated")
	return food, nil
}
