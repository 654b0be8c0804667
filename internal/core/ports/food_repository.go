package ports

import (
	"context"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// FoodUpdate carries optional catalog changes; nil fields are left untouched.
type FoodUpdate struct {
	Price     *domain.Money
	Available *bool
}

// FoodRepository defines persistence operations for catalog items.
type FoodRepository interface {
	Create(ctx context.Context, f *domain.FoodItem) error
	// FindByIDs returns the items that exist among ids. Unknown or malformed ids are
	// simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.FoodItem, error)
	Update(ctx context.Context, id string, upd FoodUpdate) (*domain.FoodItem, error)
}

// CreateFoodInput carries a new catalog entry.
type CreateFoodInput struct {
	Requester domain.Principal
	Name      string
	Price     domain.Money
	Available bool
}

// FoodService exposes the small slice of catalog management the ordering flow needs.
type FoodService interface {
	CreateFood(ctx context.Context, in CreateFoodInput) (*domain.FoodItem, error)
	UpdateFood(ctx context.Context, requester domain.Principal, id string, upd FoodUpdate) (*domain.FoodItem, error)
}
