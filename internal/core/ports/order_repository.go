package ports

import (
	"context"
	"time"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// ListOrdersFilter carries all query parameters for listing orders.
// UserID is always enforced by the service layer.
type ListOrdersFilter struct {
	UserID string             // empty = no filter (staff/admin)
	Status domain.OrderStatus // optional
	Page   int                // 1-based, ignored when Limit is 0
	Limit  int                // 0 = unbounded
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts o and sets its ID.
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns matching orders, newest first (ties broken by id, descending).
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, error)
	// UpdateStatus moves the order from -> to only if it is still in from, appending a
	// history entry in the same write. It returns domain.ErrInvalidTransition when the
	// order exists but is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time, actorID string) (*domain.Order, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}
