package ports

import (
	"context"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// OrderLineInput is one requested line: which food and how many.
type OrderLineInput struct {
	FoodID   string
	Quantity int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	OwnerID        string
	Items          []OrderLineInput
	IdempotencyKey string
}

// OrderResult is returned by CreateOrder.
type OrderResult struct {
	Order *domain.Order
	// AlreadyExisted is true when the Idempotency-Key matched an earlier order.
	AlreadyExisted bool
}

// ListOrdersInput carries all parameters for the list endpoint.
type ListOrdersInput struct {
	Requester domain.Principal
	Status    string
	Page      int
	Limit     int
}

// OrderService defines use-case operations for orders.
type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderResult, error)
	ListOrders(ctx context.Context, in ListOrdersInput) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string, requester domain.Principal) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, requester domain.Principal) (*domain.Order, error)
	GetStats(ctx context.Context, requester domain.Principal) (*domain.OrderStats, error)
}
