package domain

import (
	"math"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{StatusPlaced, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:    {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// MaxItemQuantity caps the quantity of a single order line.
const MaxItemQuantity = 100

// OrderItem is a line item with the unit price captured at checkout.
type OrderItem struct {
	FoodID    string `json:"food_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
}

// Subtotal is quantity × unit price.
func (i OrderItem) Subtotal() Money {
	return Money(i.Quantity) * i.UnitPrice
}

// StatusHistoryEntry records a single status change on an order.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"`
}

// Order is the core aggregate root of the ordering flow.
type Order struct {
	ID            string               `json:"id"`
	PickupCode    string               `json:"pickup_code"`
	UserID        string               `json:"user_id"`
	Items         []OrderItem          `json:"items"`
	Total         Money                `json:"total"`
	Status        OrderStatus          `json:"status"`
	StatusHistory []StatusHistoryEntry `json:"status_history"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// OrderTotal sums the line items. It fails with ErrInvalidItem when a quantity or
// price is not positive or the sum does not fit in Money.
func OrderTotal(items []OrderItem) (Money, error) {
	var total Money
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice <= 0 {
			return 0, ErrInvalidItem
		}
		if it.UnitPrice > math.MaxInt64/Money(it.Quantity) {
			return 0, ErrInvalidItem
		}
		sub := it.Subtotal()
		if total > math.MaxInt64-sub {
			return 0, ErrInvalidItem
		}
		total += sub
	}
	return total, nil
}

// OrderStats aggregates orders for the canteen dashboard.
type OrderStats struct {
	ByStatus    map[OrderStatus]int64
	TotalOrders int64
	// Revenue sums totals of every order that is not cancelled.
	Revenue Money
}
