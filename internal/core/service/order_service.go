package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

const maxListLimit = 100

// IdempotencyStore abstracts the checkout replay store (Redis).
type IdempotencyStore interface {
	// Claim atomically reserves (ownerID, key). When the key is already held,
	// claimed is false and orderID is the order it produced, empty while that
	// checkout is still running.
	Claim(ctx context.Context, ownerID, key string) (orderID string, claimed bool, err error)
	Complete(ctx context.Context, ownerID, key, orderID string) error
	Release(ctx context.Context, ownerID, key string) error
}

type OrderService struct {
	orders      ports.OrderRepository
	foods       ports.FoodRepository
	users       ports.UserRepository
	idempotency IdempotencyStore
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService wires the order use cases. idempotency may be nil, in which case
// Idempotency-Key headers are ignored.
func NewOrderService(
	orders ports.OrderRepository,
	foods ports.FoodRepository,
	users ports.UserRepository,
	idempotency IdempotencyStore,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		foods:       foods,
		users:       users,
		idempotency: idempotency,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder prices the requested lines against the current catalog and stores a
// new order in status placed. With an idempotency key, the key is claimed before
// anything is written: a repeated key returns the order it produced, and a key
// whose first request is still running fails with ErrCheckoutInProgress.
func (s *OrderService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range in.Items {
		if line.FoodID == "" || line.Quantity <= 0 || line.Quantity > domain.MaxItemQuantity {
			return nil, domain.ErrInvalidItem
		}
	}

	existing, claimed, err := s.claim(ctx, in)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ports.OrderResult{Order: existing, AlreadyExisted: true}, nil
	}

	order, err := s.place(ctx, in)
	if claimed {
		s.settle(ctx, in, order, err)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", in.OwnerID).
		Int64("total", int64(order.Total)).
		Msg("order placed")

	return &ports.OrderResult{Order: order}, nil
}

func (s *OrderService) place(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	if _, err := s.users.FindByID(ctx, in.OwnerID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("create order: load owner: %w: %w", domain.ErrInternal, err)
	}

	items, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	total, err := domain.OrderTotal(items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		PickupCode: generatePickupCode(),
		UserID:     in.OwnerID,
		Items:      items,
		Total:      total,
		Status:     domain.StatusPlaced,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusPlaced, Timestamp: now, ActorID: in.OwnerID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("user_id", in.OwnerID).Msg("failed to create order")
		return nil, fmt.Errorf("create order: %w: %w", domain.ErrInternal, err)
	}
	return order, nil
}

// claim reserves the idempotency key. It returns the previously created order
// on a replay, and claimed=true when this request must settle the key. Store
// failures are logged and the order is created without a key.
func (s *OrderService) claim(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, bool, error) {
	if in.IdempotencyKey == "" || s.idempotency == nil {
		return nil, false, nil
	}
	orderID, claimed, err := s.idempotency.Claim(ctx, in.OwnerID, in.IdempotencyKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency store unavailable, creating without key")
		return nil, false, nil
	}
	if claimed {
		return nil, true, nil
	}
	if orderID == "" {
		return nil, false, domain.ErrCheckoutInProgress
	}

	existing, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, false, fmt.Errorf("create order: load replayed order %s: %w: %w", orderID, domain.ErrInternal, err)
	}
	s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("order_id", existing.ID).Msg("idempotent replay")
	return existing, false, nil
}

// settle records the created order under the claimed key, or releases the key
// when the checkout failed so the client can retry it.
func (s *OrderService) settle(ctx context.Context, in ports.CreateOrderInput, order *domain.Order, placeErr error) {
	if placeErr != nil {
		if err := s.idempotency.Release(ctx, in.OwnerID, in.IdempotencyKey); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
		}
		return
	}
	if err := s.idempotency.Complete(ctx, in.OwnerID, in.IdempotencyKey, order.ID); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("failed to store idempotency key")
	}
}

// priceLines snapshots the current name and price of each requested food.
func (s *OrderService) priceLines(ctx context.Context, lines []ports.OrderLineInput) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.FoodID)
	}

	foods, err := s.foods.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("create order: resolve prices: %w: %w", domain.ErrInternal, err)
	}
	byID := make(map[string]*domain.FoodItem, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		f, ok := byID[l.FoodID]
		if !ok || !f.Available {
			return nil, domain.ErrInvalidItem
		}
		items = append(items, domain.OrderItem{
			FoodID:    f.ID,
			Name:      f.Name,
			Quantity:  l.Quantity,
			UnitPrice: f.Price,
		})
	}
	return items, nil
}

// ListOrders returns every order for operators and only the requester's own otherwise.
func (s *OrderService) ListOrders(ctx context.Context, in ports.ListOrdersInput) ([]*domain.Order, error) {
	filter := ports.ListOrdersFilter{Page: in.Page, Limit: in.Limit}
	if !domain.IsStaff(in.Requester.Role) {
		filter.UserID = in.Requester.UserID
	}
	if in.Status != "" {
		st := domain.OrderStatus(in.Status)
		if !st.Valid() {
			return nil, &domain.Error{Kind: domain.ErrValidation, Code: "invalid_status", Message: "unknown order status", Field: "status"}
		}
		filter.Status = st
	}
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w: %w", domain.ErrInternal, err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string, requester domain.Principal) (*domain.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanViewOrder(requester, order) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// UpdateStatus moves an order along its lifecycle on behalf of requester.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, requester domain.Principal) (*domain.Order, error) {
	if !domain.CanRequestStatus(requester, next) {
		return nil, domain.ErrForbidden
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanChangeStatus(requester, order, next) {
		return nil, domain.ErrForbidden
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("update status: %w (from %s to %s)", domain.ErrInvalidTransition, order.Status, next)
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next, s.now(), requester.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update status: %w: %w", domain.ErrInternal, err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("from", string(order.Status)).
		Str("to", string(next)).
		Str("actor", requester.UserID).
		Msg("order status changed")

	return updated, nil
}

func (s *OrderService) GetStats(ctx context.Context, requester domain.Principal) (*domain.OrderStats, error) {
	if !domain.CanViewStats(requester) {
		return nil, domain.ErrForbidden
	}
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w: %w", domain.ErrInternal, err)
	}
	if stats.ByStatus == nil {
		stats.ByStatus = make(map[domain.OrderStatus]int64, len(domain.AllStatuses))
	}
	for _, st := range domain.AllStatuses {
		if _, ok := stats.ByStatus[st]; !ok {
			stats.ByStatus[st] = 0
		}
	}
	return stats, nil
}

func (s *OrderService) load(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w: %w", domain.ErrInternal, err)
	}
	return order, nil
}

// generatePickupCode returns a short code in the format CX-XXXXXXXX shown at the counter.
func generatePickupCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("CX-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("CX-%08X", b)
}
