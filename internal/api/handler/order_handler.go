package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/canteenx/canteen-system/internal/api/metrics"
	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /orders.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createOrderRequest  true   "Order lines"
// @Success      201              {object}  orderResponse
// @Success      200              {object}  orderResponse  "Replayed order for a repeated Idempotency-Key"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	lines := make([]ports.OrderLineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, ports.OrderLineInput{FoodID: it.FoodID, Quantity: it.Quantity})
	}

	result, err := h.service.CreateOrder(c.Request().Context(), ports.CreateOrderInput{
		OwnerID:        p.UserID,
		Items:          lines,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	if result.AlreadyExisted {
		return c.JSON(http.StatusOK, toOrderResponse(result.Order))
	}
	metrics.RecordOrderCreated(result.Order.Total)
	return c.JSON(http.StatusCreated, toOrderResponse(result.Order))
}

// List handles GET /orders.
//
// @Summary      List orders
// @Description  Students see their own orders; canteen staff and admins see all.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        limit   query     int     false  "Page size (max 100, 0 = all)"
// @Success      200     {object}  listOrdersResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Router       /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var q listOrdersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	orders, err := h.service.ListOrders(c.Request().Context(), ports.ListOrdersInput{
		Requester: p,
		Status:    q.Status,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		return err
	}

	resp := listOrdersResponse{Data: make([]orderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Data = append(resp.Data, toOrderResponse(o))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// UpdateStatus handles PATCH /orders/:id/status.
//
// @Summary      Change order status
// @Description  Staff move orders through placed → preparing → ready → completed. Owners may only cancel.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Order id"
// @Param        body  body      updateStatusRequest  true  "Target status"
// @Success      200   {object}  orderResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	next := domain.OrderStatus(req.Status)
	order, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), next, p)
	if err != nil {
		return err
	}
	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(next)).Inc()
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// Stats handles GET /orders/stats.
//
// @Summary      Order statistics
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  orderStatsResponse
// @Failure      403  {object}  errorResponse
// @Router       /orders/stats [get]
func (h *OrderHandler) Stats(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.GetStats(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderStatsResponse(stats))
}
