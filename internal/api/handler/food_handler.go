package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

// FoodHandler exposes catalog maintenance for canteen operators.
type FoodHandler struct {
	service ports.FoodService
}

func NewFoodHandler(service ports.FoodService) *FoodHandler {
	return &FoodHandler{service: service}
}

// Create handles POST /foods.
//
// @Summary      Add a food item
// @Tags         foods
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createFoodRequest  true  "Food item (price in paise)"
// @Success      201   {object}  foodResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /foods [post]
func (h *FoodHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createFoodRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	food, err := h.service.CreateFood(c.Request().Context(), ports.CreateFoodInput{
		Requester: p,
		Name:      req.Name,
		Price:     domain.Money(req.Price),
		Available: available,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toFoodResponse(food))
}

// Update handles PATCH /foods/:id.
//
// @Summary      Change price or availability
// @Tags         foods
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Food id"
// @Param        body  body      updateFoodRequest  true  "Fields to change"
// @Success      200   {object}  foodResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /foods/{id} [patch]
func (h *FoodHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateFoodRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var upd ports.FoodUpdate
	if req.Price != nil {
		price := domain.Money(*req.Price)
		upd.Price = &price
	}
	upd.Available = req.Available

	food, err := h.service.UpdateFood(c.Request().Context(), p, c.Param("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFoodResponse(food))
}
