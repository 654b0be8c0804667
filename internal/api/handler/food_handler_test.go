package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

type stubFoodService struct {
	createFn func(ctx context.Context, in ports.CreateFoodInput) (*domain.FoodItem, error)
	updateFn func(ctx context.Context, p domain.Principal, id string, upd ports.FoodUpdate) (*domain.FoodItem, error)
}

func (s *stubFoodService) CreateFood(ctx context.Context, in ports.CreateFoodInput) (*domain.FoodItem, error) {
	return s.createFn(ctx, in)
}

func (s *stubFoodService) UpdateFood(ctx context.Context, p domain.Principal, id string, upd ports.FoodUpdate) (*domain.FoodItem, error) {
	return s.updateFn(ctx, p, id, upd)
}

func TestFoodHandler_Create_DefaultsToAvailable(t *testing.T) {
	e := newEcho()
	stub := &stubFoodService{
		createFn: func(ctx context.Context, in ports.CreateFoodInput) (*domain.FoodItem, error) {
			if !in.Available || in.Price != 3000 || in.Requester.UserID != "s1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.FoodItem{ID: "f1", Name: in.Name, Price: in.Price, Available: in.Available}, nil
		},
	}
	h := NewFoodHandler(stub)

	rec := httptest.NewRecorder()
	c := authed(e.NewContext(jsonRequest(http.MethodPost, "/foods", `{"name":"Idli","price":3000}`), rec), "s1", domain.RoleCanteenStaff)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestFoodHandler_Create_Validation(t *testing.T) {
	e := newEcho()
	h := NewFoodHandler(&stubFoodService{})

	for _, body := range []string{`{"name":"Idli"}`, `{"name":"Idli","price":-1}`, `{"price":100}`} {
		c := authed(e.NewContext(jsonRequest(http.MethodPost, "/foods", body), httptest.NewRecorder()), "s1", domain.RoleCanteenStaff)
		if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("body %s: expected validation error, got %v", body, err)
		}
	}
}

func TestFoodHandler_Update(t *testing.T) {
	e := newEcho()
	stub := &stubFoodService{
		updateFn: func(ctx context.Context, p domain.Principal, id string, upd ports.FoodUpdate) (*domain.FoodItem, error) {
			if id != "f1" || upd.Price == nil || *upd.Price != 1800 || upd.Available != nil {
				t.Fatalf("unexpected update: %s %+v", id, upd)
			}
			return &domain.FoodItem{ID: id, Price: *upd.Price, Available: true}, nil
		},
	}
	h := NewFoodHandler(stub)

	rec := httptest.NewRecorder()
	c := authed(e.NewContext(jsonRequest(http.MethodPatch, "/", `{"price":1800}`), rec), "a1", domain.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("f1")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
