package handler

import (
	"time"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func toUserResponse(u domain.UserView) userResponse {
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		CollegeID:  u.CollegeID,
		Phone:      u.Phone,
		Department: u.Department,
		Role:       string(u.Role),
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		PickupCode:    o.PickupCode,
		UserID:        o.UserID,
		Items:         make([]orderItemResponse, 0, len(o.Items)),
		Total:         int64(o.Total),
		Status:        string(o.Status),
		StatusHistory: make([]statusHistoryResponse, 0, len(o.StatusHistory)),
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
		Links:         orderLinks{Self: "/orders/" + o.ID},
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			FoodID:    it.FoodID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: int64(it.UnitPrice),
			Subtotal:  int64(it.Subtotal()),
		})
	}
	for _, h := range o.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, statusHistoryResponse{
			Status:    string(h.Status),
			Timestamp: formatTime(h.Timestamp),
			ActorID:   h.ActorID,
		})
	}
	return resp
}

func toOrderStatsResponse(s *domain.OrderStats) orderStatsResponse {
	by := make(map[string]int64, len(s.ByStatus))
	for st, n := range s.ByStatus {
		by[string(st)] = n
	}
	return orderStatsResponse{
		ByStatus:    by,
		TotalOrders: s.TotalOrders,
		Revenue:     int64(s.Revenue),
	}
}

func toFoodResponse(f *domain.FoodItem) foodResponse {
	return foodResponse{
		ID:        f.ID,
		Name:      f.Name,
		Price:     int64(f.Price),
		Available: f.Available,
		CreatedAt: formatTime(f.CreatedAt),
		UpdatedAt: formatTime(f.UpdatedAt),
	}
}
