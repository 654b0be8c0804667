package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/canteenx/canteen-system/internal/api/middleware"
	"github.com/canteenx/canteen-system/internal/core/domain"
)

// principal extracts the caller identity injected by the Auth middleware and
// fails fast when the middleware did not run.
func principal(c echo.Context) (domain.Principal, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(domain.Role)
	if userID == "" || !role.Valid() {
		return domain.Principal{}, domain.ErrInvalidToken
	}
	return domain.Principal{UserID: userID, Role: role}, nil
}
