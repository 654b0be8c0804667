package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

// Context keys set by Auth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxToken  = "token"
)

// TokenVerifier is the part of the token issuer the middleware needs.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// Auth validates the bearer token and injects the principal into context.
// It never touches the user store; handlers that need the full profile load it.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrMissingToken
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return domain.ErrMissingToken
			}
			token := strings.TrimSpace(parts[1])

			p, err := verifier.Verify(token)
			if err != nil {
				return err
			}

			c.Set(CtxUserID, p.UserID)
			c.Set(CtxRole, p.Role)
			c.Set(CtxToken, token)

			return next(c)
		}
	}
}
