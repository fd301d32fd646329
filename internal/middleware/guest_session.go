package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	GuestIDHeader = "X-Guest-ID"
	CtxGuestIDKey = "guest_id" // string
)

// X-Guest-IDがあればcontextに入れる（無くても通す）
func GuestSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(GuestIDHeader)
			if raw == "" {
				return next(c)
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorJSON("invalid guest id"))
			}

			c.Set(CtxGuestIDKey, id.String())
			return next(c)
		}
	}
}
