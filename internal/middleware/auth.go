package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const customerIDKey = "customer_id"

// CustomerContext resolves the caller's identity. Real authentication is an
// external collaborator; for now the identity arrives as a header, absent for
// guests.
func CustomerContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := c.Request().Header.Get("X-Customer-ID"); raw != "" {
				if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
					c.Set(customerIDKey, uint(id))
				}
			}
			return next(c)
		}
	}
}

// CustomerID returns the resolved customer id, nil for guests.
func CustomerID(c echo.Context) *uint {
	if id, ok := c.Get(customerIDKey).(uint); ok {
		return &id
	}
	return nil
}

// RequireCustomer rejects guests on customer-only routes.
func RequireCustomer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CustomerID(c) == nil {
				return echo.NewHTTPError(401, "authentication required")
			}
			return next(c)
		}
	}
}
