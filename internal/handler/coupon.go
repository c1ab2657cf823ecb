package handler

import (
	"net/http"

	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/middleware"
	"marketbay-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type CouponHandler struct {
	couponService service.CouponService
}

func NewCouponHandler(couponService service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// Apply previews a coupon against a subtotal using the exact validation that
// checkout will run, so the two can never disagree.
func (h *CouponHandler) Apply(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ApplyCouponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "coupon code is required")
	}

	applied, err := h.couponService.Validate(ctx, nil, req.Code, middleware.CustomerID(c), req.Subtotal)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, applied)
}
