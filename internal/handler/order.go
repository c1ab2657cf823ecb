package handler

import (
	"net/http"
	"strconv"

	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/middleware"
	"marketbay-backend/internal/service"

	"github.com/labstack/echo/v4"
)

// OrderHandler serves the customer-facing order surface.
type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	customerID := middleware.CustomerID(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.orderService.ListForCustomer(ctx, *customerID, page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) GetByNumber(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetByNumber(ctx, c.Param("number"), middleware.CustomerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	customerID := middleware.CustomerID(c)

	order, err := h.orderService.CancelByCustomer(ctx, c.Param("number"), *customerID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// Track is public: anyone holding the order number and the matching email
// can see the order.
func (h *OrderHandler) Track(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TrackOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OrderNumber == "" || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order number and email are required")
	}

	order, err := h.orderService.Track(ctx, req.OrderNumber, req.Email)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}
