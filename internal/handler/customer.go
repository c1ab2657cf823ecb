package handler

import (
	"net/http"

	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/middleware"
	"marketbay-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()

	addresses, err := h.customerService.ListAddresses(ctx, *middleware.CustomerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, addresses)
}

func (h *CustomerHandler) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	address, err := h.customerService.AddAddress(ctx, *middleware.CustomerID(c), &req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, address)
}
