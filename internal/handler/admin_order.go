package handler

import (
	"net/http"
	"strconv"

	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/middleware"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/service"

	"github.com/labstack/echo/v4"
)

// AdminOrderHandler serves the back-office order surface.
type AdminOrderHandler struct {
	orderService service.OrderService
}

func NewAdminOrderHandler(orderService service.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orderService: orderService}
}

func (h *AdminOrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.orderService.List(ctx, dto.OrderListFilter{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		Fulfillment:   c.QueryParam("fulfillment"),
		Query:         c.QueryParam("q"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AdminOrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.GetByID(ctx, orderID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req dto.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.orderService.Transition(ctx, orderID, model.OrderStatus(req.Status), req.Note, middleware.CustomerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) UpdateTracking(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req dto.TrackingUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TrackingNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tracking number is required")
	}

	order, err := h.orderService.UpdateTracking(ctx, orderID, req.TrackingNumber, req.TrackingURL)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) UpdateNote(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req dto.NoteUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.orderService.UpdateAdminNote(ctx, orderID, req.AdminNote)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) MarkPaid(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.MarkPaid(ctx, orderID, middleware.CustomerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func orderIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}
