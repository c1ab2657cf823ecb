package handler

import (
	"net/http"
	"strconv"

	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.inventoryService.List(ctx, c.QueryParam("q"), page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *InventoryHandler) Adjust(c echo.Context) error {
	ctx := c.Request().Context()

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}

	var req dto.StockAdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	adjusted, err := h.inventoryService.Adjust(ctx, uint(variantID), req.QuantityChange, model.InventoryReason(req.Reason), req.Note)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, adjusted)
}

func (h *InventoryHandler) Ledger(c echo.Context) error {
	ctx := c.Request().Context()

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}

	entries, err := h.inventoryService.Ledger(ctx, uint(variantID))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, entries)
}
