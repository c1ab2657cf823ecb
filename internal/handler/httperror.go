package handler

import (
	"errors"
	"net/http"

	"marketbay-backend/internal/apperr"

	"github.com/labstack/echo/v4"
)

// toHTTPError maps domain errors to transport codes; the body keeps the
// attributable detail (which line, which coupon rule) the caller needs.
func toHTTPError(err error) error {
	var stockErr *apperr.InsufficientStockError
	if errors.As(err, &stockErr) {
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error":      stockErr.Error(),
			"variant_id": stockErr.VariantID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	}

	var couponErr *apperr.CouponRejectedError
	if errors.As(err, &couponErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": couponErr.Message,
			"code":  couponErr.Code,
			"rule":  string(couponErr.Rule),
		})
	}

	var transitionErr *apperr.IllegalTransitionError
	if errors.As(err, &transitionErr) {
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error": transitionErr.Error(),
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
