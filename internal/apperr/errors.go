// Package apperr holds the domain error taxonomy. Every error here aborts
// the enclosing transaction; handlers translate them to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrIllegalTransition = errors.New("illegal status transition")
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// InsufficientStockError is always attributable to one variant so checkout
// failures can name the offending line.
type InsufficientStockError struct {
	VariantID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (variant %d): %d available, %d requested",
		e.ProductName, e.VariantID, e.Available, e.Requested)
}

type CouponRule string

const (
	CouponRuleNotFound     CouponRule = "not_found"
	CouponRuleInactive     CouponRule = "inactive"
	CouponRuleNotStarted   CouponRule = "not_started"
	CouponRuleExpired      CouponRule = "expired"
	CouponRuleUsageLimit   CouponRule = "usage_limit_reached"
	CouponRuleCustomerUsed CouponRule = "customer_limit_reached"
	CouponRuleMinimum      CouponRule = "below_minimum"
)

// CouponRejectedError carries the single rule that failed, first failing
// check wins.
type CouponRejectedError struct {
	Code    string
	Rule    CouponRule
	Message string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon %q rejected (%s): %s", e.Code, e.Rule, e.Message)
}

type IllegalTransitionError struct {
	OrderNumber string
	From        string
	To          string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("order %s: illegal transition %s -> %s", e.OrderNumber, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }
