package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

// CouponService is the discount engine. Validate is shared verbatim between
// checkout and the pre-checkout preview endpoint; RecordUsage is the separate
// step invoked only once the order row exists.
type CouponService interface {
	Validate(ctx context.Context, tx *gorm.DB, code string, customerID *uint, subtotal decimal.Decimal) (*dto.AppliedCoupon, error)
	RecordUsage(ctx context.Context, tx *gorm.DB, couponID, customerID, orderID uint) error
}

type couponServiceImpl struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) CouponService {
	return &couponServiceImpl{couponRepo: couponRepo}
}

// Validate applies the eligibility rules in order, first failing rule wins.
func (s *couponServiceImpl) Validate(ctx context.Context, tx *gorm.DB, code string, customerID *uint, subtotal decimal.Decimal) (*dto.AppliedCoupon, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, tx, code)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, &apperr.CouponRejectedError{Code: code, Rule: apperr.CouponRuleNotFound, Message: "invalid coupon code"}
	}
	if err != nil {
		return nil, err
	}

	if !coupon.IsActive {
		return nil, &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleInactive, Message: "coupon is not active"}
	}

	now := time.Now().UTC()
	if coupon.StartsAt != nil && coupon.StartsAt.After(now) {
		return nil, &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleNotStarted, Message: "coupon is not yet active"}
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now) {
		return nil, &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleExpired, Message: "coupon has expired"}
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleUsageLimit, Message: "coupon usage limit reached"}
	}

	// Per-customer cap only applies to known customers; guests have no
	// identity to count against.
	if customerID != nil {
		used, err := s.couponRepo.CountUsageByCustomer(ctx, tx, coupon.ID, *customerID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.UsagePerCustomer) {
			return nil, &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleCustomerUsed, Message: "you have already used this coupon"}
		}
	}

	if subtotal.LessThan(coupon.MinOrderAmount) {
		return nil, &apperr.CouponRejectedError{
			Code: coupon.Code,
			Rule: apperr.CouponRuleMinimum,
			Message: fmt.Sprintf("minimum order amount of %s required", coupon.MinOrderAmount.StringFixed(0)),
		}
	}

	discount := computeDiscount(coupon, subtotal)

	return &dto.AppliedCoupon{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		Type:           string(coupon.Type),
		Value:          coupon.Value,
		DiscountAmount: discount,
		Description:    coupon.Description,
	}, nil
}

func computeDiscount(coupon *model.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	if coupon.Type == model.CouponPercentage {
		discount = subtotal.Mul(coupon.Value).Div(oneHundred)
		if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
			discount = *coupon.MaxDiscount
		}
	} else {
		discount = coupon.Value
	}

	// a coupon can make an order free but never negative
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2)
}

// RecordUsage increments used_count first; that write takes the coupon row
// lock, so the capped usage insert that follows is serialized against any
// concurrent redemption of the same coupon. If either guard fails the whole
// surrounding transaction rolls back, increment included.
func (s *couponServiceImpl) RecordUsage(ctx context.Context, tx *gorm.DB, couponID, customerID, orderID uint) error {
	coupon, err := s.couponRepo.FindByID(ctx, tx, couponID)
	if err != nil {
		return err
	}

	ok, err := s.couponRepo.IncrementUsed(ctx, tx, couponID)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleUsageLimit, Message: "coupon usage limit reached"}
	}

	ok, err = s.couponRepo.InsertUsageCapped(ctx, tx, couponID, customerID, orderID, coupon.UsagePerCustomer)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.CouponRejectedError{Code: coupon.Code, Rule: apperr.CouponRuleCustomerUsed, Message: "you have already used this coupon"}
	}
	return nil
}
