package service_test

import (
	"testing"
	"time"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func rejectedWith(t *testing.T, err error, rule apperr.CouponRule) {
	t.Helper()
	var couponErr *apperr.CouponRejectedError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, rule, couponErr.Rule)
}

func TestValidateRuleOrder(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t, "rules@example.com")
	subtotal := decimal.NewFromInt(4000)

	t.Run("unknown code", func(t *testing.T) {
		_, err := f.coupon.Validate(t.Context(), nil, "NOPE", nil, subtotal)
		rejectedWith(t, err, apperr.CouponRuleNotFound)
	})

	t.Run("inactive", func(t *testing.T) {
		f.seedCoupon(t, couponSpec{code: "OFF", kind: model.CouponFixedAmount, value: 100, active: false})
		_, err := f.coupon.Validate(t.Context(), nil, "OFF", nil, subtotal)
		rejectedWith(t, err, apperr.CouponRuleInactive)
	})

	t.Run("not yet started", func(t *testing.T) {
		future := time.Now().UTC().Add(24 * time.Hour)
		f.seedCoupon(t, couponSpec{code: "SOON", kind: model.CouponFixedAmount, value: 100, active: true, startsAt: &future})
		_, err := f.coupon.Validate(t.Context(), nil, "SOON", nil, subtotal)
		rejectedWith(t, err, apperr.CouponRuleNotStarted)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().UTC().Add(-24 * time.Hour)
		f.seedCoupon(t, couponSpec{code: "GONE", kind: model.CouponFixedAmount, value: 100, active: true, expiresAt: &past})
		_, err := f.coupon.Validate(t.Context(), nil, "GONE", nil, subtotal)
		rejectedWith(t, err, apperr.CouponRuleExpired)
	})

	t.Run("global usage limit", func(t *testing.T) {
		coupon := f.seedCoupon(t, couponSpec{code: "CAPPED", kind: model.CouponFixedAmount, value: 100, active: true, usageLimit: intPtr(1)})
		require.NoError(t, f.db.Model(coupon).Update("used_count", 1).Error)
		_, err := f.coupon.Validate(t.Context(), nil, "CAPPED", nil, subtotal)
		rejectedWith(t, err, apperr.CouponRuleUsageLimit)
	})

	t.Run("per customer limit", func(t *testing.T) {
		coupon := f.seedCoupon(t, couponSpec{code: "PERUSER", kind: model.CouponFixedAmount, value: 100, active: true, usagePerCustomer: 1})
		require.NoError(t, f.db.Create(&model.CouponUsage{CouponID: coupon.ID, CustomerID: customer.ID, OrderID: 1}).Error)

		_, err := f.coupon.Validate(t.Context(), nil, "PERUSER", &customer.ID, subtotal)
		rejectedWith(t, err, apperr.CouponRuleCustomerUsed)

		// guests are not subject to the per-customer cap
		_, err = f.coupon.Validate(t.Context(), nil, "PERUSER", nil, subtotal)
		require.NoError(t, err)
	})

	t.Run("below minimum", func(t *testing.T) {
		f.seedCoupon(t, couponSpec{code: "MIN5K", kind: model.CouponFixedAmount, value: 100, minOrder: 5000, active: true})
		_, err := f.coupon.Validate(t.Context(), nil, "MIN5K", nil, subtotal)
		rejectedWith(t, err, apperr.CouponRuleMinimum)
	})
}

func TestValidateCodeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.seedCoupon(t, couponSpec{code: "MIXED", kind: model.CouponFixedAmount, value: 50, active: true})

	applied, err := f.coupon.Validate(t.Context(), nil, "mixed", nil, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "MIXED", applied.Code)
}

func TestDiscountComputation(t *testing.T) {
	f := newFixture(t)
	f.seedCoupon(t, couponSpec{code: "P20", kind: model.CouponPercentage, value: 20, active: true})
	f.seedCoupon(t, couponSpec{code: "P20CAP", kind: model.CouponPercentage, value: 20, maxDiscount: int64Ptr(800), active: true})
	f.seedCoupon(t, couponSpec{code: "F9000", kind: model.CouponFixedAmount, value: 9000, active: true})

	tests := []struct {
		name     string
		code     string
		subtotal int64
		want     int64
	}{
		{"percentage", "P20", 6000, 1200},
		{"percentage clamped to cap", "P20CAP", 6000, 800},
		{"fixed clamped to subtotal", "F9000", 4000, 4000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := f.coupon.Validate(t.Context(), nil, tt.code, nil, decimal.NewFromInt(tt.subtotal))
			require.NoError(t, err)
			assert.True(t, applied.DiscountAmount.Equal(decimal.NewFromInt(tt.want)),
				"discount = %s, want %d", applied.DiscountAmount, tt.want)
		})
	}
}

func (f *fixture) recordUsage(t *testing.T, couponID, customerID, orderID uint) error {
	t.Helper()
	return f.db.Transaction(func(tx *gorm.DB) error {
		return f.coupon.RecordUsage(t.Context(), tx, couponID, customerID, orderID)
	})
}

func TestRecordUsageEnforcesGlobalLimit(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t, "limit@example.com")
	other := f.seedCustomer(t, "other@example.com")
	coupon := f.seedCoupon(t, couponSpec{code: "LIMIT1", kind: model.CouponFixedAmount, value: 100, active: true, usageLimit: intPtr(1), usagePerCustomer: 5})

	require.NoError(t, f.recordUsage(t, coupon.ID, customer.ID, 10))

	err := f.recordUsage(t, coupon.ID, other.ID, 11)
	rejectedWith(t, err, apperr.CouponRuleUsageLimit)

	var reloaded model.Coupon
	require.NoError(t, f.db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestRecordUsageEnforcesPerCustomerCap(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t, "twice@example.com")
	coupon := f.seedCoupon(t, couponSpec{code: "ONEPER", kind: model.CouponFixedAmount, value: 100, active: true, usagePerCustomer: 1})

	require.NoError(t, f.recordUsage(t, coupon.ID, customer.ID, 20))

	err := f.recordUsage(t, coupon.ID, customer.ID, 21)
	rejectedWith(t, err, apperr.CouponRuleCustomerUsed)

	// the rejected attempt rolls back its increment too
	var reloaded model.Coupon
	require.NoError(t, f.db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)

	var usageCount int64
	require.NoError(t, f.db.Model(&model.CouponUsage{}).Where("coupon_id = ?", coupon.ID).Count(&usageCount).Error)
	assert.EqualValues(t, 1, usageCount)
}
