package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/model"

	"gorm.io/gorm"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Coupon, error)
	FindByID(ctx context.Context, tx *gorm.DB, couponID uint) (*model.Coupon, error)
	CountUsageByCustomer(ctx context.Context, tx *gorm.DB, couponID, customerID uint) (int64, error)
	// IncrementUsed bumps used_count, guarded so it can never exceed
	// usage_limit. Returns false when the limit is already reached. The
	// write also takes the coupon row lock, serializing redemptions of one
	// coupon for the rest of the transaction.
	IncrementUsed(ctx context.Context, tx *gorm.DB, couponID uint) (bool, error)
	// InsertUsageCapped inserts a usage record only while the customer's
	// count for this coupon is below cap, as one atomic statement. Returns
	// false when the cap is already met.
	InsertUsageCapped(ctx context.Context, tx *gorm.DB, couponID, customerID, orderID uint, cap int) (bool, error)
}

type couponRepoImpl struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{db: db}
}

func (r *couponRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Coupon, error) {
	if tx == nil {
		tx = r.db
	}
	var coupon model.Coupon
	err := tx.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("coupon %q", code)
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, couponID uint) (*model.Coupon, error) {
	if tx == nil {
		tx = r.db
	}
	var coupon model.Coupon
	err := tx.WithContext(ctx).First(&coupon, couponID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("coupon %d", couponID)
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepoImpl) CountUsageByCustomer(ctx context.Context, tx *gorm.DB, couponID, customerID uint) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Model(&model.CouponUsage{}).
		Where("coupon_id = ? AND customer_id = ?", couponID, customerID).
		Count(&count).Error
	return count, err
}

func (r *couponRepoImpl) IncrementUsed(ctx context.Context, tx *gorm.DB, couponID uint) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *couponRepoImpl) InsertUsageCapped(ctx context.Context, tx *gorm.DB, couponID, customerID, orderID uint, cap int) (bool, error) {
	res := tx.WithContext(ctx).Exec(`
		INSERT INTO coupon_usages (coupon_id, customer_id, order_id, created_at)
		SELECT ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND customer_id = ?) < ?`,
		couponID, customerID, orderID, time.Now().UTC(),
		couponID, customerID, cap,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
