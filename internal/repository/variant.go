package repository

import (
	"context"
	"errors"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/model"

	"gorm.io/gorm"
)

type VariantRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, variantID uint) (*model.ProductVariant, error)
	// Debit atomically decrements stock, rejecting any decrement that would
	// go below zero, and appends one ledger row in the same transaction.
	Debit(ctx context.Context, tx *gorm.DB, variantID uint, quantity int, reason model.InventoryReason, orderID *uint, note string) (int, error)
	// Credit increments stock and appends one ledger row.
	Credit(ctx context.Context, tx *gorm.DB, variantID uint, quantity int, reason model.InventoryReason, orderID *uint, note string) (int, error)
	ListLedger(ctx context.Context, variantID uint) ([]*model.InventoryLog, error)
	SumLedger(ctx context.Context, variantID uint) (int, error)
	List(ctx context.Context, query string, offset, limit int) ([]*model.ProductVariant, int64, error)
}

type variantRepoImpl struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepoImpl{db: db}
}

func (r *variantRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, variantID uint) (*model.ProductVariant, error) {
	if tx == nil {
		tx = r.db
	}
	var variant model.ProductVariant
	err := tx.WithContext(ctx).First(&variant, variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("variant %d", variantID)
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepoImpl) Debit(ctx context.Context, tx *gorm.DB, variantID uint, quantity int, reason model.InventoryReason, orderID *uint, note string) (int, error) {
	if quantity <= 0 {
		return 0, apperr.Validationf("debit quantity must be positive")
	}

	// Guarded decrement: the WHERE clause is the insufficient-stock check and
	// the decrement in one statement, so two concurrent checkouts cannot both
	// pass a check that was only true sequentially.
	res := tx.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		variant, err := r.FindByID(ctx, tx, variantID)
		if err != nil {
			return 0, err
		}
		return variant.StockQuantity, &apperr.InsufficientStockError{
			VariantID: variantID,
			Available: variant.StockQuantity,
			Requested: quantity,
		}
	}

	return r.appendLedger(ctx, tx, variantID, -quantity, reason, orderID, note)
}

func (r *variantRepoImpl) Credit(ctx context.Context, tx *gorm.DB, variantID uint, quantity int, reason model.InventoryReason, orderID *uint, note string) (int, error) {
	if quantity <= 0 {
		return 0, apperr.Validationf("credit quantity must be positive")
	}

	res := tx.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFoundf("variant %d", variantID)
	}

	return r.appendLedger(ctx, tx, variantID, quantity, reason, orderID, note)
}

func (r *variantRepoImpl) appendLedger(ctx context.Context, tx *gorm.DB, variantID uint, change int, reason model.InventoryReason, orderID *uint, note string) (int, error) {
	entry := &model.InventoryLog{
		VariantID:      variantID,
		QuantityChange: change,
		Reason:         reason,
		OrderID:        orderID,
		Note:           note,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return 0, err
	}

	variant, err := r.FindByID(ctx, tx, variantID)
	if err != nil {
		return 0, err
	}
	return variant.StockQuantity, nil
}

func (r *variantRepoImpl) ListLedger(ctx context.Context, variantID uint) ([]*model.InventoryLog, error) {
	var entries []*model.InventoryLog
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *variantRepoImpl) SumLedger(ctx context.Context, variantID uint) (int, error) {
	var sum *int
	err := r.db.WithContext(ctx).Model(&model.InventoryLog{}).
		Where("variant_id = ?", variantID).
		Select("SUM(quantity_change)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *variantRepoImpl) List(ctx context.Context, query string, offset, limit int) ([]*model.ProductVariant, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductVariant{})
	if query != "" {
		q = q.Where("sku LIKE ?", "%"+query+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var variants []*model.ProductVariant
	err := q.Order("product_id ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&variants).Error
	if err != nil {
		return nil, 0, err
	}
	return variants, total, nil
}
