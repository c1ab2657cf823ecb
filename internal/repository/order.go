package repository

import (
	"context"
	"errors"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	CreateHistory(ctx context.Context, tx *gorm.DB, entry *model.OrderStatusHistory) error
	NumberExists(ctx context.Context, tx *gorm.DB, orderNumber string) (bool, error)
	FindByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	FindByNumber(ctx context.Context, orderNumber string, customerID *uint) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID uint, offset, limit int) ([]*model.Order, int64, error)
	List(ctx context.Context, filter dto.OrderListFilter) ([]*model.Order, int64, error)
	// UpdateFields applies a partial update, failing if the order is gone.
	UpdateFields(ctx context.Context, tx *gorm.DB, orderID uint, fields map[string]interface{}) error
	// UpdateStatusGuarded applies fields only while the order still holds
	// from, as one conditional statement. Returns false when another
	// transaction moved the order first, so the check and the write cannot
	// be split by a concurrent transition.
	UpdateStatusGuarded(ctx context.Context, tx *gorm.DB, orderID uint, from model.OrderStatus, fields map[string]interface{}) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) CreateHistory(ctx context.Context, tx *gorm.DB, entry *model.OrderStatusHistory) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *orderRepoImpl) NumberExists(ctx context.Context, tx *gorm.DB, orderNumber string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	if tx == nil {
		tx = r.db
	}
	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("order %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) FindByNumber(ctx context.Context, orderNumber string, customerID *uint) (*model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("order_number = ?", orderNumber)
	if customerID != nil {
		q = q.Where("customer_id = ?", *customerID)
	}

	var order model.Order
	err := q.First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("order %s", orderNumber)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) ListByCustomer(ctx context.Context, customerID uint, offset, limit int) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("customer_id = ?", customerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter dto.OrderListFilter) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	switch filter.Fulfillment {
	case "unfulfilled":
		q = q.Where("status IN ?", []model.OrderStatus{model.StatusPending, model.StatusConfirmed, model.StatusProcessing})
	case "fulfilled":
		q = q.Where("status IN ?", []model.OrderStatus{model.StatusShipped, model.StatusDelivered})
	}
	if filter.Query != "" {
		term := "%" + filter.Query + "%"
		q = q.Where("order_number LIKE ? OR shipping_first_name LIKE ? OR shipping_last_name LIKE ?", term, term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepoImpl) UpdateStatusGuarded(ctx context.Context, tx *gorm.DB, orderID uint, from model.OrderStatus, fields map[string]interface{}) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepoImpl) UpdateFields(ctx context.Context, tx *gorm.DB, orderID uint, fields map[string]interface{}) error {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("order %d", orderID)
	}
	return nil
}
