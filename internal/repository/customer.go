package repository

import (
	"context"
	"errors"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, customerID uint) (*model.Customer, error)
	ListAddresses(ctx context.Context, customerID uint) ([]*model.Address, error)
	// SaveAddress upserts an address; marking one default unsets every other
	// default for the customer in the same transaction, so there is never a
	// window with zero or two defaults.
	SaveAddress(ctx context.Context, address *model.Address) error
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{db: db}
}

func (r *customerRepoImpl) FindByID(ctx context.Context, customerID uint) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).First(&customer, customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("customer %d", customerID)
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepoImpl) ListAddresses(ctx context.Context, customerID uint) ([]*model.Address, error) {
	var addresses []*model.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, id ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *customerRepoImpl) SaveAddress(ctx context.Context, address *model.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Address{}).
			Where("customer_id = ?", address.CustomerID).
			Count(&count).Error; err != nil {
			return err
		}
		// first address becomes the default
		if count == 0 {
			address.IsDefault = true
		}

		if address.IsDefault {
			if err := tx.Model(&model.Address{}).
				Where("customer_id = ? AND is_default = ?", address.CustomerID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}

		return tx.Save(address).Error
	})
}
