package service

import (
	"context"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/repository"
)

type CustomerService interface {
	ListAddresses(ctx context.Context, customerID uint) ([]*model.Address, error)
	// AddAddress saves a new address book entry. The first address a customer
	// saves becomes the default; marking a later one default demotes the
	// previous default atomically.
	AddAddress(ctx context.Context, customerID uint, req *dto.AddressRequest) (*model.Address, error)
}

type customerServiceImpl struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerServiceImpl{customerRepo: customerRepo}
}

func (s *customerServiceImpl) ListAddresses(ctx context.Context, customerID uint) ([]*model.Address, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.customerRepo.ListAddresses(ctx, customerID)
}

func (s *customerServiceImpl) AddAddress(ctx context.Context, customerID uint, req *dto.AddressRequest) (*model.Address, error) {
	if req.Address1 == "" {
		return nil, apperr.Validationf("address line 1 is required")
	}
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	address := &model.Address{
		CustomerID: customerID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Address1:   req.Address1,
		Address2:   req.Address2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}
	if err := s.customerRepo.SaveAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}
