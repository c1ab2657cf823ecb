package service

import (
	"context"
	"log/slog"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/repository"

	"gorm.io/gorm"
)

type InventoryService interface {
	// Adjust applies a signed manual stock change through the same ledger
	// guard as checkout, so a negative adjustment can never drive stock
	// below zero.
	Adjust(ctx context.Context, variantID uint, change int, reason model.InventoryReason, note string) (*dto.StockAdjusted, error)
	List(ctx context.Context, query string, page, pageSize int) (*dto.Page[dto.InventoryItem], error)
	Ledger(ctx context.Context, variantID uint) ([]*model.InventoryLog, error)
}

type inventoryServiceImpl struct {
	db          *gorm.DB
	log         *slog.Logger
	variantRepo repository.VariantRepository
	productRepo repository.ProductRepository
}

func NewInventoryService(
	db *gorm.DB,
	log *slog.Logger,
	variantRepo repository.VariantRepository,
	productRepo repository.ProductRepository,
) InventoryService {
	return &inventoryServiceImpl{
		db:          db,
		log:         log,
		variantRepo: variantRepo,
		productRepo: productRepo,
	}
}

func (s *inventoryServiceImpl) Adjust(ctx context.Context, variantID uint, change int, reason model.InventoryReason, note string) (*dto.StockAdjusted, error) {
	if change == 0 {
		return nil, apperr.Validationf("quantity change must be non-zero")
	}
	if !reason.Valid() {
		return nil, apperr.Validationf("unknown inventory reason %q", reason)
	}

	var adjusted *dto.StockAdjusted
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		variant, err := s.variantRepo.FindByID(ctx, tx, variantID)
		if err != nil {
			return err
		}

		var newStock int
		if change < 0 {
			newStock, err = s.variantRepo.Debit(ctx, tx, variantID, -change, reason, nil, note)
		} else {
			newStock, err = s.variantRepo.Credit(ctx, tx, variantID, change, reason, nil, note)
		}
		if err != nil {
			return err
		}

		adjusted = &dto.StockAdjusted{
			VariantID:      variantID,
			SKU:            variant.SKU,
			PreviousStock:  newStock - change,
			NewStock:       newStock,
			QuantityChange: change,
			Reason:         string(reason),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock adjusted",
		"variant_id", variantID,
		"change", change,
		"reason", string(reason),
		"new_stock", adjusted.NewStock,
	)
	return adjusted, nil
}

func (s *inventoryServiceImpl) List(ctx context.Context, query string, page, pageSize int) (*dto.Page[dto.InventoryItem], error) {
	page, pageSize = normalizePage(page, pageSize)
	variants, total, err := s.variantRepo.List(ctx, query, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uint, 0, len(variants))
	seen := make(map[uint]bool)
	for _, v := range variants {
		if !seen[v.ProductID] {
			seen[v.ProductID] = true
			productIDs = append(productIDs, v.ProductID)
		}
	}

	names := make(map[uint]string)
	if len(productIDs) > 0 {
		products, err := s.productRepo.FindMany(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			names[p.ID] = p.Name
		}
	}

	items := make([]dto.InventoryItem, 0, len(variants))
	for _, v := range variants {
		items = append(items, dto.InventoryItem{
			VariantID:         v.ID,
			ProductID:         v.ProductID,
			ProductName:       names[v.ProductID],
			VariantTitle:      v.VariantTitle,
			SKU:               v.SKU,
			StockQuantity:     v.StockQuantity,
			LowStockThreshold: v.LowStockThreshold,
			LowStock:          v.StockQuantity <= v.LowStockThreshold,
			IsActive:          v.IsActive,
		})
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.Page[dto.InventoryItem]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *inventoryServiceImpl) Ledger(ctx context.Context, variantID uint) ([]*model.InventoryLog, error) {
	if _, err := s.variantRepo.FindByID(ctx, nil, variantID); err != nil {
		return nil, err
	}
	return s.variantRepo.ListLedger(ctx, variantID)
}
