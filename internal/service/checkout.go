package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"marketbay-backend/internal/apperr"
	"marketbay-backend/internal/dto"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/notify"
	"marketbay-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberAttempts = 5

// Pricing carries the shipping rule as injected configuration: orders at or
// above FreeShippingThreshold ship free, everything else pays FlatShippingRate.
// Tax is fixed at zero under the current policy.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
}

type CheckoutService interface {
	// PlaceOrder turns a cart into a priced, inventory-debited, persisted
	// order as one atomic unit, or fails with nothing committed.
	PlaceOrder(ctx context.Context, customerID *uint, req *dto.CheckoutRequest) (*model.Order, error)
}

type checkoutServiceImpl struct {
	db            *gorm.DB
	log           *slog.Logger
	pricing       Pricing
	numberPrefix  string
	productRepo   repository.ProductRepository
	variantRepo   repository.VariantRepository
	orderRepo     repository.OrderRepository
	customerRepo  repository.CustomerRepository
	couponService CouponService
	notifier      *notify.Notifier
}

func NewCheckoutService(
	db *gorm.DB,
	log *slog.Logger,
	pricing Pricing,
	numberPrefix string,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	couponService CouponService,
	notifier *notify.Notifier,
) CheckoutService {
	return &checkoutServiceImpl{
		db:            db,
		log:           log,
		pricing:       pricing,
		numberPrefix:  numberPrefix,
		productRepo:   productRepo,
		variantRepo:   variantRepo,
		orderRepo:     orderRepo,
		customerRepo:  customerRepo,
		couponService: couponService,
		notifier:      notifier,
	}
}

func (s *checkoutServiceImpl) PlaceOrder(ctx context.Context, customerID *uint, req *dto.CheckoutRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validationf("order must contain at least one item")
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, apperr.Validationf("item quantity must be positive")
		}
	}
	if customerID == nil && req.GuestEmail == "" {
		return nil, apperr.Validationf("guest checkout requires an email")
	}

	var customerEmail string
	if customerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, *customerID)
		if err != nil {
			return nil, err
		}
		customerEmail = customer.Email
	} else {
		customerEmail = req.GuestEmail
	}

	// Variant rows are always locked in ascending id order so two checkouts
	// sharing two variants cannot deadlock each other.
	lines := make([]dto.LineRequest, len(req.Items))
	copy(lines, req.Items)
	sort.SliceStable(lines, func(i, j int) bool {
		switch {
		case lines[i].VariantID == nil:
			return false
		case lines[j].VariantID == nil:
			return true
		default:
			return *lines[i].VariantID < *lines[j].VariantID
		}
	})

	var orderID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		orderItems := make([]*model.OrderItem, 0, len(lines))

		for _, line := range lines {
			item, lineTotal, err := s.buildLine(ctx, tx, line)
			if err != nil {
				return err
			}
			subtotal = subtotal.Add(lineTotal)
			orderItems = append(orderItems, item)
		}

		discount := decimal.Zero
		var couponID *uint
		couponCode := ""
		if req.CouponCode != "" {
			applied, err := s.couponService.Validate(ctx, tx, req.CouponCode, customerID, subtotal)
			if err != nil {
				return err
			}
			discount = applied.DiscountAmount
			couponID = &applied.CouponID
			couponCode = applied.Code
		}

		shipping := s.pricing.FlatShippingRate
		if subtotal.GreaterThanOrEqual(s.pricing.FreeShippingThreshold) {
			shipping = decimal.Zero
		}
		tax := decimal.Zero
		total := subtotal.Sub(discount).Add(shipping).Add(tax)

		number, err := s.generateOrderNumber(ctx, tx)
		if err != nil {
			return err
		}

		order := &model.Order{
			OrderNumber:    number,
			CustomerID:     customerID,
			Status:         model.StatusPending,
			PaymentMethod:  "cod",
			PaymentStatus:  model.PaymentPending,
			Subtotal:       subtotal,
			ShippingCost:   shipping,
			DiscountAmount: discount,
			TaxAmount:      tax,
			Total:          total,
			CouponID:       couponID,
			CouponCode:     couponCode,

			ShippingFirstName:  req.ShippingAddress.FirstName,
			ShippingLastName:   req.ShippingAddress.LastName,
			ShippingPhone:      req.ShippingAddress.Phone,
			ShippingAddress1:   req.ShippingAddress.Address1,
			ShippingAddress2:   req.ShippingAddress.Address2,
			ShippingCity:       req.ShippingAddress.City,
			ShippingState:      req.ShippingAddress.State,
			ShippingPostalCode: req.ShippingAddress.PostalCode,
			ShippingCountry:    req.ShippingAddress.Country,

			CustomerNote: req.CustomerNote,
		}
		if customerID == nil {
			order.GuestEmail = req.GuestEmail
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		orderID = order.ID

		for _, item := range orderItems {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}

		if err := s.orderRepo.CreateHistory(ctx, tx, &model.OrderStatusHistory{
			OrderID: order.ID,
			Status:  model.StatusPending,
			Note:    "Order placed",
		}); err != nil {
			return fmt.Errorf("store status history: %w", err)
		}

		// Guests never record usage; the global cap was checked at
		// validation time and is best-effort for them.
		if couponID != nil && customerID != nil {
			if err := s.couponService.RecordUsage(ctx, tx, *couponID, *customerID, order.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}

	// post-commit only; failure here never unwinds the order
	s.notifier.Publish(notify.Event{
		Type:        notify.EventOrderPlaced,
		OrderNumber: order.OrderNumber,
		Email:       customerEmail,
		Status:      string(order.Status),
	})

	s.log.Info("order placed",
		"order_number", order.OrderNumber,
		"total", order.Total.String(),
		"items", len(order.Items),
	)
	return order, nil
}

// buildLine resolves one requested (product, variant, quantity), debits stock
// for variant-bearing lines, and snapshots the price paid.
func (s *checkoutServiceImpl) buildLine(ctx context.Context, tx *gorm.DB, line dto.LineRequest) (*model.OrderItem, decimal.Decimal, error) {
	product, err := s.productRepo.FindByID(ctx, tx, line.ProductID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !product.IsActive {
		return nil, decimal.Zero, apperr.Validationf("product %q is no longer available", product.Name)
	}

	unitPrice := product.BasePrice
	sku := product.SKU
	variantInfo := ""

	if line.VariantID != nil {
		variant, err := s.variantRepo.FindByID(ctx, tx, *line.VariantID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, decimal.Zero, apperr.Validationf("variant for %q is no longer available", product.Name)
		}
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !variant.IsActive {
			return nil, decimal.Zero, apperr.Validationf("variant for %q is no longer available", product.Name)
		}
		if variant.Price != nil {
			unitPrice = *variant.Price
		}
		if variant.SKU != "" {
			sku = variant.SKU
		}
		variantInfo = variant.VariantTitle

		_, err = s.variantRepo.Debit(ctx, tx, variant.ID, line.Quantity, model.ReasonOrderPlaced, nil, "Order placed")
		if err != nil {
			var stockErr *apperr.InsufficientStockError
			if errors.As(err, &stockErr) {
				stockErr.ProductName = product.Name
			}
			return nil, decimal.Zero, err
		}
	}

	if err := s.productRepo.IncrementSold(ctx, tx, product.ID, line.Quantity); err != nil {
		return nil, decimal.Zero, err
	}

	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	productID := product.ID
	return &model.OrderItem{
		ProductID:   &productID,
		VariantID:   line.VariantID,
		ProductName: product.Name,
		VariantInfo: variantInfo,
		SKU:         sku,
		Quantity:    line.Quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  lineTotal,
	}, lineTotal, nil
}

// generateOrderNumber produces prefix + 8 random digits, retrying on the rare
// collision instead of surfacing it.
func (s *checkoutServiceImpl) generateOrderNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	for range orderNumberAttempts {
		n, err := rand.Int(rand.Reader, big.NewInt(100000000))
		if err != nil {
			return "", err
		}
		number := fmt.Sprintf("%s%08d", s.numberPrefix, n.Int64())

		exists, err := s.orderRepo.NumberExists(ctx, tx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", orderNumberAttempts)
}
