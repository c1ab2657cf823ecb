package service_test

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"marketbay-backend/internal/client"
	"marketbay-backend/internal/model"
	"marketbay-backend/internal/notify"
	"marketbay-backend/internal/repository"
	"marketbay-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection: concurrent transactions serialize at the storage
	// layer, mirroring row-level locking in production
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.Migrate(db))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	variants  repository.VariantRepository
	coupons   repository.CouponRepository
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	coupon    service.CouponService
	checkout  service.CheckoutService
	order     service.OrderService
	customer  service.CustomerService
	inventory service.InventoryService
	notifier  *notify.Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := openTestDB(t)
	log := testLogger()

	f := &fixture{
		db:        db,
		products:  repository.NewProductRepository(db),
		variants:  repository.NewVariantRepository(db),
		coupons:   repository.NewCouponRepository(db),
		orders:    repository.NewOrderRepository(db),
		customers: repository.NewCustomerRepository(db),
	}
	f.notifier = notify.New(log, &notify.LogSender{Log: log})
	t.Cleanup(f.notifier.Close)

	f.coupon = service.NewCouponService(f.coupons)
	f.checkout = service.NewCheckoutService(
		db, log,
		service.Pricing{
			FreeShippingThreshold: decimal.NewFromInt(5000),
			FlatShippingRate:      decimal.NewFromInt(200),
		},
		"MB-",
		f.products, f.variants, f.orders, f.customers,
		f.coupon, f.notifier,
	)
	f.order = service.NewOrderService(db, log, f.orders, f.variants, f.customers, f.notifier)
	f.customer = service.NewCustomerService(f.customers)
	f.inventory = service.NewInventoryService(db, log, f.variants, f.products)
	return f
}

func (f *fixture) seedCustomer(t *testing.T, email string) *model.Customer {
	t.Helper()
	customer := &model.Customer{Email: email, FirstName: "Test", LastName: "Customer"}
	require.NoError(t, f.db.Create(customer).Error)
	return customer
}

func (f *fixture) seedProduct(t *testing.T, name string, price int64, stock int) (*model.Product, *model.ProductVariant) {
	t.Helper()
	product := &model.Product{
		Name:      name,
		SKU:       name + "-SKU",
		BasePrice: decimal.NewFromInt(price),
		IsActive:  true,
	}
	require.NoError(t, f.db.Create(product).Error)

	variant := &model.ProductVariant{
		ProductID:         product.ID,
		SKU:               name + "-VAR",
		StockQuantity:     stock,
		LowStockThreshold: 5,
		IsActive:          true,
	}
	require.NoError(t, f.db.Create(variant).Error)
	return product, variant
}

type couponSpec struct {
	code             string
	kind             model.CouponType
	value            int64
	minOrder         int64
	maxDiscount      *int64
	usageLimit       *int
	usagePerCustomer int
	active           bool
	startsAt         *time.Time
	expiresAt        *time.Time
}

func (f *fixture) seedCoupon(t *testing.T, spec couponSpec) *model.Coupon {
	t.Helper()
	if spec.usagePerCustomer == 0 {
		spec.usagePerCustomer = 1
	}
	coupon := &model.Coupon{
		Code:             spec.code,
		Type:             spec.kind,
		Value:            decimal.NewFromInt(spec.value),
		MinOrderAmount:   decimal.NewFromInt(spec.minOrder),
		UsageLimit:       spec.usageLimit,
		UsagePerCustomer: spec.usagePerCustomer,
		IsActive:         spec.active,
		StartsAt:         spec.startsAt,
		ExpiresAt:        spec.expiresAt,
	}
	if spec.maxDiscount != nil {
		d := decimal.NewFromInt(*spec.maxDiscount)
		coupon.MaxDiscount = &d
	}
	require.NoError(t, f.db.Create(coupon).Error)
	return coupon
}

func (f *fixture) stockOf(t *testing.T, variantID uint) int {
	t.Helper()
	var variant model.ProductVariant
	require.NoError(t, f.db.First(&variant, variantID).Error)
	return variant.StockQuantity
}

func (f *fixture) ledgerSum(t *testing.T, variantID uint) int {
	t.Helper()
	sum, err := f.variants.SumLedger(t.Context(), variantID)
	require.NoError(t, err)
	return sum
}

func (f *fixture) ledgerCount(t *testing.T, variantID uint) int {
	t.Helper()
	entries, err := f.variants.ListLedger(t.Context(), variantID)
	require.NoError(t, err)
	return len(entries)
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
