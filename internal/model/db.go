package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Phone     string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Address struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"index;not null"`
	FirstName  string
	LastName   string
	Phone      string `gorm:"size:20"`
	Address1   string `gorm:"size:255;not null"`
	Address2   string `gorm:"size:255"`
	City       string `gorm:"size:100"`
	State      string `gorm:"size:100"`
	PostalCode string `gorm:"size:20"`
	Country    string `gorm:"size:100"`
	IsDefault  bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:300;not null"`
	SKU       string          `gorm:"size:100;index"`
	BasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsActive  bool            `gorm:"not null;default:true;index"`
	TotalSold int             `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

type ProductVariant struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"index;not null"`
	SKU       string `gorm:"size:100;index"`
	// nil means the variant sells at the product base price
	Price             *decimal.Decimal `gorm:"type:decimal(10,2)"`
	StockQuantity     int              `gorm:"not null;default:0"`
	LowStockThreshold int              `gorm:"not null;default:5"`
	VariantTitle      string           `gorm:"size:200"`
	IsActive          bool             `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InventoryLog is append-only. StockQuantity on the variant is a cached
// projection of the signed sum of these rows.
type InventoryLog struct {
	ID             uint            `gorm:"primaryKey"`
	VariantID      uint            `gorm:"index;not null"`
	QuantityChange int             `gorm:"not null"`
	Reason         InventoryReason `gorm:"size:32;not null"`
	OrderID        *uint           `gorm:"index"`
	Note           string          `gorm:"size:500"`
	CreatedAt      time.Time       `gorm:"index"`
}

type Coupon struct {
	ID               uint            `gorm:"primaryKey"`
	Code             string          `gorm:"size:50;uniqueIndex;not null"` // stored upper-case
	Description      string          `gorm:"size:300"`
	Type             CouponType      `gorm:"size:32;not null"`
	Value            decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MinOrderAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	MaxDiscount      *decimal.Decimal `gorm:"type:decimal(10,2)"`
	UsageLimit       *int            // nil = unlimited
	UsagePerCustomer int             `gorm:"not null;default:1"`
	UsedCount        int             `gorm:"not null;default:0"`
	IsActive         bool            `gorm:"not null;default:true;index"`
	StartsAt         *time.Time
	ExpiresAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CouponUsage existing is what "used" means; one row per redemption.
type CouponUsage struct {
	ID         uint `gorm:"primaryKey"`
	CouponID   uint `gorm:"index;not null"`
	CustomerID uint `gorm:"index;not null"`
	OrderID    uint `gorm:"index;not null"`
	CreatedAt  time.Time
}

type Order struct {
	ID          uint        `gorm:"primaryKey"`
	OrderNumber string      `gorm:"size:30;uniqueIndex;not null"`
	CustomerID  *uint       `gorm:"index"`
	GuestEmail  string      `gorm:"size:255"`
	Status      OrderStatus `gorm:"size:32;index;not null"`
	// cash on delivery only; payment_status is an independent axis
	PaymentMethod  string          `gorm:"size:32;not null;default:cod"`
	PaymentStatus  PaymentStatus   `gorm:"size:32;not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CouponID       *uint
	CouponCode     string `gorm:"size:50"`

	// shipping address snapshot, copied at order time
	ShippingFirstName  string `gorm:"size:100"`
	ShippingLastName   string `gorm:"size:100"`
	ShippingPhone      string `gorm:"size:20"`
	ShippingAddress1   string `gorm:"size:255"`
	ShippingAddress2   string `gorm:"size:255"`
	ShippingCity       string `gorm:"size:100"`
	ShippingState      string `gorm:"size:100"`
	ShippingPostalCode string `gorm:"size:20"`
	ShippingCountry    string `gorm:"size:100"`

	TrackingNumber string `gorm:"size:100"`
	TrackingURL    string `gorm:"size:500"`
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time

	CustomerNote string `gorm:"type:text"`
	AdminNote    string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Items         []OrderItem          `gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID"`
}

// OrderItem is an immutable snapshot; product/variant references may dangle
// after catalog deletions without corrupting history.
type OrderItem struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"index;not null"`
	ProductID   *uint  `gorm:"index"`
	VariantID   *uint  `gorm:"index"`
	ProductName string `gorm:"size:300;not null"`
	VariantInfo string `gorm:"size:200"`
	SKU         string `gorm:"size:100"`
	Quantity    int    `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
}

type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey"`
	OrderID   uint        `gorm:"index;not null"`
	Status    OrderStatus `gorm:"size:32;not null"`
	Note      string      `gorm:"type:text"`
	CreatedBy *uint
	CreatedAt time.Time
}
