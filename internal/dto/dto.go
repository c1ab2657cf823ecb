package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineRequest struct {
	ProductID uint  `json:"product_id"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type ShippingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type CheckoutRequest struct {
	Items           []LineRequest   `json:"items"`
	GuestEmail      string          `json:"guest_email"`
	CouponCode      string          `json:"coupon_code"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	CustomerNote    string          `json:"customer_note"`
}

type AddressRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

type ApplyCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type AppliedCoupon struct {
	CouponID       uint            `json:"coupon_id"`
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	Value          decimal.Decimal `json:"value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Description    string          `json:"description,omitempty"`
}

type TrackOrderRequest struct {
	OrderNumber string `json:"order_number"`
	Email       string `json:"email"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type TrackingUpdateRequest struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

type NoteUpdateRequest struct {
	AdminNote string `json:"admin_note"`
}

type StockAdjustmentRequest struct {
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
	Note           string `json:"note"`
}

type StockAdjusted struct {
	VariantID      uint   `json:"variant_id"`
	SKU            string `json:"sku"`
	PreviousStock  int    `json:"previous_stock"`
	NewStock       int    `json:"new_stock"`
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
}

type InventoryItem struct {
	VariantID         uint   `json:"variant_id"`
	ProductID         uint   `json:"product_id"`
	ProductName       string `json:"product_name"`
	VariantTitle      string `json:"variant_title,omitempty"`
	SKU               string `json:"sku"`
	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	LowStock          bool   `json:"low_stock"`
	IsActive          bool   `json:"is_active"`
}

type OrderListItem struct {
	ID            uint            `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

type OrderListFilter struct {
	Status        string
	PaymentStatus string
	Fulfillment   string // "fulfilled" | "unfulfilled"
	Query         string
	Page          int
	PageSize      int
}
