package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageRecord is one redemption in the append-only ledger.
// Created only by a successful commit; never updated or deleted.
// The ledger is the authoritative source for usage statistics.
type UsageRecord struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OfferID        uuid.UUID       `json:"offer_id" db:"offer_id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	OrderID        uuid.UUID       `json:"order_id" db:"order_id"`
	BuyProductID   uuid.UUID       `json:"buy_product_id" db:"buy_product_id"`
	GetProductID   uuid.UUID       `json:"get_product_id" db:"get_product_id"`
	BuyQuantity    int             `json:"buy_quantity" db:"buy_quantity"`
	GetQuantity    int             `json:"get_quantity" db:"get_quantity"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	UsedAt         time.Time       `json:"used_at" db:"used_at"`
}

// UsageStats aggregates the ledger for one offer.
type UsageStats struct {
	TotalUses          int             `json:"total_uses" db:"total_uses"`
	TotalDiscountGiven decimal.Decimal `json:"total_discount_given" db:"total_discount_given"`
	AverageDiscount    decimal.Decimal `json:"average_discount" db:"average_discount"`
	UniqueUsers        int             `json:"unique_users" db:"unique_users"`
}
