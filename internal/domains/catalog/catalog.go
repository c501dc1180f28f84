// Package catalog defines the price-lookup collaborator the promotion
// engine depends on. Product persistence lives elsewhere; the engine only
// needs current unit prices and active flags at commit time.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrProductUnavailable is returned when a product is missing or inactive.
var ErrProductUnavailable = errors.New("product is unavailable")

// ProductPrice is a point-in-time pricing snapshot.
// UnitPrice is the sale price when one is set, the list price otherwise.
type ProductPrice struct {
	ProductID uuid.UUID       `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
}

// PriceLookup resolves current pricing for a product.
// Implementations must return ErrProductUnavailable for missing or
// inactive products.
type PriceLookup interface {
	UnitPrice(ctx context.Context, productID uuid.UUID) (*ProductPrice, error)
}
