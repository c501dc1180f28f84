package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cart "ecommerce-backend/internal/domains/cart/model"
)

// DiscountMode is a closed set; each mode has its own calculation
// function in the service layer, so adding a mode is a compile-time change.
type DiscountMode string

const (
	DiscountModeFree        DiscountMode = "free"
	DiscountModePercentage  DiscountMode = "percentage"
	DiscountModeFixedAmount DiscountMode = "fixed_amount"
)

// ValidDiscountModes lists every supported mode, for request validation.
var ValidDiscountModes = []interface{}{
	string(DiscountModeFree),
	string(DiscountModePercentage),
	string(DiscountModeFixedAmount),
}

type OfferStatus string

const (
	StatusActive   OfferStatus = "active"
	StatusInactive OfferStatus = "inactive"
)

// ConditionScope says whether a condition targets one product or a
// whole category.
type ConditionScope string

const (
	ScopeProduct  ConditionScope = "product"
	ScopeCategory ConditionScope = "category"
)

// Condition is the tagged form of the buy/get side of an offer.
// Modeling scope + target as one value keeps the "exactly one of
// product_id / category_id" invariant out of reach of callers; the
// repository maps it to the two nullable columns.
type Condition struct {
	Scope    ConditionScope `json:"scope"`
	TargetID uuid.UUID      `json:"target_id"`
}

// ByProduct builds a product-scoped condition.
func ByProduct(id uuid.UUID) Condition {
	return Condition{Scope: ScopeProduct, TargetID: id}
}

// ByCategory builds a category-scoped condition.
func ByCategory(id uuid.UUID) Condition {
	return Condition{Scope: ScopeCategory, TargetID: id}
}

// Matches reports whether a cart line satisfies the condition.
func (c Condition) Matches(line cart.Line) bool {
	switch c.Scope {
	case ScopeProduct:
		return line.ProductID == c.TargetID
	case ScopeCategory:
		return line.CategoryID == c.TargetID
	default:
		return false
	}
}

// ProductID returns the target when the condition is product-scoped.
func (c Condition) ProductID() *uuid.UUID {
	if c.Scope == ScopeProduct {
		id := c.TargetID
		return &id
	}
	return nil
}

// CategoryID returns the target when the condition is category-scoped.
func (c Condition) CategoryID() *uuid.UUID {
	if c.Scope == ScopeCategory {
		id := c.TargetID
		return &id
	}
	return nil
}

// Offer is a buy-X-get-Y promotional rule.
type Offer struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty" db:"campaign_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`

	// Buy side: the qualifying purchase
	Buy         Condition `json:"buy"`
	BuyQuantity int       `json:"buy_quantity" db:"buy_quantity"`

	// Get side: what the discount applies to
	Get         Condition `json:"get"`
	GetQuantity int       `json:"get_quantity" db:"get_quantity"`

	// Discount details; DiscountValue is a percentage (0-100) for
	// percentage mode, an absolute amount for fixed_amount, and is
	// ignored for free.
	DiscountMode  DiscountMode    `json:"discount_mode" db:"discount_mode"`
	DiscountValue decimal.Decimal `json:"discount_value" db:"discount_value"`

	// Validity window
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	EndsAt   time.Time `json:"ends_at" db:"ends_at"`

	// Usage limits; UsageCount is maintained only by the relative
	// increment inside the redemption transaction.
	UsageLimit *int `json:"usage_limit,omitempty" db:"usage_limit"`
	UsageCount int  `json:"usage_count" db:"usage_count"`

	Status OfferStatus `json:"status" db:"status"`

	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Version   int       `json:"version" db:"version"`
}

// IsWithinWindow checks starts_at <= now <= ends_at.
func (o *Offer) IsWithinWindow(now time.Time) bool {
	return !now.Before(o.StartsAt) && !now.After(o.EndsAt)
}

// IsUsageLimitReached reports whether the global budget is exhausted.
func (o *Offer) IsUsageLimitReached() bool {
	return o.UsageLimit != nil && o.UsageCount >= *o.UsageLimit
}

// IsRedeemable combines status, window and usage budget.
// The same checks run again inside the commit transaction; this form
// exists for the read/preview path.
func (o *Offer) IsRedeemable(now time.Time) bool {
	return o.Status == StatusActive &&
		o.IsWithinWindow(now) &&
		!o.IsUsageLimitReached()
}

// RemainingUses returns the remaining budget, or nil when unlimited.
func (o *Offer) RemainingUses() *int {
	if o.UsageLimit == nil {
		return nil
	}
	remaining := *o.UsageLimit - o.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// DerivedState projects the lifecycle state used by list views.
type DerivedState string

const (
	StateActive    DerivedState = "active"
	StateUpcoming  DerivedState = "upcoming"
	StateExpired   DerivedState = "expired"
	StateExhausted DerivedState = "exhausted"
	StateInactive  DerivedState = "inactive"
)

// State computes the derived lifecycle state at a point in time.
func (o *Offer) State(now time.Time) DerivedState {
	switch {
	case o.Status != StatusActive:
		return StateInactive
	case now.Before(o.StartsAt):
		return StateUpcoming
	case now.After(o.EndsAt):
		return StateExpired
	case o.IsUsageLimitReached():
		return StateExhausted
	default:
		return StateActive
	}
}
