package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cart "ecommerce-backend/internal/domains/cart/model"
)

// -------------------------------------------------------------------
// ADMIN REQUESTS
// -------------------------------------------------------------------

// CreateOfferRequest carries a new offer definition.
// Buy/get sides arrive as optional id pairs; validation enforces that
// exactly one of each pair is set before the tagged Condition is built.
type CreateOfferRequest struct {
	CampaignID    *uuid.UUID `json:"campaign_id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	BuyProductID  *uuid.UUID `json:"buy_product_id"`
	BuyCategoryID *uuid.UUID `json:"buy_category_id"`
	BuyQuantity   int        `json:"buy_quantity"`
	GetProductID  *uuid.UUID `json:"get_product_id"`
	GetCategoryID *uuid.UUID `json:"get_category_id"`
	GetQuantity   int        `json:"get_quantity"`
	DiscountMode  string     `json:"discount_mode"`
	DiscountValue float64    `json:"discount_value"`
	StartsAt      string     `json:"starts_at"` // RFC3339
	EndsAt        string     `json:"ends_at"`   // RFC3339
	UsageLimit    *int       `json:"usage_limit"`
	Status        string     `json:"status"`
	CreatedBy     uuid.UUID  `json:"-"`
}

// Validate checks the offer invariants.
func (r CreateOfferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("offer name is required"),
			validation.Length(3, 200).Error("offer name must be 3-200 characters"),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil,
				validation.Length(0, 1000).Error("description must not exceed 1000 characters"),
			),
		),
		validation.Field(&r.BuyQuantity,
			validation.Min(1).Error("buy quantity must be >= 1"),
		),
		validation.Field(&r.GetQuantity,
			validation.Min(1).Error("get quantity must be >= 1"),
		),
		validation.Field(&r.BuyProductID, validation.By(r.validateBuySide)),
		validation.Field(&r.GetProductID, validation.By(r.validateGetSide)),
		validation.Field(&r.DiscountMode,
			validation.Required.Error("discount mode is required"),
			validation.In(ValidDiscountModes...).Error("discount mode must be free, percentage or fixed_amount"),
		),
		validation.Field(&r.DiscountValue, validation.By(r.validateDiscountValue)),
		validation.Field(&r.StartsAt,
			validation.Required.Error("start time is required"),
			validation.Date(time.RFC3339).Error("start time must be RFC3339"),
		),
		validation.Field(&r.EndsAt,
			validation.Required.Error("end time is required"),
			validation.Date(time.RFC3339).Error("end time must be RFC3339"),
			validation.By(r.validateDateRange),
		),
		validation.Field(&r.UsageLimit, validation.By(validateUsageLimit(r.UsageLimit))),
		validation.Field(&r.Status,
			validation.In("", string(StatusActive), string(StatusInactive)).Error("status must be active or inactive"),
		),
	)
}

// validateUsageLimit checks a set limit is >= 1. A plain Min rule does
// not work here: ozzo skips threshold rules for zero values, so a limit
// of 0 would slip through and create an instantly exhausted offer.
func validateUsageLimit(limit *int) validation.RuleFunc {
	return func(interface{}) error {
		if limit != nil && *limit < 1 {
			return errors.New("usage limit must be >= 1")
		}
		return nil
	}
}

// validateBuySide enforces exactly one of buy_product_id / buy_category_id.
func (r CreateOfferRequest) validateBuySide(interface{}) error {
	if (r.BuyProductID == nil) == (r.BuyCategoryID == nil) {
		return errors.New("exactly one of buy_product_id or buy_category_id must be set")
	}
	return nil
}

// validateGetSide enforces exactly one of get_product_id / get_category_id.
func (r CreateOfferRequest) validateGetSide(interface{}) error {
	if (r.GetProductID == nil) == (r.GetCategoryID == nil) {
		return errors.New("exactly one of get_product_id or get_category_id must be set")
	}
	return nil
}

// validateDiscountValue checks the value against the mode: percentages
// stay in (0, 100], fixed amounts are positive, free ignores the value.
func (r CreateOfferRequest) validateDiscountValue(interface{}) error {
	switch DiscountMode(r.DiscountMode) {
	case DiscountModePercentage:
		if r.DiscountValue <= 0 || r.DiscountValue > 100 {
			return errors.New("percentage discount must be between 0 and 100")
		}
	case DiscountModeFixedAmount:
		if r.DiscountValue <= 0 {
			return errors.New("fixed amount discount must be > 0")
		}
	}
	return nil
}

// validateDateRange requires ends_at > starts_at.
func (r CreateOfferRequest) validateDateRange(interface{}) error {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return nil // format already reported on the StartsAt field
	}
	endsAt, err := time.Parse(time.RFC3339, r.EndsAt)
	if err != nil {
		return nil
	}

	if !endsAt.After(startsAt) {
		return errors.New("end time must be after start time")
	}
	return nil
}

// BuyCondition builds the tagged buy-side condition.
// Call only after Validate.
func (r CreateOfferRequest) BuyCondition() Condition {
	if r.BuyProductID != nil {
		return ByProduct(*r.BuyProductID)
	}
	return ByCategory(*r.BuyCategoryID)
}

// GetCondition builds the tagged get-side condition.
func (r CreateOfferRequest) GetCondition() Condition {
	if r.GetProductID != nil {
		return ByProduct(*r.GetProductID)
	}
	return ByCategory(*r.GetCategoryID)
}

// UpdateOfferRequest updates whitelisted fields only. The buy/get
// conditions and discount mode are immutable once an offer exists;
// redefining the deal means creating a new offer.
type UpdateOfferRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
	UsageLimit  *int    `json:"usage_limit"`
	Status      *string `json:"status"`
}

// Validate validates UpdateOfferRequest.
func (r UpdateOfferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil,
				validation.Length(3, 200).Error("offer name must be 3-200 characters"),
			),
		),
		validation.Field(&r.StartsAt,
			validation.When(r.StartsAt != nil,
				validation.Date(time.RFC3339).Error("start time must be RFC3339"),
			),
		),
		validation.Field(&r.EndsAt,
			validation.When(r.EndsAt != nil,
				validation.Date(time.RFC3339).Error("end time must be RFC3339"),
			),
		),
		validation.Field(&r.UsageLimit, validation.By(validateUsageLimit(r.UsageLimit))),
		validation.Field(&r.Status,
			validation.When(r.Status != nil,
				validation.In(string(StatusActive), string(StatusInactive)).Error("status must be active or inactive"),
			),
		),
	)
}

// ListOffersFilter filters the admin offer list.
type ListOffersFilter struct {
	State     string     `form:"state"` // active, expired, upcoming, exhausted, all
	Search    string     `form:"search"`
	CreatedBy *uuid.UUID `form:"created_by"`
	StartFrom *time.Time `form:"start_from"`
	StartTo   *time.Time `form:"start_to"`
	Sort      string     `form:"sort"`
	Page      int        `form:"page"`
	Limit     int        `form:"limit"`
}

// Validate normalizes paging defaults and checks enum fields.
func (f *ListOffersFilter) Validate() error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.State == "" {
		f.State = "all"
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.State, validation.In("active", "expired", "upcoming", "exhausted", "all")),
		validation.Field(&f.Sort, validation.In("", "created_at_desc", "ends_at_asc", "usage_desc", "name_asc")),
	)
}

// -------------------------------------------------------------------
// ELIGIBILITY / DISCOUNT RESULTS
// -------------------------------------------------------------------

// EligibleOffer is one qualifying offer for a cart, with its
// precomputed discount preview.
type EligibleOffer struct {
	Offer    *Offer          `json:"offer"`
	BuyLines []cart.Line     `json:"buy_lines"`
	GetLines []cart.Line     `json:"get_lines"`
	Preview  *DiscountResult `json:"preview"`
}

// LineAdjustment is the per-line effect of a discount.
type LineAdjustment struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"` // discounted units on this line
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// DiscountResult is the calculator output for one offer.
type DiscountResult struct {
	Applications    int              `json:"applications"`
	GetQuantity     int              `json:"get_quantity"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	LineAdjustments []LineAdjustment `json:"line_adjustments"`
}

// ApplyDiscountParams is the redemption commit input.
type ApplyDiscountParams struct {
	OfferID        uuid.UUID       `json:"offer_id"`
	UserID         uuid.UUID       `json:"user_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	BuyProductID   uuid.UUID       `json:"buy_product_id"`
	BuyQuantity    int             `json:"buy_quantity"`
	GetProductID   uuid.UUID       `json:"get_product_id"`
	GetQuantity    int             `json:"get_quantity"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Validate validates ApplyDiscountParams.
func (p ApplyDiscountParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OfferID, validation.Required),
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.OrderID, validation.Required),
		validation.Field(&p.BuyProductID, validation.Required),
		validation.Field(&p.GetProductID, validation.Required),
		validation.Field(&p.BuyQuantity, validation.Min(1)),
		validation.Field(&p.GetQuantity, validation.Min(1)),
		validation.Field(&p.DiscountAmount,
			validation.By(func(interface{}) error {
				if p.DiscountAmount.IsNegative() {
					return errors.New("discount amount must be >= 0")
				}
				return nil
			}),
		),
	)
}

// OfferListItem is one row of the admin list with derived state.
type OfferListItem struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	DiscountMode  DiscountMode    `json:"discount_mode"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	UsageCount    int             `json:"usage_count"`
	UsageLimit    *int            `json:"usage_limit,omitempty"`
	UsageRate     *float64        `json:"usage_rate,omitempty"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
	Status        OfferStatus     `json:"status"`
	State         DerivedState    `json:"state"`
}

// ReconcileResult reports one status sweep.
type ReconcileResult struct {
	Activated   int `json:"activated"`
	Deactivated int `json:"deactivated"`
}
