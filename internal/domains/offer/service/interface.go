package service

import (
	"context"

	"github.com/google/uuid"

	cart "ecommerce-backend/internal/domains/cart/model"
	"ecommerce-backend/internal/domains/offer/model"
)

// OfferService is the application surface for the promotion engine.
type OfferService interface {
	// Offer administration
	CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, *model.UsageStats, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, req *model.UpdateOfferRequest) (*model.Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error
	ListOffers(ctx context.Context, filter *model.ListOffersFilter) ([]*model.OfferListItem, int, error)

	// PreviewOffers matches the cart against every redeemable offer and
	// returns them ranked by discount value. Read-only; nothing is
	// consumed.
	PreviewOffers(ctx context.Context, lines []cart.Line) ([]*model.EligibleOffer, error)

	// ApplyDiscount consumes one use of the offer for an order. The
	// discount is recomputed against fresh state; the caller's preview
	// is never trusted.
	ApplyDiscount(ctx context.Context, offerID, userID, orderID uuid.UUID, lines []cart.Line) (*model.UsageRecord, *model.DiscountResult, error)

	// Usage ledger reads
	GetUsageHistory(ctx context.Context, offerID uuid.UUID, page, limit int) ([]*model.UsageRecord, int, error)
	GetUsageStats(ctx context.Context, offerID uuid.UUID) (*model.UsageStats, error)

	// ReconcileStatuses runs one idempotent status sweep, touching at
	// most batch offers per direction.
	ReconcileStatuses(ctx context.Context, batch int) (*model.ReconcileResult, error)
}
