package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ecommerce-backend/internal/domains/offer/model"
)

// OfferRepository is the persistence surface for offers and the
// redemption ledger.
type OfferRepository interface {
	// Read operations
	FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	ListActive(ctx context.Context, now time.Time) ([]*model.Offer, error)
	List(ctx context.Context, filter *model.ListOffersFilter) ([]*model.OfferListItem, int, error)

	// Write operations
	Create(ctx context.Context, offer *model.Offer) error
	Update(ctx context.Context, offer *model.Offer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ApplyDiscount runs the redemption commit protocol: one transaction
	// appending a ledger record and incrementing the offer's usage count,
	// re-validating status, window and usage limit against current state.
	ApplyDiscount(ctx context.Context, params model.ApplyDiscountParams) (*model.UsageRecord, error)

	// Usage ledger reads
	GetUsageHistory(ctx context.Context, offerID uuid.UUID, page, limit int) ([]*model.UsageRecord, int, error)
	GetUsageStats(ctx context.Context, offerID uuid.UUID) (*model.UsageStats, error)

	// ReconcileStatuses flips offers into/out of active according to
	// their validity windows, at most batch rows per direction.
	// Idempotent; safe to run on any schedule.
	ReconcileStatuses(ctx context.Context, now time.Time, batch int) (*model.ReconcileResult, error)
}
