package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cart "ecommerce-backend/internal/domains/cart/model"
	"ecommerce-backend/internal/domains/catalog"
	"ecommerce-backend/internal/domains/offer/model"
	"ecommerce-backend/internal/domains/offer/repository"
	"ecommerce-backend/pkg/cache"
	"ecommerce-backend/pkg/logger"
)

const (
	activeOffersCacheKey = "offers:active"
	activeOffersCacheTTL = 1 * time.Minute
)

type offerService struct {
	repo       repository.OfferRepository
	cache      cache.Cache
	prices     catalog.PriceLookup
	calculator *Calculator
	matcher    *Matcher
}

// NewOfferService wires the promotion engine. prices may be nil for
// deployments that never commit redemptions (e.g. the worker).
func NewOfferService(repo repository.OfferRepository, c cache.Cache, prices catalog.PriceLookup) OfferService {
	calculator := NewCalculator()
	return &offerService{
		repo:       repo,
		cache:      c,
		prices:     prices,
		calculator: calculator,
		matcher:    NewMatcher(calculator),
	}
}

// -------------------------------------------------------------------
// ADMINISTRATION
// -------------------------------------------------------------------

func (s *offerService) CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startsAt, _ := time.Parse(time.RFC3339, req.StartsAt)
	endsAt, _ := time.Parse(time.RFC3339, req.EndsAt)

	status := model.StatusActive
	if req.Status != "" {
		status = model.OfferStatus(req.Status)
	}

	offer := &model.Offer{
		ID:            uuid.New(),
		CampaignID:    req.CampaignID,
		Name:          req.Name,
		Description:   req.Description,
		Buy:           req.BuyCondition(),
		BuyQuantity:   req.BuyQuantity,
		Get:           req.GetCondition(),
		GetQuantity:   req.GetQuantity,
		DiscountMode:  model.DiscountMode(req.DiscountMode),
		DiscountValue: decimal.NewFromFloat(req.DiscountValue),
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		UsageLimit:    req.UsageLimit,
		Status:        status,
		CreatedBy:     req.CreatedBy,
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.invalidateOfferCaches(ctx)

	logger.Info("offer created", map[string]interface{}{
		"offer_id":      offer.ID.String(),
		"name":          offer.Name,
		"discount_mode": string(offer.DiscountMode),
	})

	return offer, nil
}

func (s *offerService) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, *model.UsageStats, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.repo.GetUsageStats(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return offer, stats, nil
}

func (s *offerService) UpdateOffer(ctx context.Context, id uuid.UUID, req *model.UpdateOfferRequest) (*model.Offer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		offer.Name = *req.Name
	}
	if req.Description != nil {
		offer.Description = req.Description
	}
	if req.StartsAt != nil {
		startsAt, _ := time.Parse(time.RFC3339, *req.StartsAt)
		offer.StartsAt = startsAt
	}
	if req.EndsAt != nil {
		endsAt, _ := time.Parse(time.RFC3339, *req.EndsAt)
		offer.EndsAt = endsAt
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < offer.UsageCount {
			return nil, &model.AppError{
				Code:    model.ErrCodeValidationFailed,
				Message: "usage limit cannot be lower than the current usage count",
				Details: map[string]interface{}{"usage_count": offer.UsageCount},
			}
		}
		offer.UsageLimit = req.UsageLimit
	}
	if req.Status != nil {
		offer.Status = model.OfferStatus(*req.Status)
	}

	if !offer.EndsAt.After(offer.StartsAt) {
		return nil, &model.AppError{
			Code:    model.ErrCodeValidationFailed,
			Message: "end time must be after start time",
		}
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, err
	}

	s.invalidateOfferCaches(ctx)

	return offer, nil
}

func (s *offerService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error {
	if status != model.StatusActive && status != model.StatusInactive {
		return &model.AppError{
			Code:    model.ErrCodeValidationFailed,
			Message: "status must be active or inactive",
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.invalidateOfferCaches(ctx)

	return nil
}

func (s *offerService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateOfferCaches(ctx)

	logger.Info("offer deleted", map[string]interface{}{"offer_id": id.String()})

	return nil
}

func (s *offerService) ListOffers(ctx context.Context, filter *model.ListOffersFilter) ([]*model.OfferListItem, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

// -------------------------------------------------------------------
// PREVIEW
// -------------------------------------------------------------------

func (s *offerService) PreviewOffers(ctx context.Context, lines []cart.Line) ([]*model.EligibleOffer, error) {
	offers, err := s.loadActiveOffers(ctx)
	if err != nil {
		return nil, err
	}

	return s.matcher.FindEligible(offers, lines, time.Now()), nil
}

// loadActiveOffers serves the redeemable offer set through a short
// cache. Staleness is bounded by the TTL and is safe: the commit path
// re-validates everything against the database.
func (s *offerService) loadActiveOffers(ctx context.Context) ([]*model.Offer, error) {
	var cached []*model.Offer
	if s.cache != nil {
		found, err := s.cache.Get(ctx, activeOffersCacheKey, &cached)
		if err != nil {
			logger.Warn("active offers cache read failed", map[string]interface{}{"error": err.Error()})
		} else if found {
			return cached, nil
		}
	}

	offers, err := s.repo.ListActive(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, activeOffersCacheKey, offers, activeOffersCacheTTL); err != nil {
			logger.Warn("active offers cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return offers, nil
}

// -------------------------------------------------------------------
// REDEMPTION
// -------------------------------------------------------------------

// ApplyDiscount consumes one use of an offer for an order.
//
// The flow re-reads everything the preview may have cached: the offer
// from the database, the discount from the current cart, the get-side
// price from the catalog. Only then does the repository run the commit
// transaction, which re-checks the gates once more under the row lock.
func (s *offerService) ApplyDiscount(ctx context.Context, offerID, userID, orderID uuid.UUID, lines []cart.Line) (*model.UsageRecord, *model.DiscountResult, error) {
	offer, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.calculator.ComputeDiscount(offer, lines, time.Now())
	if err != nil {
		return nil, nil, err
	}
	if result.GetQuantity == 0 {
		return nil, nil, model.ErrBelowMinimumBuyQuantity
	}

	buyProductID, getProductID := commitProductIDs(offer, lines, result)

	if err := s.checkGetSideAvailability(ctx, getProductID); err != nil {
		return nil, nil, err
	}

	params := model.ApplyDiscountParams{
		OfferID:        offerID,
		UserID:         userID,
		OrderID:        orderID,
		BuyProductID:   buyProductID,
		BuyQuantity:    result.Applications * offer.BuyQuantity,
		GetProductID:   getProductID,
		GetQuantity:    result.GetQuantity,
		DiscountAmount: result.DiscountAmount,
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	record, err := s.repo.ApplyDiscount(ctx, params)
	if err != nil {
		return nil, nil, classifyCommitError(err)
	}

	s.invalidateOfferCaches(ctx)

	logger.Info("offer redeemed", map[string]interface{}{
		"offer_id":        offerID.String(),
		"order_id":        orderID.String(),
		"discount_amount": result.DiscountAmount.String(),
	})

	return record, result, nil
}

// checkGetSideAvailability verifies the discounted product still exists
// and is purchasable at commit time.
func (s *offerService) checkGetSideAvailability(ctx context.Context, productID uuid.UUID) error {
	if s.prices == nil {
		return fmt.Errorf("price lookup is not configured: %w", model.ErrProductUnavailable)
	}

	price, err := s.prices.UnitPrice(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductUnavailable) {
			return model.ErrProductUnavailable
		}
		return fmt.Errorf("check product availability: %w", err)
	}
	if !price.IsActive {
		return model.ErrProductUnavailable
	}

	return nil
}

// commitProductIDs picks the representative product ids the ledger
// records. The get side is the product receiving the largest share of
// the discount; the buy side is the first qualifying line.
func commitProductIDs(offer *model.Offer, lines []cart.Line, result *model.DiscountResult) (uuid.UUID, uuid.UUID) {
	var buyProductID uuid.UUID
	if id := offer.Buy.ProductID(); id != nil {
		buyProductID = *id
	} else {
		for _, line := range lines {
			if offer.Buy.Matches(line) {
				buyProductID = line.ProductID
				break
			}
		}
	}

	var getProductID uuid.UUID
	if len(result.LineAdjustments) > 0 {
		getProductID = result.LineAdjustments[0].ProductID
	} else if id := offer.Get.ProductID(); id != nil {
		getProductID = *id
	}

	return buyProductID, getProductID
}

// classifyCommitError keeps the domain sentinels intact and collapses
// everything else into the retryable commit failure.
func classifyCommitError(err error) error {
	switch {
	case errors.Is(err, model.ErrOfferNotFound),
		errors.Is(err, model.ErrOfferInactive),
		errors.Is(err, model.ErrUsageLimitReached),
		errors.Is(err, model.ErrDuplicateUsage):
		return err
	case errors.Is(err, model.ErrCommitAborted):
		return err
	default:
		logger.Error("redemption commit failed", err)
		return fmt.Errorf("%w: %v", model.ErrCommitAborted, err)
	}
}

// -------------------------------------------------------------------
// LEDGER READS
// -------------------------------------------------------------------

func (s *offerService) GetUsageHistory(ctx context.Context, offerID uuid.UUID, page, limit int) ([]*model.UsageRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if _, err := s.repo.FindByID(ctx, offerID); err != nil {
		return nil, 0, err
	}

	return s.repo.GetUsageHistory(ctx, offerID, page, limit)
}

func (s *offerService) GetUsageStats(ctx context.Context, offerID uuid.UUID) (*model.UsageStats, error) {
	if _, err := s.repo.FindByID(ctx, offerID); err != nil {
		return nil, err
	}
	return s.repo.GetUsageStats(ctx, offerID)
}

// -------------------------------------------------------------------
// RECONCILIATION
// -------------------------------------------------------------------

func (s *offerService) ReconcileStatuses(ctx context.Context, batch int) (*model.ReconcileResult, error) {
	if batch < 1 {
		batch = 500
	}

	result, err := s.repo.ReconcileStatuses(ctx, time.Now(), batch)
	if err != nil {
		return nil, err
	}

	if result.Activated > 0 || result.Deactivated > 0 {
		s.invalidateOfferCaches(ctx)
	}

	return result, nil
}

// invalidateOfferCaches drops cached offer reads after any write.
// Cache failures are logged, never surfaced; the TTL bounds staleness.
func (s *offerService) invalidateOfferCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeOffersCacheKey); err != nil {
		logger.Warn("offer cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}
