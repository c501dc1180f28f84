package service

import (
	"sort"
	"time"

	cart "ecommerce-backend/internal/domains/cart/model"
	"ecommerce-backend/internal/domains/offer/model"
)

// Matcher filters candidate offers down to the ones a cart actually
// qualifies for and ranks them by what they are worth.
type Matcher struct {
	calculator *Calculator
}

func NewMatcher(calculator *Calculator) *Matcher {
	return &Matcher{calculator: calculator}
}

// FindEligible evaluates each candidate against the cart and returns
// the qualifying offers, best discount first. Ties break on offer
// creation time, oldest first, so the ranking is stable across calls.
//
// Offers the cart fails to qualify for are dropped silently; the
// preview path has no use for per-offer rejection reasons.
func (m *Matcher) FindEligible(offers []*model.Offer, lines []cart.Line, now time.Time) []*model.EligibleOffer {
	eligible := make([]*model.EligibleOffer, 0, len(offers))

	for _, offer := range offers {
		preview, err := m.calculator.ComputeDiscount(offer, lines, now)
		if err != nil {
			continue
		}
		// A qualifying cart can still earn nothing, e.g. every
		// get-eligible unit was consumed as a buy unit.
		if preview.GetQuantity == 0 {
			continue
		}

		eligible = append(eligible, &model.EligibleOffer{
			Offer:    offer,
			BuyLines: filterLines(lines, offer.Buy),
			GetLines: filterLines(lines, offer.Get),
			Preview:  preview,
		})
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		cmp := eligible[a].Preview.DiscountAmount.Cmp(eligible[b].Preview.DiscountAmount)
		if cmp != 0 {
			return cmp > 0
		}
		return eligible[a].Offer.CreatedAt.Before(eligible[b].Offer.CreatedAt)
	})

	return eligible
}

func filterLines(lines []cart.Line, cond model.Condition) []cart.Line {
	var matched []cart.Line
	for _, line := range lines {
		if cond.Matches(line) {
			matched = append(matched, line)
		}
	}
	return matched
}
