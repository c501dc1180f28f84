package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	cart "ecommerce-backend/internal/domains/cart/model"
	"ecommerce-backend/internal/domains/offer/model"
)

// Calculator computes the discount an offer yields against a cart
// snapshot. It is pure: no clock reads, no I/O, so the same inputs
// always produce the same result.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// unitPool tracks how many units of a line are still unassigned while
// the calculator allocates buy reservations and get selections.
type unitPool struct {
	lineIndex int
	price     decimal.Decimal
	available int
}

// ComputeDiscount evaluates one offer against the cart lines.
//
// When a product satisfies both the buy and the get condition, its
// units cannot count twice: the qualifying buy units are reserved
// first, and only the remainder is eligible for the discount. The
// reservation drains non-overlapping buy lines before overlapping
// ones, cheapest overlapping units first, so the priciest units stay
// available for the customer's discount.
//
// Monetary rounding happens exactly once, on the final total.
// Per-line adjustments are returned unrounded.
func (c *Calculator) ComputeDiscount(offer *model.Offer, lines []cart.Line, now time.Time) (*model.DiscountResult, error) {
	// Step 1: the same gates the commit transaction enforces, so the
	// preview path reports the precise reason instead of a silent zero.
	if offer.Status != model.StatusActive || !offer.IsWithinWindow(now) {
		return nil, model.ErrOfferInactive
	}
	if offer.IsUsageLimitReached() {
		return nil, model.ErrUsageLimitReached
	}

	// Step 2: count qualifying buy units.
	totalBuy := 0
	for _, line := range lines {
		if offer.Buy.Matches(line) {
			totalBuy += line.Quantity
		}
	}
	if totalBuy < offer.BuyQuantity {
		return nil, model.ErrBelowMinimumBuyQuantity
	}

	applications := totalBuy / offer.BuyQuantity

	// Step 3: reserve the qualifying buy units.
	reserved := c.reserveBuyUnits(offer, lines, applications*offer.BuyQuantity)

	// Step 4: collect get-eligible units net of reservations.
	var pools []unitPool
	availableGet := 0
	for i, line := range lines {
		if !offer.Get.Matches(line) {
			continue
		}
		free := line.Quantity - reserved[i]
		if free <= 0 {
			continue
		}
		pools = append(pools, unitPool{lineIndex: i, price: line.UnitPrice, available: free})
		availableGet += free
	}

	granted := applications * offer.GetQuantity
	if granted > availableGet {
		granted = availableGet
	}

	result := &model.DiscountResult{
		Applications:   applications,
		GetQuantity:    granted,
		DiscountAmount: decimal.Zero,
	}
	if granted == 0 {
		return result, nil
	}

	// Step 5: spend the grant on the priciest eligible units.
	// free and percentage discount every granted unit; fixed_amount is
	// worth min(value, unit_price) once per application, taken against
	// the priciest units.
	discountUnits := granted
	if offer.DiscountMode == model.DiscountModeFixedAmount && applications < discountUnits {
		discountUnits = applications
	}

	sort.SliceStable(pools, func(a, b int) bool {
		return pools[a].price.GreaterThan(pools[b].price)
	})

	total := decimal.Zero
	remaining := discountUnits
	for _, pool := range pools {
		if remaining == 0 {
			break
		}
		take := pool.available
		if take > remaining {
			take = remaining
		}
		remaining -= take

		perUnit := c.perUnitDiscount(offer, pool.price)
		lineDiscount := perUnit.Mul(decimal.NewFromInt(int64(take)))
		total = total.Add(lineDiscount)

		result.LineAdjustments = append(result.LineAdjustments, model.LineAdjustment{
			ProductID:      lines[pool.lineIndex].ProductID,
			Quantity:       take,
			UnitPrice:      pool.price,
			DiscountAmount: lineDiscount,
		})
	}

	result.DiscountAmount = total.Round(2)

	return result, nil
}

// reserveBuyUnits assigns the qualifying buy units to cart lines and
// returns the per-line reservation counts, indexed by line position.
func (c *Calculator) reserveBuyUnits(offer *model.Offer, lines []cart.Line, needed int) map[int]int {
	reserved := make(map[int]int)

	// Buy-only lines absorb the reservation first.
	for i, line := range lines {
		if needed == 0 {
			break
		}
		if !offer.Buy.Matches(line) || offer.Get.Matches(line) {
			continue
		}
		take := line.Quantity
		if take > needed {
			take = needed
		}
		reserved[i] = take
		needed -= take
	}

	if needed == 0 {
		return reserved
	}

	// Overlapping lines take the rest, cheapest first.
	type overlap struct {
		index int
		price decimal.Decimal
	}
	var overlaps []overlap
	for i, line := range lines {
		if offer.Buy.Matches(line) && offer.Get.Matches(line) {
			overlaps = append(overlaps, overlap{index: i, price: line.UnitPrice})
		}
	}
	sort.SliceStable(overlaps, func(a, b int) bool {
		return overlaps[a].price.LessThan(overlaps[b].price)
	})

	for _, o := range overlaps {
		if needed == 0 {
			break
		}
		take := lines[o.index].Quantity
		if take > needed {
			take = needed
		}
		reserved[o.index] = take
		needed -= take
	}

	return reserved
}

// perUnitDiscount returns the discount one unit at the given price
// receives under the offer's mode. The fixed amount is capped at the
// unit price so a discount never exceeds what the unit costs.
func (c *Calculator) perUnitDiscount(offer *model.Offer, unitPrice decimal.Decimal) decimal.Decimal {
	switch offer.DiscountMode {
	case model.DiscountModeFree:
		return unitPrice
	case model.DiscountModePercentage:
		return unitPrice.Mul(offer.DiscountValue).Div(decimal.NewFromInt(100))
	case model.DiscountModeFixedAmount:
		if offer.DiscountValue.GreaterThan(unitPrice) {
			return unitPrice
		}
		return offer.DiscountValue
	default:
		return decimal.Zero
	}
}
