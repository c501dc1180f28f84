package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "ecommerce-backend/internal/domains/cart/model"
	"ecommerce-backend/internal/domains/offer/model"
)

var (
	productA   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	productB   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	productC   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	categoryX  = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	categoryY  = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	testNow    = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	testWindow = struct{ start, end time.Time }{
		start: testNow.Add(-24 * time.Hour),
		end:   testNow.Add(24 * time.Hour),
	}
)

func activeOffer(buy model.Condition, buyQty int, get model.Condition, getQty int, mode model.DiscountMode, value float64) *model.Offer {
	return &model.Offer{
		ID:            uuid.New(),
		Name:          "test offer",
		Buy:           buy,
		BuyQuantity:   buyQty,
		Get:           get,
		GetQuantity:   getQty,
		DiscountMode:  mode,
		DiscountValue: decimal.NewFromFloat(value),
		StartsAt:      testWindow.start,
		EndsAt:        testWindow.end,
		Status:        model.StatusActive,
		CreatedAt:     testNow.Add(-time.Hour),
	}
}

func line(productID, categoryID uuid.UUID, qty int, price float64) cart.Line {
	return cart.Line{
		ProductID:  productID,
		CategoryID: categoryID,
		Quantity:   qty,
		UnitPrice:  decimal.NewFromFloat(price),
	}
}

func TestComputeDiscount_FreeMode(t *testing.T) {
	// Buy 2 of A, get 1 of B free.
	offer := activeOffer(model.ByProduct(productA), 2, model.ByProduct(productB), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{
		line(productA, categoryX, 3, 10.00),
		line(productB, categoryY, 2, 15.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applications)
	assert.Equal(t, 1, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(15.00)),
		"expected 15.00, got %s", result.DiscountAmount)
}

func TestComputeDiscount_PercentageMode(t *testing.T) {
	// Buy 1 of A, get 2 of B at 50% off. Get side worth 40.00.
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 2, model.DiscountModePercentage, 50)
	lines := []cart.Line{
		line(productA, categoryX, 1, 10.00),
		line(productB, categoryY, 2, 20.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(20.00)),
		"expected 20.00, got %s", result.DiscountAmount)
}

func TestComputeDiscount_FixedAmountCappedAtUnitPrice(t *testing.T) {
	// Fixed 5.00 off a 3.00 product must not go below zero for the unit.
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 1, model.DiscountModeFixedAmount, 5.00)
	lines := []cart.Line{
		line(productA, categoryX, 1, 10.00),
		line(productB, categoryY, 1, 3.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(3.00)),
		"expected 3.00, got %s", result.DiscountAmount)
}

func TestComputeDiscount_FixedAmountAppliesPerApplication(t *testing.T) {
	// One application granting two units earns the fixed amount once,
	// not once per unit.
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 2, model.DiscountModeFixedAmount, 5.00)
	lines := []cart.Line{
		line(productA, categoryX, 1, 10.00),
		line(productB, categoryY, 2, 10.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applications)
	assert.Equal(t, 2, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(5.00)),
		"expected 5.00, got %s", result.DiscountAmount)
}

func TestComputeDiscount_FixedAmountScalesWithApplications(t *testing.T) {
	offer := activeOffer(model.ByProduct(productA), 2, model.ByProduct(productB), 1, model.DiscountModeFixedAmount, 4.00)
	lines := []cart.Line{
		line(productA, categoryX, 4, 10.00),
		line(productB, categoryY, 2, 9.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Applications)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(8.00)),
		"expected 8.00, got %s", result.DiscountAmount)
}

func TestComputeDiscount_ApplicationsFloor(t *testing.T) {
	// 5 buy units at buy_quantity 2 yields 2 applications, never 2.5.
	offer := activeOffer(model.ByProduct(productA), 2, model.ByProduct(productB), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{
		line(productA, categoryX, 5, 10.00),
		line(productB, categoryY, 5, 8.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Applications)
	assert.Equal(t, 2, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(16.00)))
}

func TestComputeDiscount_GetQuantityClampedToCart(t *testing.T) {
	// Offer grants 3 units per application but the cart only has 1.
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 3, model.DiscountModeFree, 0)
	lines := []cart.Line{
		line(productA, categoryX, 1, 10.00),
		line(productB, categoryY, 1, 7.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(7.00)))
}

func TestComputeDiscount_BelowMinimumBuyQuantity(t *testing.T) {
	offer := activeOffer(model.ByProduct(productA), 3, model.ByProduct(productB), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{
		line(productA, categoryX, 2, 10.00),
		line(productB, categoryY, 1, 5.00),
	}

	calc := NewCalculator()
	_, err := calc.ComputeDiscount(offer, lines, testNow)
	assert.ErrorIs(t, err, model.ErrBelowMinimumBuyQuantity)
}

func TestComputeDiscount_InactiveOffer(t *testing.T) {
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 1, model.DiscountModeFree, 0)
	offer.Status = model.StatusInactive

	calc := NewCalculator()
	_, err := calc.ComputeDiscount(offer, []cart.Line{line(productA, categoryX, 1, 10)}, testNow)
	assert.ErrorIs(t, err, model.ErrOfferInactive)
}

func TestComputeDiscount_OutsideWindow(t *testing.T) {
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 1, model.DiscountModeFree, 0)
	offer.StartsAt = testNow.Add(time.Hour)
	offer.EndsAt = testNow.Add(48 * time.Hour)

	calc := NewCalculator()
	_, err := calc.ComputeDiscount(offer, []cart.Line{line(productA, categoryX, 1, 10)}, testNow)
	assert.ErrorIs(t, err, model.ErrOfferInactive)
}

func TestComputeDiscount_UsageLimitExhausted(t *testing.T) {
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 1, model.DiscountModeFree, 0)
	limit := 10
	offer.UsageLimit = &limit
	offer.UsageCount = 10

	calc := NewCalculator()
	_, err := calc.ComputeDiscount(offer, []cart.Line{line(productA, categoryX, 1, 10)}, testNow)
	assert.ErrorIs(t, err, model.ErrUsageLimitReached)
}

func TestComputeDiscount_OverlapReservesBuyUnits(t *testing.T) {
	// Buy 2 of A, get 1 of A: three units qualify, two are consumed as
	// the purchase, only the third earns the discount.
	offer := activeOffer(model.ByProduct(productA), 2, model.ByProduct(productA), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{line(productA, categoryX, 3, 10.00)}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applications)
	assert.Equal(t, 1, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(10.00)))
}

func TestComputeDiscount_OverlapExactBuyQuantityEarnsNothing(t *testing.T) {
	// With exactly the qualifying quantity, every unit is reserved for
	// the buy side and no unit is left to discount.
	offer := activeOffer(model.ByProduct(productA), 2, model.ByProduct(productA), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{line(productA, categoryX, 2, 10.00)}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 0, result.GetQuantity)
	assert.True(t, result.DiscountAmount.IsZero())
}

func TestComputeDiscount_OverlapReservesCheapestUnitsFirst(t *testing.T) {
	// Category-wide offer where both lines are in the category: the
	// cheap line covers the buy requirement so the pricey unit stays
	// eligible for the discount.
	offer := activeOffer(model.ByCategory(categoryX), 2, model.ByCategory(categoryX), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{
		line(productA, categoryX, 2, 4.00),
		line(productB, categoryX, 1, 25.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	require.Equal(t, 1, result.GetQuantity)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(25.00)),
		"expected the priciest unit discounted, got %s", result.DiscountAmount)
}

func TestComputeDiscount_CategoryConditions(t *testing.T) {
	// Buy 2 from category X, get 1 from category Y at 25% off.
	offer := activeOffer(model.ByCategory(categoryX), 2, model.ByCategory(categoryY), 1, model.DiscountModePercentage, 25)
	lines := []cart.Line{
		line(productA, categoryX, 1, 10.00),
		line(productB, categoryX, 1, 12.00),
		line(productC, categoryY, 1, 8.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applications)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(2.00)))
}

func TestComputeDiscount_RoundsHalfUpOnceAtTheEnd(t *testing.T) {
	// 50% of 10.05 is 5.025; rounded half-up at the final figure to 5.03.
	offer := activeOffer(model.ByProduct(productA), 1, model.ByProduct(productB), 1, model.DiscountModePercentage, 50)
	lines := []cart.Line{
		line(productA, categoryX, 1, 1.00),
		line(productB, categoryY, 1, 10.05),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(5.03)),
		"expected 5.03, got %s", result.DiscountAmount)
}

func TestComputeDiscount_LineOrderDoesNotChangeTotal(t *testing.T) {
	offer := activeOffer(model.ByCategory(categoryX), 2, model.ByCategory(categoryX), 2, model.DiscountModePercentage, 30)
	a := line(productA, categoryX, 2, 4.00)
	b := line(productB, categoryX, 3, 9.00)
	c := line(productC, categoryX, 1, 6.50)

	calc := NewCalculator()
	first, err := calc.ComputeDiscount(offer, []cart.Line{a, b, c}, testNow)
	require.NoError(t, err)
	second, err := calc.ComputeDiscount(offer, []cart.Line{c, a, b}, testNow)
	require.NoError(t, err)

	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount),
		"order changed the total: %s vs %s", first.DiscountAmount, second.DiscountAmount)
	assert.Equal(t, first.GetQuantity, second.GetQuantity)
}

func TestComputeDiscount_PicksPriciestGetUnits(t *testing.T) {
	// Two eligible get lines; the grant covers one unit and must land
	// on the more expensive one.
	offer := activeOffer(model.ByProduct(productA), 1, model.ByCategory(categoryY), 1, model.DiscountModeFree, 0)
	lines := []cart.Line{
		line(productA, categoryX, 1, 5.00),
		line(productB, categoryY, 1, 3.00),
		line(productC, categoryY, 1, 9.00),
	}

	calc := NewCalculator()
	result, err := calc.ComputeDiscount(offer, lines, testNow)
	require.NoError(t, err)

	require.Len(t, result.LineAdjustments, 1)
	assert.Equal(t, productC, result.LineAdjustments[0].ProductID)
	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromFloat(9.00)))
}
