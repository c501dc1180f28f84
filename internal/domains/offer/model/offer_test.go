package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	cart "ecommerce-backend/internal/domains/cart/model"
)

var (
	testProduct  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testCategory = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	baseTime     = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
)

func TestCondition_Matches(t *testing.T) {
	inCategory := cart.Line{ProductID: uuid.New(), CategoryID: testCategory}
	exactProduct := cart.Line{ProductID: testProduct, CategoryID: uuid.New()}
	unrelated := cart.Line{ProductID: uuid.New(), CategoryID: uuid.New()}

	byProduct := ByProduct(testProduct)
	assert.True(t, byProduct.Matches(exactProduct))
	assert.False(t, byProduct.Matches(inCategory))
	assert.False(t, byProduct.Matches(unrelated))

	byCategory := ByCategory(testCategory)
	assert.True(t, byCategory.Matches(inCategory))
	assert.False(t, byCategory.Matches(exactProduct))
}

func TestCondition_Accessors(t *testing.T) {
	byProduct := ByProduct(testProduct)
	assert.NotNil(t, byProduct.ProductID())
	assert.Nil(t, byProduct.CategoryID())

	byCategory := ByCategory(testCategory)
	assert.Nil(t, byCategory.ProductID())
	assert.NotNil(t, byCategory.CategoryID())
	assert.Equal(t, testCategory, *byCategory.CategoryID())
}

func windowedOffer(start, end time.Time) *Offer {
	return &Offer{
		Status:   StatusActive,
		StartsAt: start,
		EndsAt:   end,
	}
}

func TestOffer_IsWithinWindow(t *testing.T) {
	offer := windowedOffer(baseTime, baseTime.Add(48*time.Hour))

	assert.True(t, offer.IsWithinWindow(baseTime), "window start is inclusive")
	assert.True(t, offer.IsWithinWindow(offer.EndsAt), "window end is inclusive")
	assert.True(t, offer.IsWithinWindow(baseTime.Add(time.Hour)))
	assert.False(t, offer.IsWithinWindow(baseTime.Add(-time.Second)))
	assert.False(t, offer.IsWithinWindow(offer.EndsAt.Add(time.Second)))
}

func TestOffer_State(t *testing.T) {
	limit := 10

	tests := []struct {
		name  string
		setup func(*Offer)
		want  DerivedState
	}{
		{"active within window", func(o *Offer) {}, StateActive},
		{"manually deactivated", func(o *Offer) { o.Status = StatusInactive }, StateInactive},
		{"not yet started", func(o *Offer) {
			o.StartsAt = baseTime.Add(time.Hour)
			o.EndsAt = baseTime.Add(48 * time.Hour)
		}, StateUpcoming},
		{"already ended", func(o *Offer) {
			o.StartsAt = baseTime.Add(-48 * time.Hour)
			o.EndsAt = baseTime.Add(-time.Hour)
		}, StateExpired},
		{"budget exhausted", func(o *Offer) {
			o.UsageLimit = &limit
			o.UsageCount = 10
		}, StateExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := windowedOffer(baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
			tt.setup(offer)
			assert.Equal(t, tt.want, offer.State(baseTime))
		})
	}
}

func TestOffer_RemainingUses(t *testing.T) {
	unlimited := &Offer{}
	assert.Nil(t, unlimited.RemainingUses())

	limit := 5
	limited := &Offer{UsageLimit: &limit, UsageCount: 3}
	assert.Equal(t, 2, *limited.RemainingUses())

	// The counter can momentarily exceed the limit if the limit was
	// lowered; remaining never goes negative.
	over := &Offer{UsageLimit: &limit, UsageCount: 9}
	assert.Equal(t, 0, *over.RemainingUses())
}
