package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateOfferRequest {
	buyID := uuid.New()
	getID := uuid.New()
	return CreateOfferRequest{
		Name:         "buy two get one free",
		BuyProductID: &buyID,
		BuyQuantity:  2,
		GetProductID: &getID,
		GetQuantity:  1,
		DiscountMode: string(DiscountModeFree),
		StartsAt:     time.Now().Format(time.RFC3339),
		EndsAt:       time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		CreatedBy:    uuid.New(),
	}
}

func TestCreateOfferRequest_Valid(t *testing.T) {
	req := validCreateRequest()
	assert.NoError(t, req.Validate())
}

func TestCreateOfferRequest_ConditionPairs(t *testing.T) {
	id := uuid.New()

	t.Run("both buy ids set", func(t *testing.T) {
		req := validCreateRequest()
		req.BuyCategoryID = &id
		assert.Error(t, req.Validate())
	})

	t.Run("neither buy id set", func(t *testing.T) {
		req := validCreateRequest()
		req.BuyProductID = nil
		assert.Error(t, req.Validate())
	})

	t.Run("both get ids set", func(t *testing.T) {
		req := validCreateRequest()
		req.GetCategoryID = &id
		assert.Error(t, req.Validate())
	})

	t.Run("category scoped sides are valid", func(t *testing.T) {
		req := validCreateRequest()
		req.BuyProductID = nil
		req.BuyCategoryID = &id
		assert.NoError(t, req.Validate())
	})
}

func TestCreateOfferRequest_DiscountValueByMode(t *testing.T) {
	t.Run("percentage over 100 rejected", func(t *testing.T) {
		req := validCreateRequest()
		req.DiscountMode = string(DiscountModePercentage)
		req.DiscountValue = 150
		assert.Error(t, req.Validate())
	})

	t.Run("percentage zero rejected", func(t *testing.T) {
		req := validCreateRequest()
		req.DiscountMode = string(DiscountModePercentage)
		req.DiscountValue = 0
		assert.Error(t, req.Validate())
	})

	t.Run("fixed amount must be positive", func(t *testing.T) {
		req := validCreateRequest()
		req.DiscountMode = string(DiscountModeFixedAmount)
		req.DiscountValue = -1
		assert.Error(t, req.Validate())
	})

	t.Run("free ignores the value", func(t *testing.T) {
		req := validCreateRequest()
		req.DiscountValue = 0
		assert.NoError(t, req.Validate())
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		req := validCreateRequest()
		req.DiscountMode = "two_for_one"
		assert.Error(t, req.Validate())
	})
}

func TestCreateOfferRequest_DateRange(t *testing.T) {
	req := validCreateRequest()
	req.EndsAt = req.StartsAt
	assert.Error(t, req.Validate(), "window must have positive length")

	req = validCreateRequest()
	req.StartsAt = "tomorrow"
	assert.Error(t, req.Validate())
}

func TestCreateOfferRequest_UsageLimit(t *testing.T) {
	// A zero limit would make the offer exhausted before its first use.
	zero := 0
	req := validCreateRequest()
	req.UsageLimit = &zero
	assert.Error(t, req.Validate())

	negative := -3
	req = validCreateRequest()
	req.UsageLimit = &negative
	assert.Error(t, req.Validate())

	one := 1
	req = validCreateRequest()
	req.UsageLimit = &one
	assert.NoError(t, req.Validate())
}

func TestCreateOfferRequest_Quantities(t *testing.T) {
	req := validCreateRequest()
	req.BuyQuantity = 0
	assert.Error(t, req.Validate())

	req = validCreateRequest()
	req.GetQuantity = -1
	assert.Error(t, req.Validate())
}

func TestCreateOfferRequest_BuildsConditions(t *testing.T) {
	req := validCreateRequest()
	require.NoError(t, req.Validate())

	buy := req.BuyCondition()
	assert.Equal(t, ScopeProduct, buy.Scope)
	assert.Equal(t, *req.BuyProductID, buy.TargetID)

	catID := uuid.New()
	req.GetProductID = nil
	req.GetCategoryID = &catID
	get := req.GetCondition()
	assert.Equal(t, ScopeCategory, get.Scope)
	assert.Equal(t, catID, get.TargetID)
}

func TestUpdateOfferRequest_Validate(t *testing.T) {
	short := "ab"
	bad := UpdateOfferRequest{Name: &short}
	assert.Error(t, bad.Validate())

	zero := 0
	badLimit := UpdateOfferRequest{UsageLimit: &zero}
	assert.Error(t, badLimit.Validate())

	status := "paused"
	badStatus := UpdateOfferRequest{Status: &status}
	assert.Error(t, badStatus.Validate())

	name := "renamed offer"
	ok := UpdateOfferRequest{Name: &name}
	assert.NoError(t, ok.Validate())
}

func TestListOffersFilter_Defaults(t *testing.T) {
	f := &ListOffersFilter{}
	require.NoError(t, f.Validate())

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)
	assert.Equal(t, "all", f.State)

	f = &ListOffersFilter{State: "paused"}
	assert.Error(t, f.Validate())
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, ErrCodeOfferNotFound, CodeFor(ErrOfferNotFound))
	assert.Equal(t, ErrCodeUsageLimitReached, CodeFor(ErrUsageLimitReached))
	assert.Equal(t, ErrCodeCommitAborted, CodeFor(ErrCommitAborted))
	assert.Equal(t, ErrCodeDuplicateUsage, CodeFor(ErrDuplicateUsage))
}
