package model

import "errors"

var (
	ErrOfferNotFound           = errors.New("offer not found")
	ErrOfferInactive           = errors.New("offer is not active or outside its validity window")
	ErrBelowMinimumBuyQuantity = errors.New("cart does not meet the offer's minimum buy quantity")
	ErrUsageLimitReached       = errors.New("offer usage limit reached")
	ErrProductUnavailable      = errors.New("get-side product is missing or inactive")
	ErrDuplicateUsage          = errors.New("offer already redeemed for this order")

	// ErrCommitAborted means the redemption transaction failed without
	// taking effect; callers may safely retry.
	ErrCommitAborted = errors.New("redemption commit aborted")

	ErrOfferVersionConflict = errors.New("offer was modified concurrently")
	ErrOfferHasUsage        = errors.New("offer has recorded redemptions and cannot be deleted")
)

type ErrorCode string

const (
	ErrCodeOfferNotFound      ErrorCode = "OFFER_NOT_FOUND"       // 404
	ErrCodeOfferInactive      ErrorCode = "OFFER_INACTIVE"        // 400
	ErrCodeBelowMinBuyQty     ErrorCode = "OFFER_MIN_BUY_NOT_MET" // 400
	ErrCodeUsageLimitReached  ErrorCode = "OFFER_USAGE_LIMIT"     // 400
	ErrCodeProductUnavailable ErrorCode = "PRODUCT_UNAVAILABLE"   // 400
	ErrCodeDuplicateUsage     ErrorCode = "BIZ_DUPLICATE_USAGE"   // 409
	ErrCodeCommitAborted      ErrorCode = "BIZ_COMMIT_ABORTED"    // 409, retryable
	ErrCodeUpdateConflict     ErrorCode = "BIZ_UPDATE_CONFLICT"   // 409
	ErrCodeValidationFailed   ErrorCode = "VAL_INVALID_INPUT"     // 400
)

// AppError carries a stable code for callers that need one.
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// CodeFor maps a sentinel error to its stable code.
func CodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrOfferNotFound):
		return ErrCodeOfferNotFound
	case errors.Is(err, ErrOfferInactive):
		return ErrCodeOfferInactive
	case errors.Is(err, ErrBelowMinimumBuyQuantity):
		return ErrCodeBelowMinBuyQty
	case errors.Is(err, ErrUsageLimitReached):
		return ErrCodeUsageLimitReached
	case errors.Is(err, ErrProductUnavailable):
		return ErrCodeProductUnavailable
	case errors.Is(err, ErrDuplicateUsage):
		return ErrCodeDuplicateUsage
	case errors.Is(err, ErrCommitAborted):
		return ErrCodeCommitAborted
	case errors.Is(err, ErrOfferVersionConflict):
		return ErrCodeUpdateConflict
	default:
		return ErrCodeValidationFailed
	}
}
