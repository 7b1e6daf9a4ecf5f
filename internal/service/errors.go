package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks input problems found before any write. Specific
// validation errors wrap it.
var ErrValidation = errors.New("validation failed")

var (
	ErrMissingUser              = validationError("user id is required")
	ErrEmptyCart                = validationError("cart is empty")
	ErrMissingAddress           = validationError("shipping address requires name, phone and street address")
	ErrAddressNotSaved          = validationError("shipping address has not been saved")
	ErrInvalidQuantity          = validationError("quantity must be at least 1")
	ErrMissingProduct           = validationError("cart line requires a product id")
	ErrTotalMismatch            = validationError("total amount does not match cart contents")
	ErrInvalidStatus            = validationError("invalid order status")
	ErrRejectionReasonRequired  = validationError("rejection reason is required")
	ErrInvalidRole              = validationError("invalid role")
	ErrVerificationCodeRequired = validationError("verification code is required")
	ErrInvalidVerificationCode  = validationError("verification code is invalid or expired")
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrStaleCart         = errors.New("cart was updated by a newer save")
	ErrDuplicateRequest  = errors.New("request with this idempotency key is already being processed")
	ErrAdminExists       = errors.New("an admin account already exists")
	ErrProfileExists     = errors.New("profile already exists")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
