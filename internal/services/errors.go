package services

import "errors"

// Domain errors raised by the order engine. They describe conditions the
// caller can correct and are always wrapped with the identifiers involved.
var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrIllegalTransition  = errors.New("illegal status transition")
)
