package repositories

import "errors"

// Sentinel not-found errors shared by all repository implementations.
// Callers match them with errors.Is; implementations wrap them with the
// identifier that was looked up.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
)
