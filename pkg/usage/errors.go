package usage

import "errors"

var (
	ErrUsageNotFound      = errors.New("usage record not found")
	ErrInvalidRowCount    = errors.New("payment row count must be positive")
	ErrFailedToLoadUsage  = errors.New("failed to load usage record")
	ErrFailedToStoreUsage = errors.New("failed to store usage record")
)
