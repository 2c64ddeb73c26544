package admission

import "errors"

var (
	ErrFailedToCountActiveCases = errors.New("failed to count active cases")
)
