package casefile

import "errors"

var (
	ErrCaseNotFound       = errors.New("case not found")
	ErrWrongTenant        = errors.New("case belongs to another tenant")
	ErrFailedToLoadCase   = errors.New("failed to load case")
	ErrFailedToStoreCase  = errors.New("failed to store case")
	ErrDraftGeneration    = errors.New("draft generation failed")
	ErrFailedToCountCases = errors.New("failed to count cases")
)
