package plan

import "errors"

var (
	ErrFailedToLoadCatalog      = errors.New("failed to load plan catalog")
	ErrInvalidCatalog           = errors.New("invalid plan catalog")
	ErrCatalogMissingPilotTier  = errors.New("plan catalog is missing the pilot tier")
	ErrCatalogFileNotFound      = errors.New("plan catalog file not found")
	ErrFailedToParseCatalogFile = errors.New("failed to parse plan catalog file")
)
