package pilot

import "errors"

var (
	ErrTrialNotFound        = errors.New("trial record not found")
	ErrSubscriptionNotFound = errors.New("subscription record not found")
	ErrInvalidTrialDays     = errors.New("trial days must be positive")
	ErrFailedToLoadRecord   = errors.New("failed to load pilot record")
	ErrFailedToStoreRecord  = errors.New("failed to store pilot record")
	ErrPurgeFailed          = errors.New("retention purge failed")
	ErrUnknownWebhookTenant = errors.New("webhook event carries no resolvable tenant")

	ErrMissingAPIKey             = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnv        = errors.New("invalid billing provider environment")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
)
