package pilot

import (
	"context"
	"time"
)

// BillingProvider abstracts the payment provider. Implementations wrap the
// provider SDK, validate webhook signatures, and normalize events so the
// service never touches provider-specific payloads.
type BillingProvider interface {
	// CreateCheckoutLink creates a hosted checkout session for a plan.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ParseWebhook validates the signature and parses the raw webhook body.
	// Returns ErrWebhookVerificationFailed on a bad signature.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest carries what the provider needs to open a checkout.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier for the plan
	CustomerID string // tenant UUID as string, echoed back in webhooks
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutLink is a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// WebhookEvent is a provider webhook normalized to the fields the service
// acts on.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider's subscription ID
	CustomerID     string // tenant UUID from checkout custom data
	Status         string // provider-reported subscription status
	PlanID         string // price/plan the customer subscribed to
	Raw            map[string]any
}

// EventType is the normalized billing event type.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
)
