package domain

import (
	"context"
	"errors"
	"net/http"
)

// Verifier authenticates a webhook delivery against the shared endpoint
// secret. It must be handed the exact raw request bytes; any re-serialized
// body fails verification.
type Verifier interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
}

type EventParser interface {
	Parse(ctx context.Context, payload []byte) (Event, error)
}

// SubscriptionAPI is the outbound collaborator for subscription detail
// lookups by provider subscription id.
type SubscriptionAPI interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error)
}

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
)
