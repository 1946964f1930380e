package payments

import (
	"context"

	"xports-bot/internal/backend"
)

// Provider turns a registration attempt into a hosted checkout and later
// finalizes the completed session into a registration. Finalize must be
// idempotent: retrying the same session is a no-op the second time.
type Provider interface {
	Name() string

	// CreateCheckout returns the URL the viewer is sent to and the checkout
	// session identifier (empty when the processor substitutes it into the
	// return URL itself).
	CreateCheckout(ctx context.Context, api *backend.Client, req backend.CheckoutRequest) (payURL, sessionID string, err error)

	// Finalize converts a completed session into a persisted registration.
	Finalize(ctx context.Context, api *backend.Client, sessionID string) (backend.FinalizeResult, error)
}
