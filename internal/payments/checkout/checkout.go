// Package checkout drives the backend's hosted-checkout endpoints: the
// backend creates the processor session and the processor redirects the
// viewer back to the bot's return URL when done.
package checkout

import (
	"context"

	"xports-bot/internal/backend"
)

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string { return "checkout" }

func (p *Provider) CreateCheckout(ctx context.Context, api *backend.Client, req backend.CheckoutRequest) (string, string, error) {
	return api.CreateCheckoutSession(ctx, req)
}

func (p *Provider) Finalize(ctx context.Context, api *backend.Client, sessionID string) (backend.FinalizeResult, error) {
	return api.FinalizePayment(ctx, sessionID)
}
