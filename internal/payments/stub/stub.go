// Package stub is a local payment provider for development runs: checkout is
// a self-hosted page with pay/cancel links and finalization is tracked in
// memory, so the full registration flow works without a processor account.
package stub

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"xports-bot/internal/backend"
)

type Provider struct {
	baseURL string

	mu        sync.Mutex
	processed map[string]bool
}

func New(baseURL string) *Provider {
	return &Provider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		processed: map[string]bool{},
	}
}

func (p *Provider) Name() string { return "stub" }

func (p *Provider) CreateCheckout(ctx context.Context, api *backend.Client, req backend.CheckoutRequest) (string, string, error) {
	sessionID := "stub_" + uuid.NewString()

	q := url.Values{}
	q.Set("session_id", sessionID)
	q.Set("success", strings.ReplaceAll(req.SuccessURL, "{CHECKOUT_SESSION_ID}", sessionID))
	q.Set("cancel", strings.ReplaceAll(req.CancelURL, "{CHECKOUT_SESSION_ID}", sessionID))

	payURL := "/pay/stub?" + q.Encode()
	if p.baseURL != "" {
		payURL = p.baseURL + payURL
	}
	return payURL, sessionID, nil
}

func (p *Provider) Finalize(ctx context.Context, api *backend.Client, sessionID string) (backend.FinalizeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.processed[sessionID] {
		return backend.FinalizeResult{Success: true, AlreadyProcessed: true}, nil
	}
	p.processed[sessionID] = true
	return backend.FinalizeResult{Success: true}, nil
}
