package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"xports-bot/internal/models"
)

func (c *Client) CheckRegistration(ctx context.Context, email, contestID string) (models.Registration, error) {
	vals := url.Values{
		"email":     {email},
		"contestId": {contestID},
	}
	var reg models.Registration
	err := c.get(ctx, "/submissions/check-registration", vals, &reg)
	return reg, err
}

type TaskSubmission struct {
	ContestID        string    `json:"contestId"`
	ParticipantEmail string    `json:"participantEmail"`
	ParticipantName  string    `json:"participantName"`
	SubmissionLink   string    `json:"submissionLink"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// SubmitTask rejects an empty link before any network call.
func (c *Client) SubmitTask(ctx context.Context, sub TaskSubmission) error {
	if strings.TrimSpace(sub.SubmissionLink) == "" {
		return fmt.Errorf("submission link is required")
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	var res mutationResult
	if err := c.send(ctx, http.MethodPost, "/submissions/task", sub, &res); err != nil {
		return err
	}
	if !res.OK() {
		msg := res.Message
		if msg == "" {
			msg = "submission was not accepted"
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

type CheckoutRequest struct {
	ContestID        string          `json:"contestId"`
	ContestName      string          `json:"contestName"`
	Price            decimal.Decimal `json:"price"`
	Description      string          `json:"description"`
	Image            string          `json:"image"`
	ParticipantEmail string          `json:"participantEmail"`
	ParticipantName  string          `json:"participantName"`
	ParticipantPhoto string          `json:"participantPhoto"`
	SuccessURL       string          `json:"successUrl"`
	CancelURL        string          `json:"cancelUrl"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CreateCheckoutSession asks the backend for a hosted checkout URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (payURL, sessionID string, err error) {
	var resp checkoutResponse
	if err := c.send(ctx, http.MethodPost, "/create-checkout-session", req, &resp); err != nil {
		return "", "", err
	}
	if resp.URL == "" {
		return "", "", fmt.Errorf("backend returned no checkout url")
	}
	return resp.URL, resp.SessionID, nil
}

type FinalizeResult struct {
	Success          bool
	AlreadyProcessed bool
}

// FinalizePayment converts a completed checkout session into a persisted
// registration. The call is idempotent: a second finalize for the same
// session reports already-processed and creates nothing.
func (c *Client) FinalizePayment(ctx context.Context, sessionID string) (FinalizeResult, error) {
	var res mutationResult
	body := map[string]string{"sessionId": sessionID}
	if err := c.send(ctx, http.MethodPost, "/payment-success", body, &res); err != nil {
		return FinalizeResult{}, err
	}
	if !res.Success {
		return FinalizeResult{}, fmt.Errorf("payment finalization was not accepted")
	}
	return FinalizeResult{
		Success:          true,
		AlreadyProcessed: res.Message == "Already processed",
	}, nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (models.CheckoutSession, error) {
	var cs models.CheckoutSession
	err := c.get(ctx, "/checkout-session/"+url.PathEscape(sessionID), nil, &cs)
	return cs, err
}
