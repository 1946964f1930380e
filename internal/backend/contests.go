package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"xports-bot/internal/models"
)

// ContestQuery are the listing view's conventional REST filters.
type ContestQuery struct {
	Search string
	Type   string
	Status models.ContestStatus
	Skip   int
	Limit  int
}

type ContestPage struct {
	Contests []models.Contest `json:"contests"`
	Total    int              `json:"total"`
}

func (c *Client) ListContests(ctx context.Context, q ContestQuery) (ContestPage, error) {
	vals := url.Values{}
	if q.Search != "" {
		vals.Set("search", q.Search)
	}
	if q.Type != "" {
		vals.Set("type", q.Type)
	}
	if q.Status != "" {
		vals.Set("status", string(q.Status))
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
		vals.Set("skip", strconv.Itoa(q.Skip))
	}
	var page ContestPage
	err := c.get(ctx, "/contests", vals, &page)
	return page, err
}

// GetContest tolerates both shapes the backend serves a single contest in:
// a bare object or a one-element array.
func (c *Client) GetContest(ctx context.Context, id string) (models.Contest, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/contests/"+url.PathEscape(id), nil, &raw); err != nil {
		return models.Contest{}, err
	}
	if len(raw) > 0 && raw[0] == '[' {
		var many []models.Contest
		if err := json.Unmarshal(raw, &many); err != nil {
			return models.Contest{}, err
		}
		if len(many) == 0 {
			return models.Contest{}, &APIError{Status: http.StatusNotFound, Message: "contest not found"}
		}
		return many[0], nil
	}
	var one models.Contest
	if err := json.Unmarshal(raw, &one); err != nil {
		return models.Contest{}, err
	}
	return one, nil
}

func (c *Client) CreateContest(ctx context.Context, in models.ContestInput) error {
	var res mutationResult
	if err := c.send(ctx, http.MethodPost, "/contests", in, &res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("create contest was not accepted")
	}
	return nil
}

func (c *Client) UpdateContest(ctx context.Context, id string, in models.ContestInput) error {
	var res mutationResult
	if err := c.send(ctx, http.MethodPatch, "/contests/"+url.PathEscape(id), in, &res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("update contest was not accepted")
	}
	return nil
}

func (c *Client) DeleteContest(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/contests/"+url.PathEscape(id), nil, nil)
}

// SetContestStatus is the admin approve/reject action.
func (c *Client) SetContestStatus(ctx context.Context, id string, status models.ContestStatus) error {
	var res mutationResult
	body := map[string]string{"status": string(status)}
	if err := c.send(ctx, http.MethodPatch, "/contests/status/"+url.PathEscape(id), body, &res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("status update was not accepted")
	}
	return nil
}

func (c *Client) MyContests(ctx context.Context, email string) ([]models.Contest, error) {
	vals := url.Values{"email": {email}}
	var out []models.Contest
	err := c.get(ctx, "/my-contests", vals, &out)
	return out, err
}

func (c *Client) ContestSubmissions(ctx context.Context, contestID string) ([]models.Submission, error) {
	var out []models.Submission
	err := c.get(ctx, "/contests/"+url.PathEscape(contestID)+"/submissions", nil, &out)
	return out, err
}

// DeclareWinner marks one submission as the contest winner. The backend
// enforces that at most one submission per contest wins.
func (c *Client) DeclareWinner(ctx context.Context, contestID string, sub models.Submission) error {
	var res mutationResult
	body := map[string]string{
		"participantEmail": sub.ParticipantEmail,
		"participantName":  sub.ParticipantName,
		"participantPhoto": sub.ParticipantPhoto,
	}
	if err := c.send(ctx, http.MethodPatch, "/declare-winner/"+url.PathEscape(contestID), body, &res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("winner declaration was not accepted")
	}
	return nil
}

func (c *Client) ParticipatedContests(ctx context.Context, email string) ([]models.Contest, error) {
	vals := url.Values{"email": {email}}
	var out []models.Contest
	err := c.get(ctx, "/participate", vals, &out)
	return out, err
}

func (c *Client) MyWins(ctx context.Context, email string) ([]models.Contest, error) {
	vals := url.Values{"email": {email}}
	var out []models.Contest
	err := c.get(ctx, "/winners", vals, &out)
	return out, err
}
