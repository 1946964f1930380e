package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"xports-bot/internal/models"
)

// GetRole resolves the caller's role from their bearer token; the email in
// the token decides whose role comes back.
func (c *Client) GetRole(ctx context.Context) (models.RoleInfo, error) {
	var ri models.RoleInfo
	err := c.get(ctx, "/users/role", nil, &ri)
	return ri, err
}

func (c *Client) ListUsers(ctx context.Context, search string) ([]models.UserRecord, error) {
	vals := url.Values{}
	if search != "" {
		vals.Set("searchText", search)
	}
	var out []models.UserRecord
	err := c.get(ctx, "/users", vals, &out)
	return out, err
}

func (c *Client) UpdateUserRole(ctx context.Context, userID string, role models.Role) error {
	var res mutationResult
	body := map[string]string{"role": string(role)}
	if err := c.send(ctx, http.MethodPatch, "/users/role/"+url.PathEscape(userID), body, &res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("role update was not accepted")
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.send(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}

// ApplyForCreator requests promotion; the backend marks the account
// pending_creator until an admin decides.
func (c *Client) ApplyForCreator(ctx context.Context, email string) error {
	var res mutationResult
	if err := c.send(ctx, http.MethodPatch, "/users/apply-creator/"+url.PathEscape(email), nil, &res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("creator application was not accepted")
	}
	return nil
}

// UpsertUser syncs the provider identity into the backend's user store,
// called once after sign-up.
func (c *Client) UpsertUser(ctx context.Context, id models.Identity) error {
	body := map[string]string{
		"name":     id.DisplayName,
		"email":    id.Email,
		"photoURL": id.PhotoURL,
	}
	return c.send(ctx, http.MethodPost, "/users", body, nil)
}

func (c *Client) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var st models.AdminStats
	err := c.get(ctx, "/admin-stats", nil, &st)
	return st, err
}
