// Package backend is the typed client for the contest platform's REST API.
// Every call carries the bound session's bearer token; authorization
// failures force a sign-out exactly once and surface as typed errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"xports-bot/internal/auth"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// APIError is any non-auth rejection from the backend. These are transient
// from the client's point of view: the viewer may retry, no local state has
// changed.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

type Client struct {
	base string
	http *http.Client
	log  *zap.SugaredLogger
}

// New binds a client to one viewer's session. onAuthExpired runs at most
// once per session generation, after the gateway has cleared the session.
func New(baseURL string, sess *auth.Session, onAuthExpired func(), log *zap.SugaredLogger) *Client {
	transport := &authTransport{
		sess:      sess,
		onExpired: onAuthExpired,
		next:      http.DefaultTransport,
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Transport: transport, Timeout: 20 * time.Second},
		log:  log,
	}
}

// authTransport attaches the viewer's credential to every outbound request
// and reacts to 401/403 by expiring the session. The session is read per
// request, so a user switch re-binds automatically and dropping the client
// releases everything.
type authTransport struct {
	sess      *auth.Session
	onExpired func()
	next      http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	gen := t.sess.Generation()
	out := req.Clone(req.Context())
	out.Header.Set("X-Request-ID", uuid.NewString())

	// Signed-out viewers may still hit public endpoints; protected ones
	// answer 401 and the route guard takes over.
	token, err := t.sess.Token(req.Context())
	switch {
	case err == nil:
		out.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, auth.ErrNoSession):
	default:
		return nil, fmt.Errorf("credential: %w", err)
	}

	resp, err := t.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if t.sess.ExpireIf(gen) && t.onExpired != nil {
			t.onExpired()
		}
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeErrorMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// mutationResult is the backend's success indicator. Callers must not update
// local state unless OK reports true.
type mutationResult struct {
	Success       bool   `json:"success"`
	ModifiedCount int    `json:"modifiedCount"`
	InsertedID    string `json:"insertedId"`
	Message       string `json:"message"`
}

func (m mutationResult) OK() bool {
	return m.Success || m.ModifiedCount > 0 || m.InsertedID != ""
}
