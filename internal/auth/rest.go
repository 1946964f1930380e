package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"xports-bot/internal/models"
)

// RESTProvider talks to the hosted identity service over its JSON API.
type RESTProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRESTProvider(baseURL, apiKey string) *RESTProvider {
	return &RESTProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type credentialWire struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoURL"`
}

func (p *RESTProvider) SignIn(ctx context.Context, email, password string) (Credential, error) {
	return p.credentialCall(ctx, "/sessions", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (p *RESTProvider) SignUp(ctx context.Context, email, password, displayName string) (Credential, error) {
	return p.credentialCall(ctx, "/accounts", map[string]string{
		"email":       email,
		"password":    password,
		"displayName": displayName,
	})
}

func (p *RESTProvider) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	return p.credentialCall(ctx, "/sessions/refresh", map[string]string{
		"refreshToken": refreshToken,
	})
}

func (p *RESTProvider) ResetPassword(ctx context.Context, email string) error {
	resp, err := p.post(ctx, "/password-resets", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("password reset: provider returned %d", resp.StatusCode)
	}
	return nil
}

func (p *RESTProvider) credentialCall(ctx context.Context, path string, body map[string]string) (Credential, error) {
	resp, err := p.post(ctx, path, body)
	if err != nil {
		return Credential{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return Credential{}, ErrInvalidCredentials
	case resp.StatusCode == http.StatusConflict:
		return Credential{}, ErrEmailInUse
	case resp.StatusCode >= 300:
		return Credential{}, fmt.Errorf("auth provider returned %d", resp.StatusCode)
	}

	var w credentialWire
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	if w.IDToken == "" {
		return Credential{}, fmt.Errorf("auth provider returned no token")
	}

	expiresAt := time.Now().Add(time.Duration(w.ExpiresIn) * time.Second)
	if w.ExpiresIn == 0 {
		if exp, ok := TokenExpiry(w.IDToken); ok {
			expiresAt = exp
		}
	}

	return Credential{
		IDToken:      w.IDToken,
		RefreshToken: w.RefreshToken,
		ExpiresAt:    expiresAt,
		Identity: models.Identity{
			Email:       w.Email,
			DisplayName: w.DisplayName,
			PhotoURL:    w.PhotoURL,
		},
	}, nil
}

func (p *RESTProvider) post(ctx context.Context, path string, body map[string]string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}
	return p.http.Do(req)
}

// TokenExpiry reads the exp claim without verifying the signature; the
// backend verifies, the client only needs to know when to refresh.
func TokenExpiry(idToken string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
