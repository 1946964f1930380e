package auth

import (
	"context"
	"errors"
	"time"

	"xports-bot/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrNoSession          = errors.New("no active session")
)

// Credential is the result of a completed provider operation. Provider
// implementations must resolve their transport's callback style into this
// explicit success/failure shape.
type Credential struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     models.Identity
}

// Provider is the external identity service. Session issuance, password
// storage and e-mail delivery all live behind it.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Credential, error)
	SignUp(ctx context.Context, email, password, displayName string) (Credential, error)
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
	ResetPassword(ctx context.Context, email string) error
}
