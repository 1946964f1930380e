package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xports-bot/internal/models"
)

type fakeProvider struct {
	mu       sync.Mutex
	refreshN int

	signInErr error
	cred      Credential
}

func (f *fakeProvider) SignIn(_ context.Context, email, _ string) (Credential, error) {
	if f.signInErr != nil {
		return Credential{}, f.signInErr
	}
	c := f.cred
	if c.Identity.Email == "" {
		c.Identity.Email = email
	}
	return c, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password, displayName string) (Credential, error) {
	c, err := f.SignIn(ctx, email, password)
	c.Identity.DisplayName = displayName
	return c, err
}

func (f *fakeProvider) Refresh(_ context.Context, refreshToken string) (Credential, error) {
	f.mu.Lock()
	f.refreshN++
	f.mu.Unlock()
	return Credential{
		IDToken:      "refreshed-token",
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeProvider) ResetPassword(context.Context, string) error { return nil }

func freshCred(email string) Credential {
	return Credential{
		IDToken:      "token-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Identity:     models.Identity{Email: email, DisplayName: "Test User"},
	}
}

func newTestSession(p Provider) *Session {
	return NewSession(p, zap.NewNop().Sugar())
}

func TestSignInPopulatesIdentityAndNotifies(t *testing.T) {
	s := newTestSession(&fakeProvider{cred: freshCred("a@example.com")})

	var got []*models.Identity
	remove := s.OnChange(func(id *models.Identity) { got = append(got, id) })
	defer remove()

	require.Nil(t, s.Identity())
	require.NoError(t, s.SignIn(context.Background(), "a@example.com", "pw"))

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "a@example.com", id.Email)
	assert.False(t, s.Loading())

	require.Len(t, got, 1)
	assert.Equal(t, "a@example.com", got[0].Email)

	s.SignOut()
	require.Len(t, got, 2)
	assert.Nil(t, got[1])
	assert.Nil(t, s.Identity())
}

func TestSignInFailureLeavesSessionEmpty(t *testing.T) {
	s := newTestSession(&fakeProvider{signInErr: ErrInvalidCredentials})

	err := s.SignIn(context.Background(), "a@example.com", "bad")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, s.Identity())
	assert.False(t, s.Loading())
}

func TestExpireIfFiresForExactlyOneCaller(t *testing.T) {
	s := newTestSession(&fakeProvider{cred: freshCred("a@example.com")})
	require.NoError(t, s.SignIn(context.Background(), "a@example.com", "pw"))

	gen := s.Generation()

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ExpireIf(gen)
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for r := range results {
		if r {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one caller clears the session")
	assert.Nil(t, s.Identity())
}

func TestExpireIfIgnoresStaleGeneration(t *testing.T) {
	s := newTestSession(&fakeProvider{cred: freshCred("a@example.com")})
	require.NoError(t, s.SignIn(context.Background(), "a@example.com", "pw"))

	stale := s.Generation()

	// The viewer signs in again before the failing response lands; the
	// stale expiry must not sign the new session out.
	require.NoError(t, s.SignIn(context.Background(), "a@example.com", "pw"))
	assert.False(t, s.ExpireIf(stale))
	assert.NotNil(t, s.Identity())
}

func TestTokenSkipsRefreshWhileFresh(t *testing.T) {
	p := &fakeProvider{cred: freshCred("a@example.com")}
	s := newTestSession(p)
	require.NoError(t, s.SignIn(context.Background(), "a@example.com", "pw"))

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, 0, p.refreshN)
}

func TestTokenRefreshesNearExpiry(t *testing.T) {
	cred := freshCred("a@example.com")
	cred.ExpiresAt = time.Now().Add(10 * time.Second)
	p := &fakeProvider{cred: cred}
	s := newTestSession(p)
	require.NoError(t, s.SignIn(context.Background(), "a@example.com", "pw"))

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", tok)
	assert.Equal(t, 1, p.refreshN)

	// The refreshed credential keeps the signed-in identity even though the
	// refresh response carried none.
	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "a@example.com", id.Email)

	// And the next call uses the stored fresh token.
	tok, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", tok)
	assert.Equal(t, 1, p.refreshN)
}

func TestTokenSignedOut(t *testing.T) {
	s := newTestSession(&fakeProvider{})
	_, err := s.Token(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}
