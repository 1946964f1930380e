package roles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"xports-bot/internal/auth"
	"xports-bot/internal/backend"
	"xports-bot/internal/cache"
	"xports-bot/internal/models"
)

type fakeProvider struct{ email string }

func (p *fakeProvider) SignIn(context.Context, string, string) (auth.Credential, error) {
	return auth.Credential{
		IDToken:   "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		Identity:  models.Identity{Email: p.email},
	}, nil
}
func (p *fakeProvider) SignUp(ctx context.Context, e, pw, _ string) (auth.Credential, error) {
	return p.SignIn(ctx, e, pw)
}
func (p *fakeProvider) Refresh(context.Context, string) (auth.Credential, error) {
	return auth.Credential{}, auth.ErrNoSession
}
func (p *fakeProvider) ResetPassword(context.Context, string) error { return nil }

func newResolver(t *testing.T, signedIn bool, hits *atomic.Int64) (*Resolver, *auth.Session) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/role", r.URL.Path)
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"role": "creator"})
	}))
	t.Cleanup(srv.Close)

	sess := auth.NewSession(&fakeProvider{email: "c@example.com"}, zap.NewNop().Sugar())
	if signedIn {
		require.NoError(t, sess.SignIn(context.Background(), "c@example.com", "pw"))
	}
	store := cache.New()
	api := backend.New(srv.URL, sess, nil, zap.NewNop().Sugar())
	return New(sess, api, store), sess
}

func TestResolveSignedOutNeverFetches(t *testing.T) {
	var hits atomic.Int64
	r, _ := newResolver(t, false, &hits)

	ri, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, ri.Role)
	assert.Equal(t, int64(0), hits.Load())
}

func TestResolveFetchesOncePerIdentity(t *testing.T) {
	var hits atomic.Int64
	r, _ := newResolver(t, true, &hits)

	for i := 0; i < 3; i++ {
		ri, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.RoleCreator, ri.Role)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var hits atomic.Int64
	r, _ := newResolver(t, true, &hits)

	_, err := r.Resolve(context.Background())
	require.NoError(t, err)
	r.Invalidate()
	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}
