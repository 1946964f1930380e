package tgbot

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
	"xports-bot/internal/config"
	"xports-bot/internal/lifecycle"
	"xports-bot/internal/models"
	"xports-bot/internal/roles"
)

type fixedProvider struct{ email string }

func (p *fixedProvider) SignIn(context.Context, string, string) (auth.Credential, error) {
	return auth.Credential{
		IDToken:   "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		Identity:  models.Identity{Email: p.email},
	}, nil
}
func (p *fixedProvider) SignUp(ctx context.Context, e, pw, _ string) (auth.Credential, error) {
	return p.SignIn(ctx, e, pw)
}
func (p *fixedProvider) Refresh(context.Context, string) (auth.Credential, error) {
	return auth.Credential{}, auth.ErrNoSession
}
func (p *fixedProvider) ResetPassword(context.Context, string) error { return nil }

func detailChatState(t *testing.T, handler http.Handler) *chatState {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := &chatState{chatID: 1, busy: map[string]bool{}}
	st.sess = auth.NewSession(&fixedProvider{email: "v@example.com"}, zap.NewNop().Sugar())
	require.NoError(t, st.sess.SignIn(context.Background(), "v@example.com", "pw"))
	st.store = cache.New()
	st.api = backend.New(srv.URL, st.sess, nil, zap.NewNop().Sugar())
	st.roles = roles.New(st.sess, st.api, st.store)
	return st
}

func TestDetailMountSeesWinnerDeclaredElsewhere(t *testing.T) {
	var contestHits atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contests/c1":
			contestHits.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"_id":         "c1",
				"contestName": "Logo sprint",
				"contestType": "Design",
				"deadline":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
				"status":      "completed",
				"winnerName":  "Ada",
				"winnerPhoto": "p",
				"winnerEmail": "ada@example.com",
			})
		case "/submissions/check-registration":
			_ = json.NewEncoder(w).Encode(map[string]any{"registered": false})
		case "/users/role":
			_ = json.NewEncoder(w).Encode(map[string]string{"role": "user"})
		default:
			http.NotFound(w, r)
		}
	})

	a := &App{cfg: config.Config{}}
	st := detailChatState(t, handler)

	// A stale copy from an earlier view, cached before the winner existed.
	st.store.Set(cache.ContestKey("c1"), models.Contest{
		ID: "c1", Name: "Logo sprint",
		Status:   models.StatusConfirmed,
		Deadline: time.Now().Add(24 * time.Hour),
	})

	contest, state, err := a.mountDetail(context.Background(), st, "c1")
	require.NoError(t, err)
	require.NotNil(t, contest.Winner, "mounting the view must observe the declared winner")
	assert.Equal(t, "Ada", contest.Winner.Name)
	assert.Equal(t, lifecycle.StateNotRegisteredClosed, state)
	assert.Equal(t, int64(1), contestHits.Load())

	// The refilled entry serves the countdown's re-evaluation without
	// another round trip.
	_, _, err = a.evaluateDetail(context.Background(), st, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), contestHits.Load())
}
