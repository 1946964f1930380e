package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"xports-bot/internal/models"
)

// refreshMargin is how close to expiry a token may get before Token
// refreshes it.
const refreshMargin = 60 * time.Second

// Session holds the current identity for one viewer. It is constructed when
// the viewer's chat first appears and disposed with the chat state; listeners
// fire on every identity change, including forced sign-out.
type Session struct {
	provider Provider
	log      *zap.SugaredLogger

	mu        sync.Mutex
	cred      *Credential
	loading   bool
	gen       uint64
	listeners map[int]func(*models.Identity)
	nextID    int
}

func NewSession(provider Provider, log *zap.SugaredLogger) *Session {
	return &Session{
		provider:  provider,
		log:       log,
		listeners: map[int]func(*models.Identity){},
	}
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Identity returns nil when signed out.
func (s *Session) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil
	}
	id := s.cred.Identity
	return &id
}

// Generation increments on every identity change. The gateway captures it
// before a request so concurrent authorization failures collapse into a
// single sign-out.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// OnChange registers a listener; the returned func removes it.
func (s *Session) OnChange(fn func(*models.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	return s.run(ctx, func(ctx context.Context) (Credential, error) {
		return s.provider.SignIn(ctx, email, password)
	})
}

func (s *Session) SignUp(ctx context.Context, email, password, displayName string) error {
	return s.run(ctx, func(ctx context.Context) (Credential, error) {
		return s.provider.SignUp(ctx, email, password, displayName)
	})
}

func (s *Session) ResetPassword(ctx context.Context, email string) error {
	return s.provider.ResetPassword(ctx, email)
}

func (s *Session) SignOut() {
	s.mu.Lock()
	if s.cred == nil {
		s.mu.Unlock()
		return
	}
	s.cred = nil
	s.gen++
	fns := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
}

// ExpireIf force-signs-out, but only if the session generation still matches
// the one the caller observed. Returns true for the one caller that actually
// cleared the session.
func (s *Session) ExpireIf(gen uint64) bool {
	s.mu.Lock()
	if s.cred == nil || s.gen != gen {
		s.mu.Unlock()
		return false
	}
	email := s.cred.Identity.Email
	s.cred = nil
	s.gen++
	fns := s.snapshotListeners()
	s.mu.Unlock()

	s.log.Warnw("session expired by gateway", "email", email)
	for _, fn := range fns {
		fn(nil)
	}
	return true
}

// Token returns a live ID token, refreshing through the provider when the
// current one is near expiry.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.cred == nil {
		s.mu.Unlock()
		return "", ErrNoSession
	}
	cred := *s.cred
	s.mu.Unlock()

	if time.Until(cred.ExpiresAt) > refreshMargin {
		return cred.IDToken, nil
	}

	fresh, err := s.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}
	// Keep the signed-in identity; a refresh response may omit profile
	// fields.
	if fresh.Identity.Email == "" {
		fresh.Identity = cred.Identity
	}

	s.mu.Lock()
	if s.cred != nil && s.cred.IDToken == cred.IDToken {
		s.cred = &fresh
	}
	tok := fresh.IDToken
	s.mu.Unlock()
	return tok, nil
}

func (s *Session) run(ctx context.Context, op func(context.Context) (Credential, error)) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	cred, err := op(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cred = &cred
	s.gen++
	fns := s.snapshotListeners()
	id := cred.Identity
	s.mu.Unlock()

	for _, fn := range fns {
		fn(&id)
	}
	return nil
}

// callers must hold s.mu
func (s *Session) snapshotListeners() []func(*models.Identity) {
	fns := make([]func(*models.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}
