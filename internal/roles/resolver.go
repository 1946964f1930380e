// Package roles caches the viewer's role per identity. Unauthenticated
// viewers have an implicit role of "none" and are never queried.
package roles

import (
	"context"

	"xports-bot/internal/auth"
	"xports-bot/internal/backend"
	"xports-bot/internal/cache"
	"xports-bot/internal/models"
)

type Resolver struct {
	sess  *auth.Session
	api   *backend.Client
	store *cache.Store
}

func New(sess *auth.Session, api *backend.Client, store *cache.Store) *Resolver {
	return &Resolver{sess: sess, api: api, store: store}
}

// Resolve fetches {role, status} at most once per identity. It never hits
// the backend while the session is still loading or signed out.
func (r *Resolver) Resolve(ctx context.Context) (models.RoleInfo, error) {
	none := models.RoleInfo{Role: models.RoleNone, Status: models.RoleStatusNone}
	if r.sess.Loading() {
		return none, nil
	}
	id := r.sess.Identity()
	if id == nil {
		return none, nil
	}

	key := cache.RoleKey(id.Email)
	if v, ok := r.store.Get(key); ok {
		return v.(models.RoleInfo), nil
	}

	ri, err := r.api.GetRole(ctx)
	if err != nil {
		return none, err
	}
	r.store.Set(key, ri)
	return ri, nil
}

// Invalidate drops the cached role so the next Resolve refetches. Called
// after any role-mutating action (apply-for-creator, admin promote/demote).
func (r *Resolver) Invalidate() {
	r.store.InvalidatePrefix("role:")
}
